package db

import (
	"fmt"

	"gitee.com/czyczk/confidential-airdrop/internal/models/sqlmodel"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names accepted by `OpenLocalDB`.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// OpenLocalDB 打开本地数据库并迁移表结构。
//
// 参数：
//   驱动名（mysql 或 sqlite）
//   数据源（DSN）
//
// 返回：
//   数据库实例
func OpenLocalDB(driver string, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动 '%v'", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "无法连接数据库")
	}

	if err := db.AutoMigrate(&sqlmodel.Submission{}); err != nil {
		return nil, errors.Wrap(err, "无法迁移数据库表结构")
	}
	log.Debugf("已连接 %v 数据库。", driver)

	return db, nil
}
