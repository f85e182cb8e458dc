package db

import (
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/models/sqlmodel"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveSubmissionToLocalDB 将 `airdrop.SubmissionRecord` 保存到指定的数据库中。已存在相同 ID 的记录会被覆盖。
func SaveSubmissionToLocalDB(record *airdrop.SubmissionRecord, db *gorm.DB) error {
	submissionDB, err := sqlmodel.NewSubmissionFromModel(record)
	if err != nil {
		return err
	}

	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(submissionDB)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将空投提交记录存入数据库")
	}

	return nil
}

// UpdateSubmissionStatusInLocalDB 更新指定交易的提交记录的状态。
func UpdateSubmissionStatusInLocalDB(txID string, status airdrop.TxStatus, blockNumber uint64, failureReason string, db *gorm.DB) error {
	dbResult := db.Model(&sqlmodel.Submission{}).Where("transaction_id = ?", txID).Updates(map[string]interface{}{
		"status":         string(status),
		"block_number":   blockNumber,
		"failure_reason": failureReason,
		"time_updated":   time.Now(),
	})
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法更新空投提交记录")
	}
	if dbResult.RowsAffected == 0 {
		return errorcode.ErrorNotFound
	}

	return nil
}

// GetSubmissionFromLocalDB 从数据库中读取指定交易的提交记录。
func GetSubmissionFromLocalDB(txID string, db *gorm.DB) (*airdrop.SubmissionRecord, error) {
	var submissionDB sqlmodel.Submission
	dbResult := db.Where("transaction_id = ?", txID).Take(&submissionDB)
	if dbResult.Error != nil {
		if errors.Cause(dbResult.Error) == gorm.ErrRecordNotFound {
			return nil, errorcode.ErrorNotFound
		} else {
			return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取空投提交记录")
		}
	}

	return submissionDB.ToModel(), nil
}

// ListSubmissionsFromLocalDB 按时间倒序列出最近的提交记录。limit 为 -1 时不限制条数。
func ListSubmissionsFromLocalDB(limit int, db *gorm.DB) ([]*airdrop.SubmissionRecord, error) {
	var submissionsDB []sqlmodel.Submission
	dbResult := db.Order("time_created DESC").Order("id DESC").Limit(limit).Find(&submissionsDB)
	if dbResult.Error != nil {
		return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取空投提交记录")
	}

	ret := make([]*airdrop.SubmissionRecord, 0, len(submissionsDB))
	for i := range submissionsDB {
		ret = append(ret, submissionsDB[i].ToModel())
	}

	return ret, nil
}
