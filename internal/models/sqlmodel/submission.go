package sqlmodel

import (
	"time"

	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// Submission 定义了数据库表 submissions，用于记录批量空投的提交与确认情况。
type Submission struct {
	ID             int64     `gorm:"primaryKey;autoIncrement:false"`
	TransactionID  string    `gorm:"type:VARCHAR(66);uniqueIndex;not null"`
	Submitter      string    `gorm:"type:VARCHAR(42);not null"`
	ContractAddr   string    `gorm:"type:VARCHAR(42);not null"`
	RecipientCount int       `gorm:"not null"`
	Status         string    `gorm:"type:VARCHAR(16);not null"`
	BlockNumber    uint64    `gorm:"not null;default:0"`
	FailureReason  string    `gorm:"type:VARCHAR(1024)"`
	TimeCreated    time.Time `gorm:"not null"`
	TimeUpdated    time.Time `gorm:"not null"`
}

// NewSubmissionFromModel 从 `airdrop.SubmissionRecord` 创建用于写入数据库的实例。
func NewSubmissionFromModel(record *airdrop.SubmissionRecord) (*Submission, error) {
	sfID, err := snowflake.ParseString(record.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "提交 ID '%v' 格式不正确", record.ID)
	}

	return &Submission{
		ID:             sfID.Int64(),
		TransactionID:  record.TransactionID,
		Submitter:      record.Submitter,
		ContractAddr:   record.ContractAddr,
		RecipientCount: record.RecipientCount,
		Status:         string(record.Status),
		BlockNumber:    record.BlockNumber,
		FailureReason:  record.FailureReason,
		TimeCreated:    record.TimeCreated,
		TimeUpdated:    record.TimeUpdated,
	}, nil
}

// ToModel 将数据库中的记录转换为 `airdrop.SubmissionRecord`。
func (s *Submission) ToModel() *airdrop.SubmissionRecord {
	return &airdrop.SubmissionRecord{
		ID:             snowflake.ParseInt64(s.ID).String(),
		TransactionID:  s.TransactionID,
		Submitter:      s.Submitter,
		ContractAddr:   s.ContractAddr,
		RecipientCount: s.RecipientCount,
		Status:         airdrop.TxStatus(s.Status),
		BlockNumber:    s.BlockNumber,
		FailureReason:  s.FailureReason,
		TimeCreated:    s.TimeCreated,
		TimeUpdated:    s.TimeUpdated,
	}
}
