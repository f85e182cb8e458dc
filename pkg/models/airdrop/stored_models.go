package airdrop

import "time"

// TxStatus 表示空投交易的生命周期状态
type TxStatus string

const (
	TxSubmitted TxStatus = "submitted" // 交易已广播，尚未确认
	TxConfirmed TxStatus = "confirmed" // 交易已上链且执行成功
	TxFailed    TxStatus = "failed"    // 交易被拒绝或回滚
)

// SubmissionRecord 表示一次批量空投提交的记录
type SubmissionRecord struct {
	ID             string    `json:"id"`                    // 提交 ID（Snowflake）
	TransactionID  string    `json:"transactionId"`         // 交易哈希
	Submitter      string    `json:"submitter"`             // 提交者地址
	ContractAddr   string    `json:"contractAddress"`       // 目标合约地址
	RecipientCount int       `json:"recipientCount"`        // 接收者个数
	Status         TxStatus  `json:"status"`                // 交易状态
	BlockNumber    uint64    `json:"blockNumber,omitempty"` // 确认时所在区块
	FailureReason  string    `json:"failureReason,omitempty"`
	TimeCreated    time.Time `json:"timeCreated"`
	TimeUpdated    time.Time `json:"timeUpdated"`
}
