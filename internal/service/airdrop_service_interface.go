package service

import (
	"context"

	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
)

// AirdropServiceInterface 定义了批量机密空投的服务的接口
type AirdropServiceInterface interface {
	// 加密所有数量并以一笔交易提交批量空投。交易发出后立即返回，不等待确认。
	//
	// 参数：
	//   接收者地址列表
	//   明文数量列表（十进制），与接收者按下标一一对应
	//
	// 返回：
	//   已提交的空投，可用于等待交易确认
	BatchAirdrop(ctx context.Context, recipients []string, amounts []string) (*Submission, error)

	// 等待指定交易确认。
	//
	// 参数：
	//   交易哈希
	//
	// 返回：
	//   更新后的提交记录
	AwaitSubmission(ctx context.Context, txID string) (*airdrop.SubmissionRecord, error)

	// 列出最近的提交记录。未配置数据库时返回空列表。
	//
	// 参数：
	//   最多返回的条数
	//
	// 返回：
	//   提交记录列表，按时间倒序
	ListSubmissions(limit int) ([]*airdrop.SubmissionRecord, error)
}
