package service

import (
	"context"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"github.com/ethereum/go-ethereum/common"
)

// OwnerServiceInterface 定义了有关于合约所有权的服务的接口
type OwnerServiceInterface interface {
	// 获取合约所有者。
	//
	// 返回：
	//   合约所有者地址
	GetOwner(ctx context.Context) (common.Address, error)

	// 判断地址是否为合约所有者（不区分大小写）。
	//
	// 参数：
	//   待判断的地址
	//
	// 返回：
	//   是否为所有者
	IsOwner(ctx context.Context, addr common.Address) (bool, error)

	// 将合约所有权转移给新地址。只有当前所有者可以调用。
	//
	// 参数：
	//   新所有者地址
	//   是否等待交易确认
	//
	// 返回：
	//   交易信息
	TransferOwnership(ctx context.Context, newOwner string, wait bool) (*bcao.TransactionCreationInfo, error)
}
