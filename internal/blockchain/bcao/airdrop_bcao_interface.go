package bcao

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// IAirdropBCAO 是机密空投合约的访问接口
type IAirdropBCAO interface {
	// 获取合约地址
	GetContractAddress() common.Address

	// 查询合约所有者
	GetOwner(ctx context.Context) (common.Address, error)

	// 转移合约所有权。只有当前所有者可以调用。
	TransferOwnership(ctx context.Context, newOwner common.Address) (*TransactionCreationInfo, error)

	// 查询地址是否已收到空投
	CheckAirdropStatus(ctx context.Context, addr common.Address) (bool, error)

	// 批量空投。三个列表按下标一一对应。只有当前所有者可以调用。
	BatchAirdrop(ctx context.Context, recipients []common.Address, handles [][32]byte, proofs [][]byte) (*TransactionCreationInfo, error)

	// 请求调用者的加密余额。余额句柄在交易回执的日志中。
	GetEncryptedBalance(ctx context.Context) (*TransactionCreationInfo, error)
}
