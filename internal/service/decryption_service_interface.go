package service

import (
	"context"
	"math/big"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"github.com/ethereum/go-ethereum/common"
)

// DecryptionServiceInterface 定义了经用户授权将密文句柄兑换为明文的服务的接口
type DecryptionServiceInterface interface {
	// 解密一组密文句柄。需要当前账户对解密授权签名。
	//
	// 参数：
	//   密文句柄与所属合约的列表
	//   授权范围内的合约地址列表（为空时取句柄所属的合约）
	//
	// 返回：
	//   句柄到明文的映射。未能解密的句柄不在映射中。
	Decrypt(ctx context.Context, handles []fhevm.HandleContractPair, contracts []common.Address) (map[string]*big.Int, error)

	// 解密单个密文句柄。
	//
	// 参数：
	//   密文句柄
	//   句柄所属的合约地址
	//
	// 返回：
	//   明文
	DecryptOne(ctx context.Context, handle string, contract common.Address) (*big.Int, error)
}
