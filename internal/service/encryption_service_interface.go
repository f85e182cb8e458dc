package service

import (
	"context"
	"math/big"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"github.com/ethereum/go-ethereum/common"
)

// EncryptionServiceInterface 定义了将明文数值加密为链上可用的密文的服务的接口
type EncryptionServiceInterface interface {
	// 加密一个非负整数。密文只能在指定的合约与用户组合下使用。
	//
	// 参数：
	//   合约地址
	//   用户地址
	//   明文数值
	//   位宽（64 或 256）
	//
	// 返回：
	//   密文句柄与输入证明
	Encrypt(ctx context.Context, contract common.Address, user common.Address, value *big.Int, width fhevm.BitWidth) (*fhevm.EncryptedValue, error)
}
