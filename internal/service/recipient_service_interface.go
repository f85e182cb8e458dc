package service

import (
	"context"
	"math/big"
)

// RecipientServiceInterface 定义了空投接收者所用的服务的接口
type RecipientServiceInterface interface {
	// 查询地址是否已收到空投。
	//
	// 参数：
	//   接收者地址
	//
	// 返回：
	//   是否已收到
	CheckAirdropStatus(ctx context.Context, addr string) (bool, error)

	// 请求并解密当前账户的余额。会发送一笔交易并等待其确认，然后需要当前账户对解密授权签名。
	//
	// 返回：
	//   明文余额
	DecryptBalance(ctx context.Context) (*big.Int, error)
}
