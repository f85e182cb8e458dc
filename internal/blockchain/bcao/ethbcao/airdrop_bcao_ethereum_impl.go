package ethbcao

import (
	"context"
	"fmt"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/chaincodectx"
	"github.com/ethereum/go-ethereum/common"
)

type AirdropBCAOEthereumImpl struct {
	ctx *chaincodectx.EthereumContractCtx
}

var _ bcao.IAirdropBCAO = (*AirdropBCAOEthereumImpl)(nil)

func NewAirdropBCAOEthereumImpl(ctx *chaincodectx.EthereumContractCtx) *AirdropBCAOEthereumImpl {
	return &AirdropBCAOEthereumImpl{
		ctx: ctx,
	}
}

func (o *AirdropBCAOEthereumImpl) GetContractAddress() common.Address {
	return o.ctx.ContractAddress
}

func (o *AirdropBCAOEthereumImpl) GetOwner(ctx context.Context) (common.Address, error) {
	funcName := "getOwner"

	out, err := sendQuery(ctx, o.ctx, funcName)
	if err != nil {
		return common.Address{}, err
	}

	owner, ok := firstOutput(out).(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("合约函数 '%v' 返回值类型不正确", funcName)
	}

	return owner, nil
}

func (o *AirdropBCAOEthereumImpl) TransferOwnership(ctx context.Context, newOwner common.Address) (*bcao.TransactionCreationInfo, error) {
	return sendTx(ctx, o.ctx, "transferOwnership", newOwner)
}

func (o *AirdropBCAOEthereumImpl) CheckAirdropStatus(ctx context.Context, addr common.Address) (bool, error) {
	funcName := "checkAirdropStatus"

	out, err := sendQuery(ctx, o.ctx, funcName, addr)
	if err != nil {
		return false, err
	}

	received, ok := firstOutput(out).(bool)
	if !ok {
		return false, fmt.Errorf("合约函数 '%v' 返回值类型不正确", funcName)
	}

	return received, nil
}

func (o *AirdropBCAOEthereumImpl) BatchAirdrop(ctx context.Context, recipients []common.Address, handles [][32]byte, proofs [][]byte) (*bcao.TransactionCreationInfo, error) {
	if len(recipients) != len(handles) || len(recipients) != len(proofs) {
		return nil, fmt.Errorf("接收者、密文句柄与输入证明的数量不一致 (%v, %v, %v)", len(recipients), len(handles), len(proofs))
	}

	return sendTx(ctx, o.ctx, "batchAirdrop", recipients, handles, proofs)
}

func (o *AirdropBCAOEthereumImpl) GetEncryptedBalance(ctx context.Context) (*bcao.TransactionCreationInfo, error) {
	return sendTx(ctx, o.ctx, "getEncryptedBalance")
}

func firstOutput(out []interface{}) interface{} {
	if len(out) == 0 {
		return nil
	}

	return out[0]
}
