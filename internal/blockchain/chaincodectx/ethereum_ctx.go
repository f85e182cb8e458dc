package chaincodectx

import (
	"context"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Backend is what contract calls and receipt polling need from a provider. `*ethclient.Client` satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// IAccount is the account contract calls are made from.
type IAccount interface {
	Address() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

type EthereumContractCtx struct {
	ContractAddress common.Address
	ContractABI     abi.ABI
	Account         IAccount
	// GetBackend returns nil while the provider is not connected.
	GetBackend func() Backend
}

func (ctx *EthereumContractCtx) GetBCType() blockchain.BCType {
	return blockchain.Ethereum
}

// Backend returns the current backend or nil.
func (ctx *EthereumContractCtx) Backend() Backend {
	if ctx.GetBackend == nil {
		return nil
	}

	return ctx.GetBackend()
}
