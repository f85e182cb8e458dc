package service

import (
	"context"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr"
	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"gorm.io/gorm"
)

// IWallet is the part of the connected wallet the services rely on.
type IWallet interface {
	IsConnected() bool
	Address() common.Address
	SignTypedData(ctx context.Context, typedData *apitypes.TypedData) ([]byte, error)
}

// Info needed for a service to know which contract it's serving and through which wallet and engine.
type Info struct {
	ContractAddress common.Address
	Wallet          IWallet
	FHESession      *fhevm.Session
	AirdropBCAO     bcao.IAirdropBCAO
	EventManager    eventmgr.IEventManager
	DB              *gorm.DB // 可为 nil，此时不保存提交记录
}
