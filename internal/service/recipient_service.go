package service

import (
	"context"
	"math/big"
	"strings"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type RecipientService struct {
	ServiceInfo       *Info
	DecryptionService DecryptionServiceInterface
}

func (s *RecipientService) CheckAirdropStatus(ctx context.Context, addr string) (bool, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return false, errors.Wrapf(errorcode.ErrorInvalidInput, "地址 '%v' 不合法", addr)
	}

	return s.ServiceInfo.AirdropBCAO.CheckAirdropStatus(ctx, common.HexToAddress(addr))
}

func (s *RecipientService) DecryptBalance(ctx context.Context) (*big.Int, error) {
	// 引擎未就绪时不发送交易
	if s.ServiceInfo.FHESession.Instance() == nil {
		return nil, errorcode.ErrorEngineNotReady
	}

	info, err := s.ServiceInfo.AirdropBCAO.GetEncryptedBalance(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := eventmgr.AwaitReceipt(ctx, s.ServiceInfo.EventManager, info.TransactionID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrapf(errorcode.ErrorGatewayTimeout, "等待交易 %v 确认超时", info.TransactionID)
		}
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, errors.Wrapf(errorcode.ErrorTransactionFailed, "交易 %v 执行失败", info.TransactionID)
	}

	contract := s.ServiceInfo.AirdropBCAO.GetContractAddress()
	handle, err := balanceHandleFromReceipt(receipt, contract)
	if err != nil {
		return nil, err
	}
	log.Debugf("余额密文句柄: %v", handle)

	return s.DecryptionService.DecryptOne(ctx, handle, contract)
}

// balanceHandleFromReceipt takes topic 0 of the first log the contract emitted. The balance event is anonymous, so
// its only indexed argument sits at topic 0.
func balanceHandleFromReceipt(receipt *types.Receipt, contract common.Address) (string, error) {
	for _, l := range receipt.Logs {
		if l.Address == contract && len(l.Topics) > 0 {
			return l.Topics[0].Hex(), nil
		}
	}

	return "", errors.Wrapf(errorcode.ErrorHandleNotFound, "交易 %v", receipt.TxHash.Hex())
}
