package service

import (
	"context"
	"strings"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type OwnerService struct {
	ServiceInfo *Info
}

func (s *OwnerService) GetOwner(ctx context.Context) (common.Address, error) {
	owner, err := s.ServiceInfo.AirdropBCAO.GetOwner(ctx)
	if err != nil {
		return common.Address{}, errorcode.Classify(errorcode.ErrorOwnershipCheckFailed, err)
	}

	return owner, nil
}

func (s *OwnerService) IsOwner(ctx context.Context, addr common.Address) (bool, error) {
	owner, err := s.GetOwner(ctx)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(owner.Hex(), addr.Hex()), nil
}

func (s *OwnerService) TransferOwnership(ctx context.Context, newOwner string, wait bool) (*bcao.TransactionCreationInfo, error) {
	newOwner = strings.TrimSpace(newOwner)
	if !common.IsHexAddress(newOwner) {
		return nil, errors.Wrapf(errorcode.ErrorInvalidInput, "新所有者地址 '%v' 不合法", newOwner)
	}
	newOwnerAddr := common.HexToAddress(newOwner)
	if newOwnerAddr == (common.Address{}) {
		return nil, errors.Wrap(errorcode.ErrorInvalidInput, "新所有者不能为零地址")
	}

	caller := s.ServiceInfo.Wallet.Address()
	isOwner, err := s.IsOwner(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, errors.Wrapf(errorcode.ErrorForbidden, "账户 %v 不是合约所有者", caller.Hex())
	}

	info, err := s.ServiceInfo.AirdropBCAO.TransferOwnership(ctx, newOwnerAddr)
	if err != nil {
		return nil, err
	}
	log.Infof("所有权转移交易已提交: %v", info.TransactionID)

	if !wait {
		return info, nil
	}

	receipt, err := eventmgr.AwaitReceipt(ctx, s.ServiceInfo.EventManager, info.TransactionID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return info, errors.Wrapf(errorcode.ErrorGatewayTimeout, "等待交易 %v 确认超时", info.TransactionID)
		}
		return info, err
	}
	info.BlockID = receipt.BlockNumber.String()
	if receipt.Status != types.ReceiptStatusSuccessful {
		return info, errors.Wrapf(errorcode.ErrorTransactionFailed, "交易 %v 执行失败", info.TransactionID)
	}
	log.Infof("合约所有权已转移至 %v。", newOwnerAddr.Hex())

	return info, nil
}
