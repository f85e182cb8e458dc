package service

import (
	"context"
	"fmt"
	"math/big"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/internal/metrics"
	"gitee.com/czyczk/confidential-airdrop/internal/utils/timingutils"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

type EncryptionService struct {
	ServiceInfo *Info
}

func (s *EncryptionService) Encrypt(ctx context.Context, contract common.Address, user common.Address, value *big.Int, width fhevm.BitWidth) (ret *fhevm.EncryptedValue, err error) {
	engine := s.ServiceInfo.FHESession.Instance()
	if engine == nil {
		return nil, errorcode.ErrorEngineNotReady
	}

	if !width.Valid() {
		return nil, errors.Wrapf(errorcode.ErrorInvalidInput, "不支持的位宽 %v", width)
	}
	if !width.Fits(value) {
		return nil, errors.Wrapf(errorcode.ErrorInvalidInput, "值 '%v' 不是 %v 位以内的非负整数", value, width)
	}

	defer timingutils.GetDeferrableTimingLogger(fmt.Sprintf("加密 %v 位数值", width))()
	defer func() {
		metrics.EncryptionsTotal.WithLabelValues(metrics.ResultLabel(err)).Inc()
	}()

	builder := engine.CreateEncryptedInput(contract, user)
	switch width {
	case fhevm.Uint64:
		err = builder.Add64(value)
	case fhevm.Uint256:
		err = builder.Add256(value)
	}
	if err != nil {
		return nil, errorcode.Classify(errorcode.ErrorEncryptionFailed, err)
	}

	encrypted, err := builder.Encrypt(ctx)
	if err != nil {
		return nil, errorcode.Classify(errorcode.ErrorEncryptionFailed, err)
	}
	if len(encrypted.Handles) == 0 {
		err = errorcode.Classify(errorcode.ErrorEncryptionFailed, fmt.Errorf("未返回密文句柄"))
		return nil, err
	}

	return encrypted, nil
}
