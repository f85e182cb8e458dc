package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr"
	"gitee.com/czyczk/confidential-airdrop/internal/db"
	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/internal/metrics"
	"gitee.com/czyczk/confidential-airdrop/internal/utils/idutils"
	"gitee.com/czyczk/confidential-airdrop/internal/utils/timingutils"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultEncryptionConcurrency bounds the number of amounts being encrypted at the same time.
const DefaultEncryptionConcurrency = 4

type AirdropService struct {
	ServiceInfo           *Info
	EncryptionService     EncryptionServiceInterface
	OwnerService          OwnerServiceInterface // 非 nil 时只允许合约所有者提交
	EncryptionConcurrency int
}

// Submission is a batch airdrop whose transaction has been broadcast. Call `Wait` to learn its outcome.
type Submission struct {
	Record  *airdrop.SubmissionRecord
	service *AirdropService
}

func (s *AirdropService) BatchAirdrop(ctx context.Context, recipients []string, amounts []string) (*Submission, error) {
	recipients = cleanLines(recipients)
	amounts = cleanLines(amounts)

	if len(recipients) == 0 || len(amounts) == 0 {
		return nil, errors.Wrap(errorcode.ErrorInputMismatch, "接收者与数量列表不能为空")
	}
	if len(recipients) != len(amounts) {
		return nil, errors.Wrapf(errorcode.ErrorInputMismatch, "接收者个数 %v 与数量个数 %v 不一致", len(recipients), len(amounts))
	}

	recipientAddrs, values, err := parseBatch(recipients, amounts)
	if err != nil {
		return nil, err
	}

	if s.ServiceInfo.FHESession.Instance() == nil {
		return nil, errorcode.ErrorEngineNotReady
	}

	submitter := s.ServiceInfo.Wallet.Address()
	if s.OwnerService != nil {
		isOwner, err := s.OwnerService.IsOwner(ctx, submitter)
		if err != nil {
			return nil, err
		}
		if !isOwner {
			return nil, errors.Wrapf(errorcode.ErrorForbidden, "账户 %v 不是合约所有者", submitter.Hex())
		}
	}

	batch, err := s.encryptBatch(ctx, submitter, recipientAddrs, values)
	if err != nil {
		return nil, err
	}

	log.Infof("已加密 %v 个空投数量，正在提交交易...", batch.Len())
	stopTimer := timingutils.GetDeferrableTimingLogger("提交批量空投交易")
	info, err := s.ServiceInfo.AirdropBCAO.BatchAirdrop(ctx, batch.Recipients, batch.Handles, batch.Proofs)
	stopTimer()
	if err != nil {
		cause := errors.Cause(err)
		if cause == errorcode.ErrorForbidden || cause == errorcode.ErrorProviderUnavailable {
			return nil, err
		}
		return nil, errorcode.Classify(errorcode.ErrorTransactionFailed, err)
	}
	metrics.BatchSize.Observe(float64(batch.Len()))

	id, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	record := &airdrop.SubmissionRecord{
		ID:             id,
		TransactionID:  info.TransactionID,
		Submitter:      submitter.Hex(),
		ContractAddr:   s.ServiceInfo.AirdropBCAO.GetContractAddress().Hex(),
		RecipientCount: batch.Len(),
		Status:         airdrop.TxSubmitted,
		TimeCreated:    now,
		TimeUpdated:    now,
	}
	if s.ServiceInfo.DB != nil {
		if err := db.SaveSubmissionToLocalDB(record, s.ServiceInfo.DB); err != nil {
			log.Errorf("无法保存空投提交记录: %v", err)
		}
	}
	log.Infof("批量空投交易已提交: %v", record.TransactionID)

	return &Submission{Record: record, service: s}, nil
}

// encryptBatch encrypts every amount for (contract, submitter). The result lists keep the order of the input.
func (s *AirdropService) encryptBatch(ctx context.Context, submitter common.Address, recipients []common.Address, values []*big.Int) (*airdrop.EncryptedBatch, error) {
	defer timingutils.GetDeferrableTimingLogger(fmt.Sprintf("加密 %v 个空投数量", len(values)))()

	concurrency := s.EncryptionConcurrency
	if concurrency <= 0 {
		concurrency = DefaultEncryptionConcurrency
	}

	contract := s.ServiceInfo.AirdropBCAO.GetContractAddress()
	handles := make([][32]byte, len(values))
	proofs := make([][]byte, len(values))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range values {
		i := i
		g.Go(func() error {
			encrypted, err := s.EncryptionService.Encrypt(gctx, contract, submitter, values[i], fhevm.Uint64)
			if err != nil {
				return &errorcode.EncryptionFailedError{RecipientIndex: i, Recipient: recipients[i].Hex(), Err: err}
			}

			handles[i] = encrypted.Handles[0]
			proofs[i] = encrypted.InputProof
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &airdrop.EncryptedBatch{
		Recipients: recipients,
		Handles:    handles,
		Proofs:     proofs,
	}, nil
}

// Wait blocks until the transaction is mined or `ctx` is done, then records the outcome.
func (sub *Submission) Wait(ctx context.Context) (*airdrop.SubmissionRecord, error) {
	return sub.service.await(ctx, sub.Record)
}

func (s *AirdropService) AwaitSubmission(ctx context.Context, txID string) (*airdrop.SubmissionRecord, error) {
	record := &airdrop.SubmissionRecord{
		TransactionID: txID,
		ContractAddr:  s.ServiceInfo.AirdropBCAO.GetContractAddress().Hex(),
		Status:        airdrop.TxSubmitted,
	}
	if s.ServiceInfo.DB != nil {
		stored, err := db.GetSubmissionFromLocalDB(txID, s.ServiceInfo.DB)
		if err == nil {
			record = stored
		} else if errors.Cause(err) != errorcode.ErrorNotFound {
			return nil, err
		}
	}

	return s.await(ctx, record)
}

func (s *AirdropService) await(ctx context.Context, record *airdrop.SubmissionRecord) (*airdrop.SubmissionRecord, error) {
	if record.Status != airdrop.TxSubmitted {
		return record, nil
	}

	receipt, err := eventmgr.AwaitReceipt(ctx, s.ServiceInfo.EventManager, record.TransactionID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return record, errors.Wrapf(errorcode.ErrorGatewayTimeout, "等待交易 %v 确认超时", record.TransactionID)
		}
		return record, err
	}

	ret := *record
	ret.BlockNumber = receipt.BlockNumber.Uint64()
	ret.TimeUpdated = time.Now()
	if receipt.Status == types.ReceiptStatusSuccessful {
		ret.Status = airdrop.TxConfirmed
	} else {
		ret.Status = airdrop.TxFailed
		ret.FailureReason = "交易执行被回滚"
	}
	metrics.SubmissionsTotal.WithLabelValues(string(ret.Status)).Inc()

	if s.ServiceInfo.DB != nil && ret.ID != "" {
		if err := db.UpdateSubmissionStatusInLocalDB(ret.TransactionID, ret.Status, ret.BlockNumber, ret.FailureReason, s.ServiceInfo.DB); err != nil {
			log.Errorf("无法更新空投提交记录: %v", err)
		}
	}

	if ret.Status == airdrop.TxFailed {
		return &ret, errors.Wrapf(errorcode.ErrorTransactionFailed, "交易 %v 在区块 %v 中执行失败", ret.TransactionID, ret.BlockNumber)
	}
	log.Infof("批量空投交易 %v 已在区块 %v 中确认。", ret.TransactionID, ret.BlockNumber)

	return &ret, nil
}

func (s *AirdropService) ListSubmissions(limit int) ([]*airdrop.SubmissionRecord, error) {
	if s.ServiceInfo.DB == nil {
		return []*airdrop.SubmissionRecord{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	return db.ListSubmissionsFromLocalDB(limit, s.ServiceInfo.DB)
}

// cleanLines trims every entry and drops blank ones. An entry may itself hold several newline separated values.
func cleanLines(entries []string) []string {
	ret := make([]string, 0, len(entries))
	for _, entry := range entries {
		for _, line := range strings.Split(entry, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				ret = append(ret, line)
			}
		}
	}

	return ret
}

func parseBatch(recipients []string, amounts []string) ([]common.Address, []*big.Int, error) {
	recipientAddrs := make([]common.Address, 0, len(recipients))
	for i, r := range recipients {
		if !common.IsHexAddress(r) {
			return nil, nil, errors.Wrapf(errorcode.ErrorInvalidInput, "第 %v 个接收者地址 '%v' 不合法", i, r)
		}
		recipientAddrs = append(recipientAddrs, common.HexToAddress(r))
	}

	values := make([]*big.Int, 0, len(amounts))
	for i, a := range amounts {
		value, ok := new(big.Int).SetString(a, 10)
		if !ok || !fhevm.Uint64.Fits(value) {
			return nil, nil, errors.Wrapf(errorcode.ErrorInvalidInput, "第 %v 个数量 '%v' 不是 64 位以内的非负整数", i, a)
		}
		values = append(values, value)
	}

	return recipientAddrs, values, nil
}
