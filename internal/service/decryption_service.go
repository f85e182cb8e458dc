package service

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/internal/metrics"
	"gitee.com/czyczk/confidential-airdrop/internal/utils/idutils"
	"gitee.com/czyczk/confidential-airdrop/internal/utils/timingutils"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultGrantDurationDays is the validity of a decryption grant when none is configured.
const DefaultGrantDurationDays = 7

// A cached grant is not reused within this margin of its expiry.
const grantExpiryMargin = time.Minute

type DecryptionService struct {
	ServiceInfo  *Info
	DurationDays int
	CacheGrants  bool
	Now          func() time.Time // 默认为 time.Now

	mu     sync.Mutex
	grants map[string]*fhevm.DecryptionGrant
}

func (s *DecryptionService) Decrypt(ctx context.Context, handles []fhevm.HandleContractPair, contracts []common.Address) (ret map[string]*big.Int, err error) {
	engine := s.ServiceInfo.FHESession.Instance()
	if engine == nil {
		return map[string]*big.Int{}, errorcode.ErrorEngineNotReady
	}

	if len(handles) == 0 {
		return map[string]*big.Int{}, nil
	}
	if len(contracts) == 0 {
		contracts = contractsOfHandles(handles)
	}

	defer timingutils.GetDeferrableTimingLogger("解密密文句柄")()
	defer func() {
		metrics.DecryptionsTotal.WithLabelValues(metrics.ResultLabel(err)).Inc()
	}()

	grant, err := s.obtainGrant(ctx, engine, s.ServiceInfo.Wallet.Address(), contracts)
	if err != nil {
		return map[string]*big.Int{}, err
	}

	results, err := engine.UserDecrypt(ctx, &fhevm.UserDecryptRequest{
		Handles:           handles,
		Keypair:           grant.Keypair,
		Signature:         grant.Signature,
		ContractAddresses: grant.ContractAddresses,
		UserAddress:       grant.UserAddress,
		StartTimestamp:    grant.StartTimestamp,
		DurationDays:      grant.DurationDays,
	})
	if err != nil {
		log.Debugf("授权 '%v' 的解密交换失败: %v", grant.ID, err)
		return map[string]*big.Int{}, errorcode.Classify(errorcode.ErrorDecryptionExchangeFailed, err)
	}

	// 只保留请求的句柄。句柄的比较不区分大小写。
	normalized := make(map[string]*big.Int, len(results))
	for handle, value := range results {
		normalized[strings.ToLower(handle)] = value
	}

	ret = make(map[string]*big.Int, len(handles))
	for _, pair := range handles {
		if value, ok := normalized[strings.ToLower(pair.Handle)]; ok {
			ret[pair.Handle] = value
		}
	}
	log.Debugf("授权 '%v' 解密了 %v/%v 个句柄。", grant.ID, len(ret), len(handles))

	return ret, nil
}

func (s *DecryptionService) DecryptOne(ctx context.Context, handle string, contract common.Address) (*big.Int, error) {
	results, err := s.Decrypt(ctx, []fhevm.HandleContractPair{{Handle: handle, ContractAddress: contract}}, []common.Address{contract})
	if err != nil {
		return nil, err
	}

	value, ok := results[handle]
	if !ok {
		return nil, errors.Wrapf(errorcode.ErrorHandleNotDecrypted, "句柄 '%v'", handle)
	}

	return value, nil
}

// obtainGrant returns a cached grant when caching is enabled and one is still usable. Otherwise it generates a fresh
// key pair and asks the wallet to sign a new authorization.
func (s *DecryptionService) obtainGrant(ctx context.Context, engine fhevm.Engine, user common.Address, contracts []common.Address) (*fhevm.DecryptionGrant, error) {
	now := s.now()
	cacheKey := user.Hex() + "|" + fhevm.ScopeKey(contracts)

	if s.CacheGrants {
		s.mu.Lock()
		grant, ok := s.grants[cacheKey]
		s.mu.Unlock()
		if ok && grant.ValidAt(now.Add(grantExpiryMargin)) {
			log.Debugf("复用解密授权 '%v'。", grant.ID)
			metrics.DecryptionGrantsReused.Inc()
			return grant, nil
		}
	}

	keypair, err := engine.GenerateKeypair()
	if err != nil {
		return nil, errorcode.Classify(errorcode.ErrorDecryptionExchangeFailed, err)
	}

	durationDays := s.DurationDays
	if durationDays <= 0 {
		durationDays = DefaultGrantDurationDays
	}
	startTimestamp := now.Unix()

	typedData, err := engine.CreateEIP712(keypair.PublicKey, contracts, startTimestamp, durationDays)
	if err != nil {
		return nil, errorcode.Classify(errorcode.ErrorDecryptionExchangeFailed, err)
	}

	// 等待用户签名
	signature, err := s.ServiceInfo.Wallet.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, errors.Wrap(err, "无法获得解密授权签名")
	}

	grant := &fhevm.DecryptionGrant{
		ID:                idutils.GenerateUUID(),
		UserAddress:       user,
		ContractAddresses: contracts,
		StartTimestamp:    startTimestamp,
		DurationDays:      durationDays,
		Keypair:           keypair,
		Signature:         signature,
	}
	log.Debugf("已创建解密授权 '%v'，有效期至 %v。", grant.ID, grant.ExpiresAt().Format(time.RFC3339))

	if s.CacheGrants {
		s.mu.Lock()
		if s.grants == nil {
			s.grants = make(map[string]*fhevm.DecryptionGrant)
		}
		s.grants[cacheKey] = grant
		s.mu.Unlock()
	}

	return grant, nil
}

// ForgetGrants drops every cached grant. It is used when the account or the network changes.
func (s *DecryptionService) ForgetGrants() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = nil
}

func (s *DecryptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

func contractsOfHandles(handles []fhevm.HandleContractPair) []common.Address {
	seen := make(map[common.Address]bool)
	ret := make([]common.Address, 0, 1)
	for _, pair := range handles {
		if !seen[pair.ContractAddress] {
			seen[pair.ContractAddress] = true
			ret = append(ret, pair.ContractAddress)
		}
	}

	return ret
}
