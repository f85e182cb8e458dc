package service

import (
	"context"
	"math/big"
	"testing"

	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newRecipientService(env *testEnv) *RecipientService {
	return &RecipientService{
		ServiceInfo:       env.info,
		DecryptionService: &DecryptionService{ServiceInfo: env.info},
	}
}

func TestCheckAirdropStatus(t *testing.T) {
	env := newTestEnv(t, false)
	env.bcao.statuses[common.HexToAddress(recipientA)] = true
	s := newRecipientService(env)

	received, err := s.CheckAirdropStatus(context.Background(), recipientA)
	assert.NoError(t, err)
	assert.True(t, received)

	received, err = s.CheckAirdropStatus(context.Background(), recipientB)
	assert.NoError(t, err)
	assert.False(t, received)

	_, err = s.CheckAirdropStatus(context.Background(), "0xzz")
	assert.Equal(t, errorcode.ErrorInvalidInput, errors.Cause(err))
}

func TestDecryptBalance(t *testing.T) {
	env := newTestEnv(t, true)
	handle := handleHex(42)
	env.events.logs = []*types.Log{
		{Address: common.HexToAddress(recipientA), Topics: []common.Hash{common.HexToHash(handleHex(1))}},
		{Address: testContract, Topics: []common.Hash{common.HexToHash(handle)}},
	}
	env.engine.plaintexts[handle] = big.NewInt(500)
	s := newRecipientService(env)

	balance, err := s.DecryptBalance(context.Background())
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, "500", balance.String())
	assert.Equal(t, 1, env.bcao.balanceCalls)
	assert.Equal(t, 1, env.wallet.signCount())
}

func TestDecryptBalanceRequiresReadyEngine(t *testing.T) {
	env := newTestEnv(t, false)
	s := newRecipientService(env)

	_, err := s.DecryptBalance(context.Background())
	assert.Equal(t, errorcode.ErrorEngineNotReady, err)
	assert.Equal(t, 0, env.bcao.balanceCalls)
}

func TestDecryptBalanceWithoutEvent(t *testing.T) {
	env := newTestEnv(t, true)
	env.events.logs = []*types.Log{
		{Address: common.HexToAddress(recipientA), Topics: []common.Hash{common.HexToHash(handleHex(1))}},
	}
	s := newRecipientService(env)

	_, err := s.DecryptBalance(context.Background())
	assert.Equal(t, errorcode.ErrorHandleNotFound, errors.Cause(err))
	assert.Equal(t, 0, env.wallet.signCount())
}

func TestDecryptBalanceReverted(t *testing.T) {
	env := newTestEnv(t, true)
	env.events.status = types.ReceiptStatusFailed
	s := newRecipientService(env)

	_, err := s.DecryptBalance(context.Background())
	assert.Equal(t, errorcode.ErrorTransactionFailed, errors.Cause(err))
}
