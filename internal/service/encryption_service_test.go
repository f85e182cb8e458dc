package service

import (
	"context"
	"math/big"
	"testing"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestEncryptRequiresReadyEngine(t *testing.T) {
	env := newTestEnv(t, false)
	s := &EncryptionService{ServiceInfo: env.info}

	_, err := s.Encrypt(context.Background(), testContract, testOwner, big.NewInt(1), fhevm.Uint64)
	assert.Equal(t, errorcode.ErrorEngineNotReady, err)
	assert.Equal(t, 0, env.engine.inputCount())
}

func TestEncryptRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, true)
	s := &EncryptionService{ServiceInfo: env.info}

	_, err := s.Encrypt(context.Background(), testContract, testOwner, new(big.Int).Lsh(big.NewInt(1), 64), fhevm.Uint64)
	assert.Equal(t, errorcode.ErrorInvalidInput, errors.Cause(err))

	_, err = s.Encrypt(context.Background(), testContract, testOwner, big.NewInt(-5), fhevm.Uint64)
	assert.Equal(t, errorcode.ErrorInvalidInput, errors.Cause(err))

	_, err = s.Encrypt(context.Background(), testContract, testOwner, big.NewInt(5), fhevm.BitWidth(32))
	assert.Equal(t, errorcode.ErrorInvalidInput, errors.Cause(err))

	assert.Equal(t, 0, env.engine.inputCount())
}

func TestEncrypt(t *testing.T) {
	env := newTestEnv(t, true)
	s := &EncryptionService{ServiceInfo: env.info}

	encrypted, err := s.Encrypt(context.Background(), testContract, testOwner, big.NewInt(100), fhevm.Uint64)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Len(t, encrypted.Handles, 1)
	assert.Equal(t, uint64(100), handleValue(encrypted.Handles[0]))
	assert.Equal(t, testContract, encrypted.ContractAddress)
	assert.Equal(t, testOwner, encrypted.UserAddress)

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	encrypted, err = s.Encrypt(context.Background(), testContract, testOwner, maxUint256, fhevm.Uint256)
	assert.NoError(t, err)
	assert.Equal(t, fhevm.Uint256, encrypted.Width)
}

func TestEncryptSealFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.engine.failValues["7"] = true
	s := &EncryptionService{ServiceInfo: env.info}

	encrypted, err := s.Encrypt(context.Background(), testContract, testOwner, big.NewInt(7), fhevm.Uint64)
	assert.Nil(t, encrypted)
	assert.Equal(t, errorcode.ErrorEncryptionFailed, errors.Cause(err))
	assert.Contains(t, err.Error(), "relayer unavailable")
}
