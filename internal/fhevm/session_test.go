package fhevm

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var sepolia = big.NewInt(11155111)

type fakeProvider struct {
	mu        sync.Mutex
	connected bool
	chainID   *big.Int
}

func (p *fakeProvider) IsConnected() bool { return p.connected }

func (p *fakeProvider) ChainID() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID
}

func (p *fakeProvider) TargetChainID() *big.Int { return sepolia }

func (p *fakeProvider) switchTo(chainID *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chainID = chainID
}

type nopEngine struct{}

func (nopEngine) CreateEncryptedInput(common.Address, common.Address) InputBuilder { return nil }
func (nopEngine) GenerateKeypair() (*Keypair, error)                            { return &Keypair{}, nil }
func (nopEngine) CreateEIP712([]byte, []common.Address, int64, int) (*apitypes.TypedData, error) {
	return nil, nil
}
func (nopEngine) UserDecrypt(context.Context, *UserDecryptRequest) (map[string]*big.Int, error) {
	return nil, nil
}

func TestInitializeWithoutProvider(t *testing.T) {
	s := NewSession(nil, func(ctx context.Context) (Engine, error) { return nopEngine{}, nil })
	_, err := s.Initialize(context.Background())
	assert.Equal(t, errorcode.ErrorProviderUnavailable, err)
	assert.Equal(t, StatusIdle, s.Status())

	s = NewSession(&fakeProvider{connected: false}, func(ctx context.Context) (Engine, error) { return nopEngine{}, nil })
	_, err = s.Initialize(context.Background())
	assert.Equal(t, errorcode.ErrorProviderUnavailable, err)
}

func TestInitializeIsSharedAndMemoized(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	factory := func(ctx context.Context) (Engine, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return nopEngine{}, nil
	}
	s := NewSession(&fakeProvider{connected: true, chainID: sepolia}, factory)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Initialize(context.Background())
		}(i)
	}

	// 等待加载开始
	assert.Eventually(t, func() bool { return s.Status() == StatusLoading }, time.Second, time.Millisecond)
	assert.Nil(t, s.Instance())
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, StatusReady, s.Status())
	assert.Equal(t, "11155111", s.ChainID().String())

	_, err := s.Initialize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInitializeFailureThenRetry(t *testing.T) {
	fail := true
	factory := func(ctx context.Context) (Engine, error) {
		if fail {
			return nil, fmt.Errorf("network key unavailable")
		}
		return nopEngine{}, nil
	}
	s := NewSession(&fakeProvider{connected: true, chainID: sepolia}, factory)

	_, err := s.Initialize(context.Background())
	assert.Equal(t, errorcode.ErrorEngineInitializationFailed, errors.Cause(err))
	assert.Equal(t, StatusError, s.Status())
	assert.Error(t, s.Err())
	assert.Nil(t, s.Instance())

	fail = false
	engine, err := s.Initialize(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, engine)
	assert.Equal(t, StatusReady, s.Status())
	assert.NoError(t, s.Err())
}

func TestReset(t *testing.T) {
	s := NewSession(&fakeProvider{connected: true, chainID: sepolia}, func(ctx context.Context) (Engine, error) { return nopEngine{}, nil })
	_, err := s.Initialize(context.Background())
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	s.Reset()
	assert.Equal(t, StatusIdle, s.Status())
	assert.Nil(t, s.Instance())
	assert.Nil(t, s.ChainID())
}

func TestBitWidth(t *testing.T) {
	w, err := ParseBitWidth("")
	assert.NoError(t, err)
	assert.Equal(t, Uint64, w)
	w, err = ParseBitWidth("256")
	assert.NoError(t, err)
	assert.Equal(t, Uint256, w)
	_, err = ParseBitWidth("32")
	assert.Error(t, err)

	maxUint64 := new(big.Int).SetUint64(^uint64(0))
	assert.True(t, Uint64.Fits(maxUint64))
	assert.False(t, Uint64.Fits(new(big.Int).Add(maxUint64, big.NewInt(1))))
	assert.True(t, Uint256.Fits(new(big.Int).Add(maxUint64, big.NewInt(1))))
	assert.False(t, Uint64.Fits(big.NewInt(-1)))
	assert.False(t, Uint64.Fits(nil))
}

func TestInitializeOnWrongNetwork(t *testing.T) {
	var calls int32
	provider := &fakeProvider{connected: true, chainID: big.NewInt(1)}
	s := NewSession(provider, func(ctx context.Context) (Engine, error) {
		atomic.AddInt32(&calls, 1)
		return nopEngine{}, nil
	})

	_, err := s.Initialize(context.Background())
	assert.Equal(t, errorcode.ErrorWrongNetwork, errors.Cause(err))
	assert.Equal(t, StatusIdle, s.Status())
	assert.Nil(t, s.ChainID())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	provider.switchTo(sepolia)
	_, err = s.Initialize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "11155111", s.ChainID().String())
}

func TestResetWhileLoadingAbandonsBringUp(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	provider := &fakeProvider{connected: true, chainID: sepolia}
	s := NewSession(provider, func(ctx context.Context) (Engine, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
		}
		return nopEngine{}, nil
	})

	chanErr := make(chan error, 1)
	go func() {
		_, err := s.Initialize(context.Background())
		chanErr <- err
	}()
	assert.Eventually(t, func() bool { return s.Status() == StatusLoading }, time.Second, time.Millisecond)

	// 网络切换，然后会话被重置
	provider.switchTo(big.NewInt(1))
	s.Reset()
	close(release)

	err := <-chanErr
	assert.Equal(t, errorcode.ErrorEngineNotReady, errors.Cause(err))
	assert.Equal(t, StatusIdle, s.Status())
	assert.Nil(t, s.Instance())
	assert.Nil(t, s.ChainID())

	// 切回目标网络后可以重新初始化
	provider.switchTo(sepolia)
	_, err = s.Initialize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StatusReady, s.Status())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCancelledWaiterDoesNotAbortBringUp(t *testing.T) {
	release := make(chan struct{})
	s := NewSession(&fakeProvider{connected: true, chainID: sepolia}, func(ctx context.Context) (Engine, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nopEngine{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	chanErr := make(chan error, 1)
	go func() {
		_, err := s.Initialize(ctx)
		chanErr <- err
	}()
	assert.Eventually(t, func() bool { return s.Status() == StatusLoading }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-chanErr, context.Canceled)

	chanEngine := make(chan Engine, 1)
	go func() {
		engine, _ := s.Initialize(context.Background())
		chanEngine <- engine
	}()
	close(release)

	select {
	case engine := <-chanEngine:
		assert.NotNil(t, engine)
	case <-time.After(2 * time.Second):
		t.Fatal("bring-up did not complete")
	}
	assert.Equal(t, StatusReady, s.Status())
}
