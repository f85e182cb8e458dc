package fhevm

import (
	"context"
	"math/big"
	"strconv"
	"sync"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/metrics"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Session lazily brings up a single engine bound to the provider's network and memoizes it.
//
// Lifecycle:
//   idle -> loading -> ready
//   idle -> loading -> error
//   any -> idle (Reset)
// There is no automatic retry. Callers re-invoke `Initialize` after an error. A bring-up that is still in flight when
// `Reset` is called is abandoned: its result is discarded and the session stays idle.
type Session struct {
	provider Provider
	factory  EngineFactory

	group singleflight.Group

	mu         sync.RWMutex
	status     Status
	instance   Engine
	chainID    *big.Int
	err        error
	generation uint64 // Reset 时递增
}

// NewSession creates an idle session. Nothing is brought up until `Initialize` is called.
func NewSession(provider Provider, factory EngineFactory) *Session {
	return &Session{
		provider: provider,
		factory:  factory,
		status:   StatusIdle,
	}
}

// Initialize brings the engine up or returns the cached one. Concurrent calls while loading share one bring-up. The
// bring-up itself does not depend on `ctx`: a caller whose `ctx` is done stops waiting and the others keep waiting.
func (s *Session) Initialize(ctx context.Context) (Engine, error) {
	if instance := s.Instance(); instance != nil {
		return instance, nil
	}

	if s.provider == nil || !s.provider.IsConnected() {
		return nil, errorcode.ErrorProviderUnavailable
	}
	if err := s.checkNetwork(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	bringUpCtx := context.WithoutCancel(ctx)
	chanResult := s.group.DoChan(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		return s.bringUp(bringUpCtx, generation)
	})

	select {
	case result := <-chanResult:
		if result.Shared {
			log.Tracef("机密计算引擎初始化请求与进行中的初始化合并")
		}
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(Engine), nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "停止等待机密计算引擎初始化")
	}
}

// checkNetwork makes sure the provider is on the target network.
func (s *Session) checkNetwork() error {
	current, target := s.provider.ChainID(), s.provider.TargetChainID()
	if current == nil || target == nil || current.Cmp(target) != 0 {
		return errors.Wrapf(errorcode.ErrorWrongNetwork, "当前网络 %v，目标网络 %v", current, target)
	}

	return nil
}

func (s *Session) bringUp(ctx context.Context, generation uint64) (Engine, error) {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return nil, errors.Wrap(errorcode.ErrorEngineNotReady, "会话已被重置")
	}
	if s.status == StatusReady {
		instance := s.instance
		s.mu.Unlock()
		return instance, nil
	}
	s.status = StatusLoading
	s.err = nil
	chainID := s.provider.ChainID()
	s.mu.Unlock()

	log.Infoln("正在初始化机密计算引擎...")
	start := time.Now()
	engine, err := s.factory(ctx)
	metrics.EngineInitSeconds.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		log.Warnln("初始化期间账户或网络发生变化，已丢弃本次初始化结果。")
		return nil, errors.Wrap(errorcode.ErrorEngineNotReady, "初始化期间会话被重置")
	}
	if err == nil && engine == nil {
		err = errorcode.ErrorNotImplemented
	}
	if err != nil {
		s.status = StatusError
		s.err = errorcode.Classify(errorcode.ErrorEngineInitializationFailed, err)
		log.Errorf("机密计算引擎初始化失败: %v", err)
		return nil, s.err
	}

	s.instance = engine
	s.chainID = chainID
	s.status = StatusReady
	log.Infof("机密计算引擎已就绪，绑定网络 %v。", s.chainID)
	return engine, nil
}

// Instance returns the cached engine or nil. It never blocks on a bring-up and never starts one.
func (s *Session) Instance() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status != StatusReady {
		return nil
	}

	return s.instance
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the error of the last failed bring-up, if the session is in the error state.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ChainID returns the chain the engine was bound to, or nil when not ready.
func (s *Session) ChainID() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.chainID == nil {
		return nil
	}

	return new(big.Int).Set(s.chainID)
}

// Reset drops the cached engine and returns to idle. A bring-up in flight is abandoned. It is used when the account
// or the network changes.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.status = StatusIdle
	s.instance = nil
	s.chainID = nil
	s.err = nil
}
