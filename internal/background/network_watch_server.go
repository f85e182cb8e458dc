package background

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// IWalletWatcher is the part of the wallet session the network watch server relies on.
type IWalletWatcher interface {
	Address() common.Address
	ChainID() *big.Int
	Subscribe(handler wallet.Handler) (unsubscribe func())
	Watch(ctx context.Context, interval time.Duration)
}

// IResettable is a component holding state bound to the current account or network.
type IResettable interface {
	Reset()
}

// ResetFunc adapts a plain function to `IResettable`.
type ResetFunc func()

func (f ResetFunc) Reset() { f() }

// NetworkWatchServer watches the wallet for account and network changes and drops everything bound to the previous
// account or network (the engine instance and the cached decryption grants).
type NetworkWatchServer struct {
	Wallet       IWalletWatcher
	Resettables  []IResettable
	PollInterval time.Duration
	wg           sync.WaitGroup
	chanEvent    chan wallet.Event
	cancel       context.CancelFunc
	unsubscribe  func()
	serverStatus *backgroundServerStatus
}

func NewNetworkWatchServer(w IWalletWatcher, pollInterval time.Duration, resettables ...IResettable) *NetworkWatchServer {
	if pollInterval <= 0 {
		pollInterval = 4 * time.Second
	}

	return &NetworkWatchServer{
		Wallet:       w,
		Resettables:  resettables,
		PollInterval: pollInterval,
		wg:           sync.WaitGroup{},
		chanEvent:    make(chan wallet.Event, 16),
		serverStatus: newBackgroundServerStatus(),
	}
}

// Start subscribes to wallet events and starts polling the provider's network.
func (s *NetworkWatchServer) Start() error {
	log.Infoln("正在启动网络监视服务器...")

	if !s.serverStatus.transit(stateStopped, stateStarting) {
		switch s.serverStatus.get() {
		case stateStarting:
			return fmt.Errorf("网络监视服务器正在启动")
		case stateStopping:
			return fmt.Errorf("网络监视服务器正在停止")
		default:
			return fmt.Errorf("网络监视服务器已启动")
		}
	}

	account, chain := s.Wallet.Address(), chainString(s.Wallet.ChainID())
	s.unsubscribe = s.Wallet.Subscribe(func(e wallet.Event) {
		select {
		case s.chanEvent <- e:
		default:
			log.Warnf("网络监视服务器事件队列已满，丢弃事件 '%v'。", e.Kind)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.Wallet.Watch(ctx, s.PollInterval)
	}()
	go s.createNetworkWatchWorker(ctx, account, chain)

	s.serverStatus.transit(stateStarting, stateStarted)
	log.Infoln("网络监视服务器已启动。")

	return nil
}

// createNetworkWatchWorker compares every event with the last known account and network. Only an actual change
// triggers a reset.
func (s *NetworkWatchServer) createNetworkWatchWorker(ctx context.Context, lastAccount common.Address, lastChain string) {
	defer s.wg.Done()
	log.Debugf("网络监视工作单元已创建。")

	for {
		select {
		case e := <-s.chanEvent:
			var changed bool
			switch e.Kind {
			case wallet.AccountChanged:
				changed = lastAccount != e.Account
				lastAccount = e.Account
			case wallet.ChainChanged:
				chain := chainString(e.ChainID)
				changed = lastChain != chain
				lastChain = chain
			}

			if changed {
				log.Infof("检测到%v，正在重置机密计算会话与解密授权...", describeEvent(e.Kind))
				for _, r := range s.Resettables {
					r.Reset()
				}
			}
		case <-ctx.Done():
			log.Debug("网络监视工作单元收到退出信号。")
			return
		}
	}
}

func chainString(chainID *big.Int) string {
	if chainID == nil {
		return ""
	}

	return chainID.String()
}

func describeEvent(kind wallet.EventKind) string {
	if kind == wallet.AccountChanged {
		return "账户变更"
	}

	return "网络切换"
}

// Stop stops the server.
//
// Returns:
//   a wait group that can be used to block the caller Go routine
func (s *NetworkWatchServer) Stop() (*sync.WaitGroup, error) {
	if !s.serverStatus.transit(stateStarted, stateStopping) {
		if s.serverStatus.get() == stateStopping {
			return nil, fmt.Errorf("网络监视服务器正在停止")
		}
		return nil, fmt.Errorf("网络监视服务器未在运行")
	}

	s.unsubscribe()
	s.cancel()

	s.serverStatus.transit(stateStopping, stateStopped)

	return &s.wg, nil
}
