package ethereventmgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EthereumEventManager treats a transaction hash as the event ID. The event fires once, when the receipt of the
// transaction becomes available.
type EthereumEventManager struct {
	eventmgr.EventManagerBase
	ctx            *chaincodectx.EthereumContractCtx
	mapLock        sync.RWMutex
	updateInterval time.Duration
}

func NewEthereumEventManager(ctx *chaincodectx.EthereumContractCtx, updateInterval time.Duration) *EthereumEventManager {
	if updateInterval <= 0 {
		updateInterval = 2 * time.Second
	}

	return &EthereumEventManager{
		EventManagerBase: eventmgr.EventManagerBase{
			QuitChanMap: make(map[eventmgr.IEventRegistration]chan struct{}),
		},
		ctx:            ctx,
		mapLock:        sync.RWMutex{},
		updateInterval: updateInterval,
	}
}

func (m *EthereumEventManager) RegisterEvent(eventID string) (eventmgr.IEventRegistration, <-chan eventmgr.IEvent, error) {
	if !isTxHash(eventID) {
		return nil, nil, fmt.Errorf("'%v' 不是有效的交易哈希", eventID)
	}

	ethReg := &EthereumEventRegistration{
		txHash: common.HexToHash(eventID),
	}

	// 回执只投递一次，缓冲区保证投递不阻塞
	notifier := make(chan eventmgr.IEvent, 1)
	quitChan := make(chan struct{})
	pollCtx, cancel := context.WithCancel(context.Background())
	// Background task: poll for the receipt until it arrives or the registration is dropped.
	go func() {
		defer close(notifier)
		defer cancel()

		ticker := time.NewTicker(m.updateInterval)
		defer ticker.Stop()

		for {
			if delivered := m.tryDeliver(pollCtx, ethReg, notifier); delivered {
				<-quitChan
				return
			}

			select {
			case <-quitChan:
				return
			case <-ticker.C:
			}
		}
	}()
	go func() {
		<-quitChan
		cancel()
	}()

	// Record the registration. The quit handles are useful to stop the listening processes in the background.
	m.mapLock.Lock()
	defer m.mapLock.Unlock()

	m.QuitChanMap[ethReg] = quitChan

	return ethReg, notifier, nil
}

func (m *EthereumEventManager) tryDeliver(ctx context.Context, reg *EthereumEventRegistration, notifier chan<- eventmgr.IEvent) bool {
	backend := m.ctx.Backend()
	if backend == nil {
		log.Debugf("钱包未连接，暂不查询交易 '%v' 的回执。", reg.txHash.Hex())
		return false
	}

	receipt, err := backend.TransactionReceipt(ctx, reg.txHash)
	if err != nil {
		if !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			log.Debugf("无法获取交易 '%v' 的回执: %v", reg.txHash.Hex(), err)
		}
		return false
	}

	notifier <- &EthereumEvent{Receipt: receipt}
	return true
}

func (m *EthereumEventManager) UnregisterEvent(reg eventmgr.IEventRegistration) error {
	ethReg, ok := reg.(*EthereumEventRegistration)
	if !ok {
		return fmt.Errorf("事件注销失败: 注册信息不是由该事件管理器产生")
	}

	m.mapLock.Lock()
	defer m.mapLock.Unlock()

	quitChan, ok := m.QuitChanMap[ethReg]
	if !ok {
		return fmt.Errorf("事件注销失败: 未找到事件 '%v' 的注册信息", ethReg.GetEventID())
	}

	// Closing the quit chan stops the corresponding background process. The entry is not useful afterwards.
	close(quitChan)
	delete(m.QuitChanMap, ethReg)

	return nil
}

func isTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
