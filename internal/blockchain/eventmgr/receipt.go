package eventmgr

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"
)

// IReceiptEvent is an event that carries the receipt of a mined transaction.
type IReceiptEvent interface {
	IEvent
	GetReceipt() *types.Receipt
}

// AwaitReceipt registers the transaction hash as the event ID and waits until its receipt arrives or `ctx` is done.
// The registration is always released before returning.
func AwaitReceipt(ctx context.Context, m IEventManager, txHash string) (*types.Receipt, error) {
	reg, notifier, err := m.RegisterEvent(txHash)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := m.UnregisterEvent(reg); err != nil {
			log.Errorf("无法注销事件 '%v': %v", txHash, err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event, ok := <-notifier:
		if !ok {
			return nil, fmt.Errorf("事件 '%v' 的监听已结束", txHash)
		}

		receiptEvent, ok := event.(IReceiptEvent)
		if !ok {
			return nil, fmt.Errorf("事件 '%v' 不包含交易回执", txHash)
		}

		return receiptEvent.GetReceipt(), nil
	}
}
