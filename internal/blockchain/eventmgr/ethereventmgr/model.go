package ethereventmgr

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type EthereumEventRegistration struct {
	txHash common.Hash
}

func (r *EthereumEventRegistration) GetEventID() string {
	return r.txHash.Hex()
}

// EthereumEvent wraps the receipt of a mined transaction.
type EthereumEvent struct {
	Receipt *types.Receipt
}

func (e *EthereumEvent) GetEventName() string {
	return e.Receipt.TxHash.Hex()
}

func (e *EthereumEvent) GetPayload() []byte {
	payload, err := json.Marshal(e.Receipt)
	if err != nil {
		return nil
	}

	return payload
}

func (e *EthereumEvent) GetBlockNumber() uint64 {
	if e.Receipt.BlockNumber == nil {
		return 0
	}

	return e.Receipt.BlockNumber.Uint64()
}

func (e *EthereumEvent) GetTxID() string {
	return e.Receipt.TxHash.Hex()
}

func (e *EthereumEvent) GetReceipt() *types.Receipt {
	return e.Receipt
}
