package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr"
	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testOwner    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testChainID  = big.NewInt(11155111)
)

type fakeProvider struct{}

func (fakeProvider) IsConnected() bool        { return true }
func (fakeProvider) ChainID() *big.Int       { return testChainID }
func (fakeProvider) TargetChainID() *big.Int { return testChainID }

// fakeEngine encodes the plaintext in the handle: the last 8 bytes of a handle hold the value. The first byte holds
// the index of the encryption call.
type fakeEngine struct {
	mu          sync.Mutex
	inputs      int
	keypairs    int
	decrypts    int
	failValues  map[string]bool          // 加密这些值时失败
	delays      map[string]time.Duration // 加密这些值时的延迟
	plaintexts  map[string]*big.Int      // 解密结果
	decryptErr  error
	lastRequest *fhevm.UserDecryptRequest
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		failValues: map[string]bool{},
		delays:     map[string]time.Duration{},
		plaintexts: map[string]*big.Int{},
	}
}

func (e *fakeEngine) CreateEncryptedInput(contract common.Address, user common.Address) fhevm.InputBuilder {
	e.mu.Lock()
	e.inputs++
	e.mu.Unlock()

	return &fakeBuilder{engine: e, contract: contract, user: user}
}

func (e *fakeEngine) GenerateKeypair() (*fhevm.Keypair, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keypairs++

	return &fhevm.Keypair{PublicKey: []byte{byte(e.keypairs)}, PrivateKey: []byte{byte(e.keypairs)}}, nil
}

func (e *fakeEngine) CreateEIP712(publicKey []byte, contracts []common.Address, startTimestamp int64, durationDays int) (*apitypes.TypedData, error) {
	return fhevm.NewUserDecryptTypedData(testChainID, testContract, publicKey, contracts, startTimestamp, durationDays), nil
}

func (e *fakeEngine) UserDecrypt(ctx context.Context, req *fhevm.UserDecryptRequest) (map[string]*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decrypts++
	e.lastRequest = req

	if e.decryptErr != nil {
		return nil, e.decryptErr
	}

	ret := map[string]*big.Int{}
	for _, pair := range req.Handles {
		if v, ok := e.plaintexts[pair.Handle]; ok {
			ret[pair.Handle] = v
		}
	}

	return ret, nil
}

func (e *fakeEngine) inputCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs
}

type fakeBuilder struct {
	engine   *fakeEngine
	contract common.Address
	user     common.Address
	values   []*big.Int
	width    fhevm.BitWidth
}

func (b *fakeBuilder) Add64(value *big.Int) error {
	b.values = append(b.values, value)
	b.width = fhevm.Uint64
	return nil
}

func (b *fakeBuilder) Add256(value *big.Int) error {
	b.values = append(b.values, value)
	b.width = fhevm.Uint256
	return nil
}

func (b *fakeBuilder) Encrypt(ctx context.Context) (*fhevm.EncryptedValue, error) {
	ret := &fhevm.EncryptedValue{Width: b.width, ContractAddress: b.contract, UserAddress: b.user}
	for _, v := range b.values {
		if d := b.engine.delays[v.String()]; d > 0 {
			time.Sleep(d)
		}
		if b.engine.failValues[v.String()] {
			return nil, fmt.Errorf("relayer unavailable")
		}

		var handle [32]byte
		v.FillBytes(handle[24:])
		ret.Handles = append(ret.Handles, handle)
		ret.InputProof = append(ret.InputProof, handle[24:]...)
	}

	return ret, nil
}

func handleValue(handle [32]byte) uint64 {
	return new(big.Int).SetBytes(handle[24:]).Uint64()
}

type fakeWallet struct {
	mu      sync.Mutex
	address common.Address
	reject  bool
	signs   int
}

func (w *fakeWallet) IsConnected() bool       { return true }
func (w *fakeWallet) Address() common.Address { return w.address }

func (w *fakeWallet) SignTypedData(ctx context.Context, typedData *apitypes.TypedData) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.reject {
		return nil, errorcode.ErrorUserRejectedSignature
	}
	w.signs++

	return []byte{0x01, byte(w.signs)}, nil
}

func (w *fakeWallet) signCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signs
}

type batchCall struct {
	recipients []common.Address
	handles    [][32]byte
	proofs     [][]byte
}

type fakeBCAO struct {
	owner        common.Address
	ownerErr     error
	statuses     map[common.Address]bool
	batchCalls   []batchCall
	transfers    []common.Address
	balanceCalls int
	txCounter    int
}

func (o *fakeBCAO) nextTx() *bcao.TransactionCreationInfo {
	o.txCounter++
	return &bcao.TransactionCreationInfo{TransactionID: common.BigToHash(big.NewInt(int64(o.txCounter))).Hex()}
}

func (o *fakeBCAO) GetContractAddress() common.Address { return testContract }

func (o *fakeBCAO) GetOwner(ctx context.Context) (common.Address, error) {
	return o.owner, o.ownerErr
}

func (o *fakeBCAO) TransferOwnership(ctx context.Context, newOwner common.Address) (*bcao.TransactionCreationInfo, error) {
	o.transfers = append(o.transfers, newOwner)
	return o.nextTx(), nil
}

func (o *fakeBCAO) CheckAirdropStatus(ctx context.Context, addr common.Address) (bool, error) {
	return o.statuses[addr], nil
}

func (o *fakeBCAO) BatchAirdrop(ctx context.Context, recipients []common.Address, handles [][32]byte, proofs [][]byte) (*bcao.TransactionCreationInfo, error) {
	o.batchCalls = append(o.batchCalls, batchCall{recipients: recipients, handles: handles, proofs: proofs})
	return o.nextTx(), nil
}

func (o *fakeBCAO) GetEncryptedBalance(ctx context.Context) (*bcao.TransactionCreationInfo, error) {
	o.balanceCalls++
	return o.nextTx(), nil
}

type fakeRegistration struct{ eventID string }

func (r *fakeRegistration) GetEventID() string { return r.eventID }

type fakeReceiptEvent struct{ receipt *types.Receipt }

func (e *fakeReceiptEvent) GetEventName() string       { return e.receipt.TxHash.Hex() }
func (e *fakeReceiptEvent) GetPayload() []byte         { return nil }
func (e *fakeReceiptEvent) GetBlockNumber() uint64     { return e.receipt.BlockNumber.Uint64() }
func (e *fakeReceiptEvent) GetTxID() string            { return e.receipt.TxHash.Hex() }
func (e *fakeReceiptEvent) GetReceipt() *types.Receipt { return e.receipt }

// fakeEventManager delivers a receipt for every transaction. `status` decides whether it succeeded and `logs` are
// attached to it. Transactions in `pending` never get a receipt.
type fakeEventManager struct {
	status  uint64
	logs    []*types.Log
	pending map[string]bool
}

func (m *fakeEventManager) RegisterEvent(eventID string) (eventmgr.IEventRegistration, <-chan eventmgr.IEvent, error) {
	notifier := make(chan eventmgr.IEvent, 1)
	if !m.pending[eventID] {
		notifier <- &fakeReceiptEvent{receipt: &types.Receipt{
			TxHash:      common.HexToHash(eventID),
			Status:      m.status,
			BlockNumber: big.NewInt(100),
			Logs:        m.logs,
		}}
	}

	return &fakeRegistration{eventID: eventID}, notifier, nil
}

func (m *fakeEventManager) UnregisterEvent(reg eventmgr.IEventRegistration) error {
	return nil
}

type testEnv struct {
	engine  *fakeEngine
	wallet  *fakeWallet
	bcao    *fakeBCAO
	events  *fakeEventManager
	info    *Info
	session *fhevm.Session
}

// newTestEnv creates services' dependencies. The engine session is brought up when `ready` is true.
func newTestEnv(t *testing.T, ready bool) *testEnv {
	engine := newFakeEngine()
	session := fhevm.NewSession(fakeProvider{}, func(ctx context.Context) (fhevm.Engine, error) { return engine, nil })
	if ready {
		_, err := session.Initialize(context.Background())
		if isNoError := assert.NoError(t, err); !isNoError {
			t.FailNow()
		}
	}

	env := &testEnv{
		engine:  engine,
		wallet:  &fakeWallet{address: testOwner},
		bcao:    &fakeBCAO{owner: testOwner, statuses: map[common.Address]bool{}},
		events:  &fakeEventManager{status: types.ReceiptStatusSuccessful, pending: map[string]bool{}},
		session: session,
	}
	env.info = &Info{
		ContractAddress: testContract,
		Wallet:          env.wallet,
		FHESession:      session,
		AirdropBCAO:     env.bcao,
		EventManager:    env.events,
	}

	return env
}

func handleHex(value uint64) string {
	var handle [32]byte
	new(big.Int).SetUint64(value).FillBytes(handle[24:])
	return hexutil.Encode(handle[:])
}
