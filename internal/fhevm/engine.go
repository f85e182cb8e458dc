package fhevm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// BitWidth is the declared width of an encrypted integer.
type BitWidth uint16

const (
	Uint64  BitWidth = 64
	Uint256 BitWidth = 256
)

// ParseBitWidth parses "64" or "256". Anything else is rejected.
func ParseBitWidth(s string) (BitWidth, error) {
	switch s {
	case "64", "":
		return Uint64, nil
	case "256":
		return Uint256, nil
	default:
		return 0, fmt.Errorf("不支持的位宽 '%v'，只能为 64 或 256", s)
	}
}

// Valid reports whether the width is one of the supported widths.
func (w BitWidth) Valid() bool {
	return w == Uint64 || w == Uint256
}

// Fits reports whether `v` is a non-negative integer representable in `w` bits.
func (w BitWidth) Fits(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}

	return v.BitLen() <= int(w)
}

// EncryptedValue is one plaintext integer encrypted for one (contract, user) pair. The handles are only meaningful
// together with `ContractAddress` and `UserAddress`.
type EncryptedValue struct {
	Handles         [][32]byte
	InputProof      []byte
	Width           BitWidth
	ContractAddress common.Address
	UserAddress     common.Address
}

// InputBuilder accumulates typed plaintext values for a (contract, user) pair and seals them in one call.
type InputBuilder interface {
	Add64(value *big.Int) error
	Add256(value *big.Int) error
	// Encrypt seals the accumulated values, producing one handle per value and a single proof blob.
	Encrypt(ctx context.Context) (*EncryptedValue, error)
}

// Keypair is an ephemeral key pair used to receive re-encrypted plaintexts. It lives in process memory only.
type Keypair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// HandleContractPair is one entry of a ciphertext handle set.
type HandleContractPair struct {
	Handle          string         `json:"handle"`
	ContractAddress common.Address `json:"contractAddress"`
}

// UserDecryptRequest carries everything the decryption exchange needs.
type UserDecryptRequest struct {
	Handles           []HandleContractPair
	Keypair           *Keypair
	Signature         []byte
	ContractAddresses []common.Address
	UserAddress       common.Address
	StartTimestamp    int64
	DurationDays      int
}

// Engine is the surface of the confidential compute SDK. Implementations are black boxes to the rest of the
// application.
type Engine interface {
	CreateEncryptedInput(contract common.Address, user common.Address) InputBuilder
	GenerateKeypair() (*Keypair, error)
	CreateEIP712(publicKey []byte, contracts []common.Address, startTimestamp int64, durationDays int) (*apitypes.TypedData, error)
	// UserDecrypt exchanges the handles for plaintexts. Keys of the returned map are the handles that could be
	// resolved; unresolved handles are absent.
	UserDecrypt(ctx context.Context, req *UserDecryptRequest) (map[string]*big.Int, error)
}

// EngineFactory performs the (possibly expensive) bring-up of an engine.
type EngineFactory func(ctx context.Context) (Engine, error)

// Provider is the chain provider the engine gets bound to. The engine is only brought up while `ChainID` equals
// `TargetChainID`.
type Provider interface {
	IsConnected() bool
	ChainID() *big.Int
	TargetChainID() *big.Int
}
