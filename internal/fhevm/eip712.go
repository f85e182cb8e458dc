package fhevm

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	// UserDecryptPrimaryType is the primary type of the user decryption authorization message.
	UserDecryptPrimaryType = "UserDecryptRequestVerification"

	eip712DomainName    = "Decryption"
	eip712DomainVersion = "1"
)

// NewUserDecryptTypedData builds the EIP-712 message that binds an ephemeral public key, the contracts in scope and
// the validity window. The user signs it to authorize the decryption exchange.
func NewUserDecryptTypedData(chainID *big.Int, verifyingContract common.Address, publicKey []byte, contracts []common.Address, startTimestamp int64, durationDays int) *apitypes.TypedData {
	contractsAsStrings := make([]interface{}, 0, len(contracts))
	for _, c := range contracts {
		contractsAsStrings = append(contractsAsStrings, c.Hex())
	}

	return &apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			UserDecryptPrimaryType: []apitypes.Type{
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
				{Name: "extraData", Type: "bytes"},
			},
		},
		PrimaryType: UserDecryptPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              eip712DomainName,
			Version:           eip712DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: verifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey":         hexutil.Encode(publicKey),
			"contractAddresses": contractsAsStrings,
			"startTimestamp":    strconv.FormatInt(startTimestamp, 10),
			"durationDays":      strconv.Itoa(durationDays),
			"extraData":         "0x00",
		},
	}
}
