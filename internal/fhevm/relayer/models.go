package relayer

// Envelope is the shape of every relayer response.
//
//   {
//     "status": "succeeded" | "failed",
//     "response": ...,
//     "message": "error message when failed"
//   }
type Envelope struct {
	Status   string      `json:"status"`
	Response interface{} `json:"response"`
	Message  string      `json:"message,omitempty"`
}

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// KeyInfo describes the network public key material the relayer serves.
type KeyInfo struct {
	FHEPublicKey KeyMaterial `mapstructure:"fhePublicKey" json:"fhePublicKey"`
	CRS          KeyMaterial `mapstructure:"crs" json:"crs"`
}

// KeyMaterial points to a downloadable key blob.
type KeyMaterial struct {
	DataID string   `mapstructure:"dataId" json:"dataId"`
	URLs   []string `mapstructure:"urls" json:"urls"`
}

// TypedCiphertext is one value of an input proof request, sealed to the network public key.
type TypedCiphertext struct {
	Bits       int    `json:"bits"`
	Ciphertext string `json:"ciphertext"` // 0x 开头的十六进制
}

// InputProofRequest asks the relayer to verify client-side ciphertexts for a (contract, user) pair and to register
// them as handles. It never carries plaintexts.
type InputProofRequest struct {
	ContractAddress string            `json:"contractAddress"`
	UserAddress     string            `json:"userAddress"`
	ContractChainID string            `json:"contractChainId"` // 0x 开头的十六进制
	PublicKeyID     string            `json:"publicKeyId"`
	Ciphertexts     []TypedCiphertext `json:"ciphertexts"`
	ExtraData       string            `json:"extraData"`
}

// InputProofResult is the sealed form of an input proof request.
type InputProofResult struct {
	Handles    []string `mapstructure:"handles" json:"handles"`       // 0x 开头的 32 字节十六进制
	InputProof string   `mapstructure:"inputProof" json:"inputProof"` // 0x 开头的十六进制
}

// HandleContractPair is the wire form of a handle and the contract it belongs to.
type HandleContractPair struct {
	Handle          string `json:"handle"`
	ContractAddress string `json:"contractAddress"`
}

// RequestValidity is the wire form of a grant's validity window.
type RequestValidity struct {
	StartTimestamp string `json:"startTimestamp"`
	DurationDays   string `json:"durationDays"`
}

// UserDecryptRequest is the wire form of a decryption exchange.
type UserDecryptRequest struct {
	HandleContractPairs []HandleContractPair `json:"handleContractPairs"`
	RequestValidity     RequestValidity      `json:"requestValidity"`
	ContractsChainID    string               `json:"contractsChainId"`
	ContractAddresses   []string             `json:"contractAddresses"`
	UserAddress         string               `json:"userAddress"`
	Signature           string               `json:"signature"` // 不带 0x 前缀
	PublicKey           string               `json:"publicKey"` // 不带 0x 前缀
	ExtraData           string               `json:"extraData"`
}

// UserDecryptResult maps each resolved handle to its plaintext sealed to the ephemeral public key.
type UserDecryptResult struct {
	Payloads map[string]string `mapstructure:"payloads" json:"payloads"` // handle -> 0x 开头的密封明文
}
