package airdrop

import "github.com/ethereum/go-ethereum/common"

// BatchAirdropRequest 表示一次批量空投的输入。接收者与数量按下标一一对应。
type BatchAirdropRequest struct {
	Recipients []string `json:"recipients"` // 接收者地址（十六进制）
	Amounts    []string `json:"amounts"`    // 明文数量（十进制非负整数）
}

// EncryptedBatch 表示已加密、可直接提交给合约的一批空投参数。三个列表的顺序与输入的接收者顺序一致。
type EncryptedBatch struct {
	Recipients []common.Address `json:"recipients"`  // 接收者地址
	Handles    [][32]byte       `json:"handles"`     // 每个数量对应的密文句柄
	Proofs     [][]byte         `json:"inputProofs"` // 每个数量对应的输入证明
}

// Len returns the number of entries in the batch.
func (b *EncryptedBatch) Len() int {
	return len(b.Recipients)
}
