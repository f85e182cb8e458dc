package bcao

// TransactionCreationInfo 包含交易成功创建时应该返回的信息
type TransactionCreationInfo struct {
	TransactionID string `json:"transactionId"`          // 交易哈希
	BlockID       string `json:"blockId,omitempty"`      // 区块号，交易确认后才有
	From          string `json:"from,omitempty"`         // 发送方地址
	Nonce         uint64 `json:"nonce"`                  // 发送方 nonce
	ContractAddr  string `json:"contractAddr,omitempty"` // 目标合约
}
