package controller

import "gitee.com/czyczk/confidential-airdrop/internal/fhevm"

// SessionInfo 是机密计算会话的状态
type SessionInfo struct {
	Status  fhevm.Status `json:"status"`
	ChainID string       `json:"chainId,omitempty"` // 引擎所绑定的网络
	Error   string       `json:"error,omitempty"`   // 状态为 error 时的失败原因
}

// WalletInfo 是钱包的连接状态
type WalletInfo struct {
	Connected     bool   `json:"connected"`
	Address       string `json:"address,omitempty"`
	ChainID       string `json:"chainId,omitempty"`
	TargetChainID string `json:"targetChainId"`
}

// OwnerInfo 包含合约所有者及当前账户是否为所有者
type OwnerInfo struct {
	Owner   string `json:"owner"`
	IsOwner bool   `json:"isOwner"`
}

// AirdropStatusInfo 表示某地址是否已收到空投
type AirdropStatusInfo struct {
	Address  string `json:"address"`
	Received bool   `json:"received"`
}

// BalanceInfo 包含解密后的余额
type BalanceInfo struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // 十进制明文
}
