package controller

import (
	"context"
	"math/big"
	"net/http"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// IEngineSession is the part of the confidential compute session the controllers rely on.
type IEngineSession interface {
	Initialize(ctx context.Context) (fhevm.Engine, error)
	Status() fhevm.Status
	Err() error
	ChainID() *big.Int
}

// IWalletStatus is the part of the wallet session the controllers rely on.
type IWalletStatus interface {
	IsConnected() bool
	Address() common.Address
	ChainID() *big.Int
	TargetChainID() *big.Int
}

// A SessionController contains a group name and the confidential compute session. It also implements the interface `Controller`.
type SessionController struct {
	GroupName  string
	FHESession IEngineSession
}

// GetGroupName returns the group name.
func (sc *SessionController) GetGroupName() string {
	return sc.GroupName
}

// GetEndpointMap implements the interface `Controller` and returns the API endpoints and handlers defined and managed by SessionController.
func (sc *SessionController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "GET"}:       []gin.HandlerFunc{sc.handleGetSession},
		urlMethodPair{"/init", "POST"}: []gin.HandlerFunc{sc.handleInitSession},
	}
}

func (sc *SessionController) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sc.sessionInfo())
}

func (sc *SessionController) handleInitSession(c *gin.Context) {
	// 引擎初始化可能较慢，客户端断开后不再等待
	if _, err := sc.FHESession.Initialize(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sc.sessionInfo())
}

func (sc *SessionController) sessionInfo() *SessionInfo {
	info := &SessionInfo{Status: sc.FHESession.Status()}
	if chainID := sc.FHESession.ChainID(); chainID != nil {
		info.ChainID = chainID.String()
	}
	if err := sc.FHESession.Err(); err != nil {
		info.Error = err.Error()
	}

	return info
}

// A WalletController reports the state of the wallet session. It also implements the interface `Controller`.
type WalletController struct {
	GroupName string
	Wallet    IWalletStatus
}

// GetGroupName returns the group name.
func (wc *WalletController) GetGroupName() string {
	return wc.GroupName
}

// GetEndpointMap implements the interface `Controller` and returns the API endpoints and handlers defined and managed by WalletController.
func (wc *WalletController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "GET"}: []gin.HandlerFunc{wc.handleGetWallet},
	}
}

func (wc *WalletController) handleGetWallet(c *gin.Context) {
	info := &WalletInfo{
		Connected:     wc.Wallet.IsConnected(),
		TargetChainID: wc.Wallet.TargetChainID().String(),
	}
	if info.Connected {
		info.Address = wc.Wallet.Address().Hex()
	}
	if chainID := wc.Wallet.ChainID(); chainID != nil {
		info.ChainID = chainID.String()
	}

	c.JSON(http.StatusOK, info)
}
