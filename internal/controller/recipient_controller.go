package controller

import (
	"net/http"

	"gitee.com/czyczk/confidential-airdrop/internal/service"
	"github.com/gin-gonic/gin"
)

// A RecipientController contains a group name and a `RecipientService` instance. It also implements the interface `Controller`.
type RecipientController struct {
	GroupName    string
	Wallet       IWalletStatus
	RecipientSvc service.RecipientServiceInterface
}

// GetGroupName returns the group name.
func (rc *RecipientController) GetGroupName() string {
	return rc.GroupName
}

// GetEndpointMap implements the interface `Controller` and returns the API endpoints and handlers defined and managed by RecipientController.
func (rc *RecipientController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/:address/status", "GET"}:  []gin.HandlerFunc{rc.handleCheckAirdropStatus},
		urlMethodPair{"/balance/decrypt", "POST"}: []gin.HandlerFunc{rc.handleDecryptBalance},
	}
}

func (rc *RecipientController) handleCheckAirdropStatus(c *gin.Context) {
	address := c.Param("address")

	// Validity check
	pel := &ParameterErrorList{}

	address = pel.AppendIfEmptyOrBlankSpaces(address, "地址不能为空。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	received, err := rc.RecipientSvc.CheckAirdropStatus(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, &AirdropStatusInfo{Address: address, Received: received})
}

func (rc *RecipientController) handleDecryptBalance(c *gin.Context) {
	balance, err := rc.RecipientSvc.DecryptBalance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, &BalanceInfo{Address: rc.Wallet.Address().Hex(), Balance: balance.String()})
}
