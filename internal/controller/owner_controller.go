package controller

import (
	"net/http"

	"gitee.com/czyczk/confidential-airdrop/internal/service"
	"github.com/gin-gonic/gin"
)

// An OwnerController contains a group name and an `OwnerService` instance. It also implements the interface `Controller`.
type OwnerController struct {
	GroupName string
	Wallet    IWalletStatus
	OwnerSvc  service.OwnerServiceInterface
}

// GetGroupName returns the group name.
func (oc *OwnerController) GetGroupName() string {
	return oc.GroupName
}

// GetEndpointMap implements the interface `Controller` and returns the API endpoints and handlers defined and managed by OwnerController.
func (oc *OwnerController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "GET"}:           []gin.HandlerFunc{oc.handleGetOwner},
		urlMethodPair{"/transfer", "POST"}: []gin.HandlerFunc{oc.handleTransferOwnership},
	}
}

func (oc *OwnerController) handleGetOwner(c *gin.Context) {
	owner, err := oc.OwnerSvc.GetOwner(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	isOwner := false
	if oc.Wallet.IsConnected() {
		isOwner, err = oc.OwnerSvc.IsOwner(c.Request.Context(), oc.Wallet.Address())
		if err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, &OwnerInfo{Owner: owner.Hex(), IsOwner: isOwner})
}

func (oc *OwnerController) handleTransferOwnership(c *gin.Context) {
	newOwner := c.PostForm("newOwner")
	wait := c.PostForm("wait")

	// Validity check
	pel := &ParameterErrorList{}

	newOwner = pel.AppendIfEmptyOrBlankSpaces(newOwner, "新所有者地址不能为空。")
	waitBool := pel.AppendIfNotBool(wait, true, "wait 必须为布尔值。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	info, err := oc.OwnerSvc.TransferOwnership(c.Request.Context(), newOwner, waitBool)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
