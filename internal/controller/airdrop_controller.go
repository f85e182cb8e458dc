package controller

import (
	"context"
	"net/http"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/service"
	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// DefaultConfirmTimeout bounds how long the await endpoint waits for a receipt when the client gives no timeout.
const DefaultConfirmTimeout = 2 * time.Minute

// An AirdropController contains a group name and an `AirdropService` instance. It also implements the interface `Controller`.
type AirdropController struct {
	GroupName      string
	AirdropSvc     service.AirdropServiceInterface
	ConfirmTimeout time.Duration
}

// GetGroupName returns the group name.
func (ac *AirdropController) GetGroupName() string {
	return ac.GroupName
}

// GetEndpointMap implements the interface `Controller` and returns the API endpoints and handlers defined and managed by AirdropController.
func (ac *AirdropController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/batch", "POST"}:         []gin.HandlerFunc{ac.handleBatchAirdrop},
		urlMethodPair{"/tx/:hash/await", "GET"}: []gin.HandlerFunc{ac.handleAwaitSubmission},
		urlMethodPair{"/submissions", "GET"}:    []gin.HandlerFunc{ac.handleListSubmissions},
	}
}

func (ac *AirdropController) handleBatchAirdrop(c *gin.Context) {
	var req airdrop.BatchAirdropRequest
	wait := c.Query("wait")

	// Validity check
	pel := &ParameterErrorList{}

	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			*pel = append(*pel, "请求体不是合法的 JSON。")
		}
	} else {
		recipients := pel.AppendIfEmptyOrBlankSpaces(c.PostForm("recipients"), "接收者列表不能为空。")
		amounts := pel.AppendIfEmptyOrBlankSpaces(c.PostForm("amounts"), "数量列表不能为空。")
		req.Recipients = splitLines(recipients)
		req.Amounts = splitLines(amounts)
		if wait == "" {
			wait = c.PostForm("wait")
		}
	}
	waitBool := pel.AppendIfNotBool(wait, false, "wait 必须为布尔值。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	submission, err := ac.AirdropSvc.BatchAirdrop(c.Request.Context(), req.Recipients, req.Amounts)
	if err != nil {
		writeError(c, err)
		return
	}

	if !waitBool {
		c.JSON(http.StatusOK, submission.Record)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.confirmTimeout())
	defer cancel()
	record, err := submission.Wait(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (ac *AirdropController) handleAwaitSubmission(c *gin.Context) {
	hash := c.Param("hash")
	timeout := c.Query("timeout")

	// Validity check
	pel := &ParameterErrorList{}

	if hash = pel.AppendIfEmptyOrBlankSpaces(hash, "交易哈希不能为空。"); hash != "" {
		hash = pel.AppendIfNotTxHash(hash, "交易哈希不合法。")
	}
	timeoutDuration := pel.AppendIfNotSeconds(timeout, ac.confirmTimeout(), "超时时间必须为正整数（秒）。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()
	record, err := ac.AirdropSvc.AwaitSubmission(ctx, hash)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (ac *AirdropController) handleListSubmissions(c *gin.Context) {
	limit := c.DefaultQuery("limit", "20")

	// Validity check
	pel := &ParameterErrorList{}

	limitInt := pel.AppendIfNotPositiveInt(limit, "limit 必须为正整数。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	records, err := ac.AirdropSvc.ListSubmissions(limitInt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (ac *AirdropController) confirmTimeout() time.Duration {
	if ac.ConfirmTimeout > 0 {
		return ac.ConfirmTimeout
	}

	return DefaultConfirmTimeout
}
