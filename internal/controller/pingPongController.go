package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// A PingPongController answers liveness probes. It implements the interface `Controller`.
type PingPongController struct {
	GroupName string
}

// GetGroupName returns the group name
func (ppc *PingPongController) GetGroupName() string {
	return ppc.GroupName
}

// GetEndpointMap implements the interface `Controller`. `GET /ping` answers "pong" and `HEAD /ping` only the status.
func (ppc *PingPongController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/ping", "GET"}:  []gin.HandlerFunc{handlePing},
		urlMethodPair{"/ping", "HEAD"}: []gin.HandlerFunc{handlePing},
	}
}

func handlePing(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}

	c.String(http.StatusOK, "pong")
}
