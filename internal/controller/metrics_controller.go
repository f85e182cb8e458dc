package controller

import (
	"gitee.com/czyczk/confidential-airdrop/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// A MetricsController exposes the Prometheus collectors of the application. It also implements the interface `Controller`.
type MetricsController struct {
	GroupName string
}

// GetGroupName returns the group name.
func (mc *MetricsController) GetGroupName() string {
	return mc.GroupName
}

// GetEndpointMap implements the interface `Controller` and returns the API endpoints and handlers defined and managed by MetricsController.
func (mc *MetricsController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/metrics", "GET"}: []gin.HandlerFunc{
			gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})),
		},
	}
}
