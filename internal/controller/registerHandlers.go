package controller

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type urlMethodPair struct {
	urlSuffix, method string
}

// EndpointMap is a map containing endpoints and the corresponding handlers that are defined and managed by a controller.
//
// Each entry in the map is organized in the following manner.
//   (urlSuffix, method): handler_function_list
// Thus it takes a URL suffix and an HTTP method as the key to perform a lookup.
type EndpointMap map[urlMethodPair][]gin.HandlerFunc

// A Controller must contain an endpoint map.
type Controller interface {
	GetGroupName() string
	GetEndpointMap() EndpointMap
}

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// RegisterHandlers registers the endpoint handlers in the controller to the router group. Endpoints are registered
// in a fixed order so that the route table does not depend on map iteration.
func RegisterHandlers(r *gin.RouterGroup, c Controller) error {
	group := r.Group(c.GetGroupName())

	em := c.GetEndpointMap()
	pairs := make([]urlMethodPair, 0, len(em))
	for pair := range em {
		method := strings.ToUpper(pair.method)
		if !supportedMethods[method] {
			return fmt.Errorf("不支持的 HTTP 方法 '%v'（%v%v）", pair.method, c.GetGroupName(), pair.urlSuffix)
		}
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].urlSuffix != pairs[j].urlSuffix {
			return pairs[i].urlSuffix < pairs[j].urlSuffix
		}
		return pairs[i].method < pairs[j].method
	})

	for _, pair := range pairs {
		method := strings.ToUpper(pair.method)
		group.Handle(method, pair.urlSuffix, em[pair]...)
		log.Debugf("已注册接口 %v %v%v", method, group.BasePath(), pair.urlSuffix)
	}

	return nil
}
