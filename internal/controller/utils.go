package controller

import (
	"net/http"
	"strings"

	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// statusOfError maps the cause of an error returned by a service function to an HTTP status code.
func statusOfError(err error) int {
	switch errors.Cause(err) {
	case errorcode.ErrorInvalidInput, errorcode.ErrorInputMismatch:
		return http.StatusBadRequest
	case errorcode.ErrorForbidden, errorcode.ErrorUserRejectedSignature:
		return http.StatusForbidden
	case errorcode.ErrorNotFound, errorcode.ErrorHandleNotFound, errorcode.ErrorHandleNotDecrypted:
		return http.StatusNotFound
	case errorcode.ErrorWrongNetwork:
		return http.StatusConflict
	case errorcode.ErrorEngineNotReady:
		return http.StatusPreconditionFailed
	case errorcode.ErrorEncryptionFailed, errorcode.ErrorDecryptionExchangeFailed, errorcode.ErrorTransactionFailed,
		errorcode.ErrorOwnershipCheckFailed, errorcode.ErrorEngineInitializationFailed:
		return http.StatusBadGateway
	case errorcode.ErrorProviderUnavailable:
		return http.StatusServiceUnavailable
	case errorcode.ErrorGatewayTimeout:
		return http.StatusGatewayTimeout
	case errorcode.ErrorNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error in a `GeneralResponse`. Bad input is reported as a `ParameterErrorList`.
func writeError(c *gin.Context, err error) {
	status := statusOfError(err)
	gr := &GeneralResponse{}
	if status == http.StatusBadRequest {
		gr.NewFromErrors(&ParameterErrorList{err.Error()})
	} else {
		gr.NewFromError(err)
	}

	if status == http.StatusInternalServerError {
		log.Errorf("处理请求 '%v' 时出现错误: %v", c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gr.ToMap())
}

// splitLines splits a newline separated form value. Blank entries are kept for the service to decide on.
func splitLines(value string) []string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	if strings.TrimSpace(value) == "" {
		return []string{}
	}

	return strings.Split(value, "\n")
}
