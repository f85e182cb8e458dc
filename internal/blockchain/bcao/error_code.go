package bcao

import (
	"strings"

	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/pkg/errors"
)

// Revert reasons (or custom error selectors) that mean the caller is not allowed to call the function.
var forbiddenReasons = []string{
	"not the owner",
	"not owner",
	"only owner",
	"onlyowner",
	"unauthorized",
	"0x118cdaa7", // OwnableUnauthorizedAccount(address)
}

var notFoundReasons = []string{
	"not found",
	"no airdrop",
}

// GetClassifiedError is a general error handler that converts some errors returned from the contract to the predefined errors.
func GetClassifiedError(contractFcn string, err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	if containsAny(msg, forbiddenReasons) {
		return errors.Wrapf(errorcode.ErrorForbidden, "合约函数 '%v' 拒绝调用: %v", contractFcn, err)
	} else if containsAny(msg, notFoundReasons) {
		return errors.Wrapf(errorcode.ErrorNotFound, "合约函数 '%v': %v", contractFcn, err)
	} else {
		return errors.Wrapf(err, "无法调用合约函数 '%v'", contractFcn)
	}
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
