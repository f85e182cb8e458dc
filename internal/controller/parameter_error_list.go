package controller

import (
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParameterErrorList contains a list of human-readable errors about parameters.
type ParameterErrorList []string

// AppendIfEmptyOrBlankSpaces appends the error message specified if `str` is empty or contains only blank spaces.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the trimmed string
func (pel *ParameterErrorList) AppendIfEmptyOrBlankSpaces(str string, errMsg string) string {
	if str = strings.TrimSpace(str); str == "" {
		*pel = append(*pel, errMsg)
	}

	return str
}

// AppendIfNotPositiveInt appends the error message specified if `str` is not a positive int.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the parsed int or 0 if it is not a positive int
func (pel *ParameterErrorList) AppendIfNotPositiveInt(str string, errMsg string) int {
	intResult, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil || intResult <= 0 {
		*pel = append(*pel, errMsg)
		return 0
	}

	return intResult
}

// AppendIfNotBool appends the error message specified if `str` is neither empty nor a boolean.
//
// Parameters:
//   the string to be checked
//   the value to return if `str` is empty
//   the error message to append
//
// Returns:
//   the parsed bool or the default value
func (pel *ParameterErrorList) AppendIfNotBool(str string, defaultValue bool, errMsg string) bool {
	if str = strings.TrimSpace(str); str == "" {
		return defaultValue
	}

	ret, err := strconv.ParseBool(str)
	if err != nil {
		*pel = append(*pel, errMsg)
		return defaultValue
	}

	return ret
}

// AppendIfNotSeconds appends the error message specified if `str` is neither empty nor a positive number of seconds.
func (pel *ParameterErrorList) AppendIfNotSeconds(str string, defaultValue time.Duration, errMsg string) time.Duration {
	if str = strings.TrimSpace(str); str == "" {
		return defaultValue
	}

	seconds := pel.AppendIfNotPositiveInt(str, errMsg)
	if seconds == 0 {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

// AppendIfNotTxHash appends the error message specified if `str` is not a 0x-prefixed 32-byte hex string.
//
// Returns:
//   the hash in lower case
func (pel *ParameterErrorList) AppendIfNotTxHash(str string, errMsg string) string {
	str = strings.TrimSpace(str)
	if b, err := hexutil.Decode(str); err != nil || len(b) != 32 {
		*pel = append(*pel, errMsg)
	}

	return strings.ToLower(str)
}
