package errorcode

import (
	"errors"
	"fmt"
)

const (
	// CodeNotFound 表示资源未找到。Service 层收到的错误中若是这样的错误信息则表示是资源未找到，而非合约运行出错。
	CodeNotFound = "~NOTFOUND~"
	// CodeForbidden 表示参数被理解，但无权进行操作。合约以 owner 限制回滚时会被归类为这一错误。
	CodeForbidden = "~FORBIDDEN~"
	// CodeNotImplemented 是个在这个项目中约定俗成的代号，表示暂时未实现的功能。
	CodeNotImplemented = "~NOTIMPLEMENTED~"
	// CodeGatewayTimeout 表示等待链上结果超时。
	CodeGatewayTimeout = "~GATEWAYTIMEOUT~"
)

// ErrorNotFound 为使用了 `CodeNotFound` 的 error 实例
var ErrorNotFound = errors.New(CodeNotFound)

// ErrorForbidden 为使用了 `CodeForbidden` 的 error 实例
var ErrorForbidden = errors.New(CodeForbidden)

// ErrorNotImplemented 为使用了 `CodeNotImplemented` 的 error 实例
var ErrorNotImplemented = errors.New(CodeNotImplemented)

// ErrorGatewayTimeout 为使用了 `CodeGatewayTimeout` 的 error 实例
var ErrorGatewayTimeout = errors.New(CodeGatewayTimeout)

// Errors of the confidential submission and disclosure flow. They are returned as causes, so callers compare
// with `errors.Cause(err) == errorcode.ErrorXxx` the same way they do for the codes above.
var (
	ErrorProviderUnavailable          = errors.New("未找到可用的链上提供者（RPC 节点或账户）")
	ErrorWrongNetwork                 = errors.New("当前连接的网络不是目标网络")
	ErrorEngineInitializationFailed   = errors.New("机密计算引擎初始化失败")
	ErrorEngineNotReady               = errors.New("机密计算引擎尚未就绪")
	ErrorInputMismatch                = errors.New("接收者与数量列表不匹配")
	ErrorInvalidInput                 = errors.New("输入不合法")
	ErrorEncryptionFailed             = errors.New("加密失败")
	ErrorUserRejectedSignature        = errors.New("用户拒绝签名")
	ErrorDecryptionExchangeFailed     = errors.New("解密交换失败")
	ErrorTransactionFailed            = errors.New("交易失败")
	ErrorOwnershipCheckFailed         = errors.New("无法检查合约所有者")
	ErrorHandleNotFound               = errors.New("未能从交易日志中取得密文句柄")
	ErrorHandleNotDecrypted           = errors.New("密文句柄未能被解密")
	ErrorContractAddressNotConfigured = errors.New("未配置合约地址")
)

// EncryptionFailedError identifies the recipient whose amount could not be encrypted. Its cause is always
// `ErrorEncryptionFailed` so that it can be classified like the other sentinel errors.
type EncryptionFailedError struct {
	RecipientIndex int
	Recipient      string
	Err            error
}

func (e *EncryptionFailedError) Error() string {
	return fmt.Sprintf("无法为第 %v 个接收者 %v 加密数量: %v", e.RecipientIndex, e.Recipient, e.Err)
}

// Cause implements the causer interface of `github.com/pkg/errors`.
func (e *EncryptionFailedError) Cause() error {
	return ErrorEncryptionFailed
}

// Unwrap exposes the underlying failure.
func (e *EncryptionFailedError) Unwrap() error {
	return e.Err
}

// classifiedError attaches one of the sentinel errors above to an underlying failure. `errors.Cause` of the
// wrapped value yields the sentinel while the message keeps the original cause.
type classifiedError struct {
	kind error
	err  error
}

func (e *classifiedError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.err)
}

func (e *classifiedError) Cause() error {
	return e.kind
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

// Classify returns an error whose cause is `kind` and whose message carries `err`. A nil `err` yields `kind`.
func Classify(kind error, err error) error {
	if err == nil {
		return kind
	}

	return &classifiedError{kind: kind, err: err}
}
