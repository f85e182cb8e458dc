package controller

import "github.com/pkg/errors"

// GeneralResponse is the body written by an endpoint handler when a request cannot be served.
type GeneralResponse struct {
	errors ParameterErrorList
	msg    string
	reason string
}

// NewFromErrors fills a GeneralResponse with errors.
func (gr *GeneralResponse) NewFromErrors(errors *ParameterErrorList) {
	gr.errors = *errors
}

// NewFromError fills a GeneralResponse with the message of `err`. The root cause goes to `reason` so clients can tell
// error kinds apart without parsing the message.
func (gr *GeneralResponse) NewFromError(err error) {
	gr.msg = err.Error()
	if cause := errors.Cause(err); cause != err {
		gr.reason = cause.Error()
	}
}

// ToMap converts this struct to a map.
func (gr *GeneralResponse) ToMap() map[string]interface{} {
	ret := map[string]interface{}{
		"errors": gr.errors,
		"msg":    gr.msg,
	}
	if gr.reason != "" {
		ret["reason"] = gr.reason
	}

	return ret
}
