package v1

import (
	"errors"
	"net/http"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg/errno"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/kiosk404/echoloop/pkg/errorx"
)

// API error codes.
// Code format: 1XXYYZ
//   - 1:  module prefix (echoloop API)
//   - XX: resource group (10=common, 11=activity run, 12=activity records, 13=tool sets, 14=models)
//   - YY: sequential error number
//   - Z:  reserved (0)
const (
	ErrBind       = 110010
	ErrValidation = 110020

	ErrActivityRun    = 111010
	ErrOracleRequired = 111020
	ErrStreamStart    = 111030

	ErrActivityNotFound = 112010
	ErrActivityList     = 112020
	ErrActivityDelete   = 112030

	ErrToolSetNotFound = 113010

	ErrModelList = 114010
)

func init() {
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	errorx.MustRegister(newCoder(ErrActivityRun, http.StatusInternalServerError, "Activity could not be started"))
	errorx.MustRegister(newCoder(ErrOracleRequired, http.StatusServiceUnavailable, "No decision oracle is configured"))
	errorx.MustRegister(newCoder(ErrStreamStart, http.StatusInternalServerError, "Activity stream could not be started"))

	errorx.MustRegister(newCoder(ErrActivityNotFound, http.StatusNotFound, "Activity not found"))
	errorx.MustRegister(newCoder(ErrActivityList, http.StatusInternalServerError, "Failed to list activities"))
	errorx.MustRegister(newCoder(ErrActivityDelete, http.StatusInternalServerError, "Failed to delete activity"))

	errorx.MustRegister(newCoder(ErrToolSetNotFound, http.StatusNotFound, "Tool set not found"))

	errorx.MustRegister(newCoder(ErrModelList, http.StatusInternalServerError, "Failed to list models"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }

// startCode maps a failure to start an activity to its API code.
func startCode(err error, fallback int) int {
	switch {
	case errors.Is(err, errno.ErrEmptyQuery):
		return ErrValidation
	case errors.Is(err, tool.ErrToolSetNotFound):
		return ErrToolSetNotFound
	case errors.Is(err, errno.ErrOracleRequired):
		return ErrOracleRequired
	default:
		return fallback
	}
}

func recordCode(err error, fallback int) int {
	if errors.Is(err, errno.ErrActivityNotFound) {
		return ErrActivityNotFound
	}
	return fallback
}
