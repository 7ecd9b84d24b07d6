// Package core writes API responses.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/pkg/errorx"
	"github.com/kiosk404/echoloop/pkg/logger"
)

// ErrResponse is the body written for a failed request.
type ErrResponse struct {
	// Code is the business error code.
	Code int `json:"code"`

	// Message is the user-safe description of the code.
	Message string `json:"message"`

	// Detail carries the underlying error text.
	Detail string `json:"detail,omitempty"`

	// Reference points to documentation for the code.
	Reference string `json:"reference,omitempty"`
}

// WriteResponse writes err as an ErrResponse with the status of its code,
// or data with 200 when err is nil.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		coder := errorx.ParseCoder(err)
		logger.Warn("[API] %s %s failed (code=%d): %v", c.Request.Method, c.Request.URL.Path, coder.Code(), err)
		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:      coder.Code(),
			Message:   coder.String(),
			Detail:    err.Error(),
			Reference: coder.Reference(),
		})
		return
	}

	c.JSON(http.StatusOK, data)
}
