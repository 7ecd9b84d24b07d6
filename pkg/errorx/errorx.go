// Package errorx attaches registered business codes to errors so the HTTP
// layer can map them to a status and a stable message.
package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Coder describes a registered error code.
type Coder interface {
	// Code is the business error code.
	Code() int
	// HTTPStatus is the status written to the client.
	HTTPStatus() int
	// String is the external, user-safe message.
	String() string
	// Reference points to documentation for the code.
	Reference() string
}

// UnknownCode is used for errors without a registered code.
const UnknownCode = 1

type defaultCoder struct {
	code   int
	status int
	msg    string
}

func (d defaultCoder) Code() int         { return d.code }
func (d defaultCoder) HTTPStatus() int   { return d.status }
func (d defaultCoder) String() string    { return d.msg }
func (d defaultCoder) Reference() string { return "" }

var unknownCoder Coder = defaultCoder{code: UnknownCode, status: http.StatusInternalServerError, msg: "Internal server error"}

var (
	codeMu sync.RWMutex
	codes  = map[int]Coder{UnknownCode: unknownCoder}
)

// Register adds a coder, returning an error when the code is taken.
func Register(c Coder) error {
	codeMu.Lock()
	defer codeMu.Unlock()
	if _, ok := codes[c.Code()]; ok {
		return fmt.Errorf("error code %d is already registered", c.Code())
	}
	codes[c.Code()] = c
	return nil
}

// MustRegister is Register that panics on conflict.
func MustRegister(c Coder) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

type withCode struct {
	err   error
	code  int
	cause error
}

func (w *withCode) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s: %v", w.err.Error(), w.cause)
	}
	return w.err.Error()
}

func (w *withCode) Unwrap() error { return w.cause }

// WithCode creates a coded error from a message.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{err: fmt.Errorf(format, args...), code: code}
}

// WrapC wraps err with a code and context message. A nil err yields nil.
func WrapC(err error, code int, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{err: fmt.Errorf(format, args...), code: code, cause: err}
}

// ParseCoder returns the coder of the outermost coded error in the chain.
func ParseCoder(err error) Coder {
	if err == nil {
		return nil
	}
	var wc *withCode
	if errors.As(err, &wc) {
		codeMu.RLock()
		defer codeMu.RUnlock()
		if c, ok := codes[wc.code]; ok {
			return c
		}
	}
	return unknownCoder
}

// IsCode reports whether any error in the chain carries code.
func IsCode(err error, code int) bool {
	for err != nil {
		if wc, ok := err.(*withCode); ok && wc.code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
