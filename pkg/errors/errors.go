// Package errors defines the coded errors shared by the scenemap CLI and the
// HTTP server.
//
// Every failure a user can act on carries a [Code]: a bad flag value, a scene
// that does not parse, a handle that names no node, a session that expired.
// The CLI prints the message; the server turns the code into a status with
// [HTTPStatus] and returns it in the JSON body.
//
//	if _, ok := forest.Lookup(h); !ok {
//	    return errors.New(errors.ErrCodeNodeNotFound, "no node %q", h)
//	}
//
//	doc, err := yaml.Unmarshal(...)
//	if err != nil {
//	    return errors.Wrap(errors.ErrCodeInvalidScene, err, "parse %s", path)
//	}
//
// Codes are matched anywhere in the chain, so wrapping a coded error with
// fmt.Errorf or with another code keeps it testable with [Is].
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error class.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidScene  Code = "INVALID_SCENE"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeNodeNotFound    Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  Code = "SESSION_EXPIRED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var statuses = map[Code]int{
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidFormat:   http.StatusBadRequest,
	ErrCodeInvalidScene:    http.StatusUnprocessableEntity,
	ErrCodeInvalidConfig:   http.StatusBadRequest,
	ErrCodeInvalidPath:     http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeNodeNotFound:    http.StatusNotFound,
	ErrCodeFileNotFound:    http.StatusNotFound,
	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeSessionExpired:  http.StatusGone,
	ErrCodeUnsupported:     http.StatusNotImplemented,
}

// HTTPStatus returns the status code the server answers with. Unknown codes
// and ErrCodeInternal are 500.
func HTTPStatus(code Code) int {
	if s, ok := statuses[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns a coded error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a coded error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether any coded error in err's chain has code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost coded error in err's chain, or
// "" if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost coded error without its
// code and cause, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
