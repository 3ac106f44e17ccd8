// Package apperr defines the API's error taxonomy and how each class is
// rendered over HTTP.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Code identifies an error class. It is sent to clients verbatim.
type Code string

const (
	CodeInvalidInput        Code = "InvalidInput"
	CodeDuplicateIdentifier Code = "DuplicateIdentifier"
	CodeInvalidCredentials  Code = "InvalidCredentials"
	CodeUnauthenticated     Code = "Unauthenticated"
	CodeNotFound            Code = "NotFound"
	CodeUpstreamFailure     Code = "UpstreamFailure"
	CodeInternal            Code = "Internal"
)

// Error is a classified application error. Cause is kept for errors.Is/As and
// logging but never serialized.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Status maps the error code to an HTTP status.
func (e *Error) Status() int {
	return StatusFor(e.Code)
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidInput(message string, cause error) *Error {
	return newError(CodeInvalidInput, message, cause)
}

func DuplicateIdentifier(message string, cause error) *Error {
	return newError(CodeDuplicateIdentifier, message, cause)
}

func InvalidCredentials(message string) *Error {
	return newError(CodeInvalidCredentials, message, nil)
}

func Unauthenticated(message string, cause error) *Error {
	return newError(CodeUnauthenticated, message, cause)
}

func NotFound(message string, cause error) *Error {
	return newError(CodeNotFound, message, cause)
}

func UpstreamFailure(message string, cause error) *Error {
	return newError(CodeUpstreamFailure, message, cause)
}

func Internal(message string, cause error) *Error {
	return newError(CodeInternal, message, cause)
}

// StatusFor returns the HTTP status for a code.
func StatusFor(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDuplicateIdentifier:
		return http.StatusConflict
	case CodeInvalidCredentials, CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code carried by err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Response is the JSON body written for every failed request.
type Response struct {
	Error   Code   `json:"error"`
	Message string `json:"message"`
}

// Respond writes err as a JSON error response. Unclassified errors are logged
// and reported as a generic internal error.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		slog.Error("Unhandled error",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"),
		)
		appErr = Internal("internal server error", err)
	}

	if appErr.Cause != nil && appErr.Code != CodeInternal {
		_ = c.Error(appErr.Cause)
	}

	c.AbortWithStatusJSON(appErr.Status(), Response{
		Error:   appErr.Code,
		Message: appErr.Message,
	})
}
