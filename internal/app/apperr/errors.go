// Package apperr defines the application error that handlers map onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

// Codes shared across services.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
)

// Error is an application-layer error that can be mapped to an HTTP response.
//
// Title is the short human label ("Access denied"); Message is the longer explanation.
type Error struct {
	Status  int
	Code    string
	Title   string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func New(status int, code, title, message string) *Error {
	return &Error{Status: status, Code: code, Title: title, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details map[string]any) *Error {
	out := *e
	out.Details = details
	return &out
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// Validation reports field-level input problems. details maps field name to reason.
func Validation(message string, details map[string]any) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Title:   "Validation error",
		Message: message,
		Details: details,
	}
}

func MissingParameter(message string) *Error {
	return New(http.StatusBadRequest, CodeMissingParameter, "Missing parameter", message)
}

func Unauthorized(code, title, message string) *Error {
	return New(http.StatusUnauthorized, code, title, message)
}

// Forbidden is titled "Access denied" unless title says otherwise.
func Forbidden(code, title, message string) *Error {
	if title == "" {
		title = "Access denied"
	}
	return New(http.StatusForbidden, code, title, message)
}

func NotFound(code, title, message string) *Error {
	return New(http.StatusNotFound, code, title, message)
}

func Conflict(code, title, message string) *Error {
	return New(http.StatusConflict, code, title, message)
}
