package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by DomainError.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeDuplicateEmail  = "DUPLICATE_EMAIL"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	// Detail is returned to clients in the "error" field when set.
	Detail string
	Err    error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body is the JSON error payload shared by every endpoint.
type Body struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Body renders the client-facing payload.
func (e *DomainError) Body() Body {
	return Body{Message: e.Message, Error: e.Detail}
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, detail string) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Detail: detail}
}

func NewValidationError(message, detail string) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, detail)
}

func NewDuplicateEmail(message string) error {
	return NewDomainError(CodeDuplicateEmail, message, http.StatusBadRequest, "")
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, "")
}

func NewInvalidFileType(message string) error {
	return NewDomainError(CodeInvalidFileType, message, http.StatusBadRequest, "")
}

func NewFileTooLarge(message string) error {
	return NewDomainError(CodeFileTooLarge, message, http.StatusBadRequest, "")
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, "")
}

// NewInternalError wraps an unexpected failure. The underlying message is
// exposed in the "error" field for diagnostics.
func NewInternalError(err error) error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Server error",
		HTTPStatus: http.StatusInternalServerError,
		Detail:     detail,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := CodeInternal
		switch {
		case fiberErr.Code == http.StatusNotFound:
			code = CodeNotFound
		case fiberErr.Code == http.StatusUnauthorized:
			code = CodeUnauthorized
		case fiberErr.Code < http.StatusInternalServerError:
			code = CodeValidation
		}
		return NewDomainError(code, fiberErr.Message, fiberErr.Code, "")
	}
	return NewInternalError(err).(*DomainError)
}
