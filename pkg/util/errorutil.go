package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes returned by the core. All are recoverable by the caller.
const (
	CodeNotAuthorizedForTransition = "NOT_AUTHORIZED_FOR_TRANSITION"
	CodeAttachmentNotPermitted     = "ATTACHMENT_NOT_PERMITTED"
	CodeLimitExceeded              = "LIMIT_EXCEEDED"
	CodeAccountSuspended           = "ACCOUNT_SUSPENDED"
	CodeAccountExpired             = "ACCOUNT_EXPIRED"
	CodeAccountNotFound            = "ACCOUNT_NOT_FOUND"
	CodeTicketNotFound             = "TICKET_NOT_FOUND"
	CodeConflict                   = "CONFLICT"
	CodeValidationFailed           = "VALIDATION_FAILED"
	CodeUnauthorized               = "UNAUTHORIZED"
	CodeForbidden                  = "FORBIDDEN"
	CodeNotFound                   = "NOT_FOUND"
	CodeInternalError              = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
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

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewAccountNotFound(email string) error {
	return NewDomainError(CodeAccountNotFound, "account not found", http.StatusNotFound, map[string]any{"email": email})
}

func NewTicketNotFound(id string) error {
	return NewDomainError(CodeTicketNotFound, "ticket not found", http.StatusNotFound, map[string]any{"ticket_id": id})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewNotAuthorizedForTransition signals the wrong party attempted a ticket edit.
func NewNotAuthorizedForTransition(message string) error {
	return NewDomainError(CodeNotAuthorizedForTransition, message, http.StatusForbidden, nil)
}

func NewAttachmentNotPermitted() error {
	return NewDomainError(CodeAttachmentNotPermitted, "file attachment not permitted", http.StatusForbidden, nil)
}

func NewLimitExceeded(message string, details map[string]any) error {
	return NewDomainError(CodeLimitExceeded, message, http.StatusForbidden, details)
}

func NewAccountSuspended() error {
	return NewDomainError(CodeAccountSuspended, "account suspended", http.StatusForbidden, nil)
}

func NewAccountExpired() error {
	return NewDomainError(CodeAccountExpired, "subscription expired", http.StatusPaymentRequired, nil)
}

// NewConflict signals a concurrent-write collision; the caller may retry.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Missing rows map to
// NOT_FOUND so ambiguous data is treated as denial, never implicit allow.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
