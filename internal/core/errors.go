package core

import (
	"errors"
	"fmt"
)

// Code is the wire-level error class reported to clients.
type Code string

const (
	CodeAuthenticationRequired Code = "AuthenticationRequired"
	CodeAuthorizationDenied    Code = "AuthorizationDenied"
	CodeNotFound               Code = "NotFound"
	CodeVersionConflict        Code = "VersionConflict"
	CodeCapacityExceeded       Code = "CapacityExceeded"
	CodeValidation             Code = "ValidationError"
	CodeInternal               Code = "InternalError"
)

// DomainError carries a taxonomy code across layers. Internal causes are
// wrapped for logs but never leak to clients.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

func AuthenticationRequired(msg string) error {
	return &DomainError{Code: CodeAuthenticationRequired, Message: msg}
}

func AuthorizationDenied(msg string) error {
	return &DomainError{Code: CodeAuthorizationDenied, Message: msg}
}

func NotFound(msg string) error {
	return &DomainError{Code: CodeNotFound, Message: msg}
}

func CapacityExceeded(msg string) error {
	return &DomainError{Code: CodeCapacityExceeded, Message: msg}
}

func Validation(msg string) error {
	return &DomainError{Code: CodeValidation, Message: msg}
}

func Internal(msg string, cause error) error {
	return &DomainError{Code: CodeInternal, Message: msg, cause: cause}
}

// CodeOf classifies any error; unknown errors count as internal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ClientMessage is what the originating connection may see. Internal
// detail stays server-side.
func ClientMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return "internal error"
}
