package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of API error kinds. Protocol-level failures
// are always mapped onto one of these before leaving the gateway.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindConnection     ErrorKind = "connection"
	KindTimeout        ErrorKind = "timeout"
	KindNotFound       ErrorKind = "not_found"
	KindConfiguration  ErrorKind = "configuration"
	KindProtocol       ErrorKind = "protocol"
	KindInternal       ErrorKind = "internal"
)

// GatewayError is the only error type surfaced by gateway operations. The
// message is a human-readable cause description and must never contain an
// account secret.
type GatewayError struct {
	Kind    ErrorKind
	Email   string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Email != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Email, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errf builds a GatewayError with a formatted message.
func Errf(kind ErrorKind, email, format string, args ...any) *GatewayError {
	return &GatewayError{Kind: kind, Email: email, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a GatewayError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var gerr *GatewayError
	return errors.As(err, &gerr) && gerr.Kind == kind
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindInternal
}
