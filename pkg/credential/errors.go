package credential

import (
	"errors"
	"fmt"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

// Credential error codes.
const (
	ErrCodeNotRegistered    = "credential.not_registered"    // No live credential for the identity
	ErrCodeEscalationDenied = "credential.escalation_denied" // Re-registration asked for a higher level
	ErrCodeInvalidLevel     = "credential.invalid_level"     // Requested level is not a defined level
)

// Error represents a credential error with a structured code.
type Error struct {
	Code    string // One of the ErrCode* constants
	Message string // Human-readable error description
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrNotRegistered creates an error for an identity with no live credential.
func ErrNotRegistered(identity string) *Error {
	return &Error{
		Code:    ErrCodeNotRegistered,
		Message: fmt.Sprintf("identity %q has no registered credential", identity),
	}
}

// ErrEscalationDenied creates an error for a re-registration that requested
// a strictly higher level than the held credential.
func ErrEscalationDenied(identity string, held, requested access.Level) *Error {
	return &Error{
		Code:    ErrCodeEscalationDenied,
		Message: fmt.Sprintf("identity %q holds %s and may not escalate to %s", identity, held, requested),
	}
}

// ErrInvalidLevel creates an error for a request naming an undefined level.
func ErrInvalidLevel(level access.Level) *Error {
	return &Error{
		Code:    ErrCodeInvalidLevel,
		Message: fmt.Sprintf("requested level %s is not a defined access level", level),
	}
}

// ErrorCode extracts the credential error code from an error.
// Returns empty string if the error is not a credential Error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}

// IsNotRegistered returns true if err reports a missing credential.
func IsNotRegistered(err error) bool {
	return ErrorCode(err) == ErrCodeNotRegistered
}

// IsEscalationDenied returns true if err reports a rejected escalation.
func IsEscalationDenied(err error) bool {
	return ErrorCode(err) == ErrCodeEscalationDenied
}
