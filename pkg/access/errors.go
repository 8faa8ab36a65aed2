package access

import (
	"errors"
	"fmt"
)

// Policy error codes.
const (
	ErrCodeBadConfig   = "access.bad_config"   // Malformed base path or rule at construction
	ErrCodeBadIdentity = "access.bad_identity" // Identity token cannot be canonicalized
	ErrCodeUnmatched   = "access.unmatched"    // No rule matched and the resolver denies unmatched tokens
)

// Error represents a policy error with a structured code.
type Error struct {
	Code    string // One of the ErrCode* constants
	Message string // Human-readable error description
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrBadConfig creates an error for malformed construction configuration.
// Configuration errors are fatal: they fail the constructor, never a later call.
func ErrBadConfig(detail string) *Error {
	return &Error{Code: ErrCodeBadConfig, Message: detail}
}

// ErrBadIdentity creates an error for a token that cannot be canonicalized.
func ErrBadIdentity(token, reason string) *Error {
	return &Error{Code: ErrCodeBadIdentity, Message: fmt.Sprintf("identity %q: %s", token, reason)}
}

// ErrUnmatched creates an error for a token no rule matched (deny policy only).
func ErrUnmatched(token string) *Error {
	return &Error{Code: ErrCodeUnmatched, Message: fmt.Sprintf("identity %q matched no rule", token)}
}

// ErrorCode extracts the policy error code from an error.
// Returns empty string if the error is not an access Error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Code
	}
	return ""
}

// IsBadIdentity returns true if err reports an uncanonicalizable token.
func IsBadIdentity(err error) bool {
	return ErrorCode(err) == ErrCodeBadIdentity
}

// IsUnmatched returns true if err reports an unmatched token under the deny policy.
func IsUnmatched(err error) bool {
	return ErrorCode(err) == ErrCodeUnmatched
}
