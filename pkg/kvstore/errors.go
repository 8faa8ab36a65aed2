package kvstore

import (
	"errors"
	"fmt"
)

// Store error codes.
const (
	ErrCodeAccessDenied      = "kv.access_denied"      // Credential is stale, forged or zero
	ErrCodePrivilegeRequired = "kv.privilege_required" // Non-Admin write to the read-only store
)

// Error represents a store access error with a structured code.
type Error struct {
	Code    string // One of the ErrCode* constants
	Message string // Human-readable error description
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrAccessDenied creates an error for a credential that does not match the
// live credential table.
func ErrAccessDenied(identity, reason string) *Error {
	return &Error{
		Code:    ErrCodeAccessDenied,
		Message: fmt.Sprintf("identity %q: %s", identity, reason),
	}
}

// ErrPrivilegeRequired creates an error for a write to the read-only store
// by a credential below Admin.
func ErrPrivilegeRequired(identity, op string) *Error {
	return &Error{
		Code:    ErrCodePrivilegeRequired,
		Message: fmt.Sprintf("identity %q: %s on the read-only store requires admin", identity, op),
	}
}

// ErrorCode extracts the store error code from an error.
// Returns empty string if the error is not a kvstore Error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Code
	}
	return ""
}

// IsAccessDenied returns true if err reports a stale or forged credential.
func IsAccessDenied(err error) bool {
	return ErrorCode(err) == ErrCodeAccessDenied
}

// IsPrivilegeRequired returns true if err reports a missing Admin privilege.
func IsPrivilegeRequired(err error) bool {
	return ErrorCode(err) == ErrCodePrivilegeRequired
}
