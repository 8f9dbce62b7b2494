package tokenx

import (
	"errors"
	"fmt"
)

// ErrorCode represents issuance and verification error categories.
type ErrorCode string

const (
	ErrCodeInvalidInput         ErrorCode = "invalid_input"
	ErrCodeWeakKey              ErrorCode = "weak_key"
	ErrCodeUnsupportedAlgorithm ErrorCode = "unsupported_algorithm"
	ErrCodeMalformed            ErrorCode = "malformed"
	ErrCodeBadSignature         ErrorCode = "bad_signature"
	ErrCodeExpired              ErrorCode = "expired"
	ErrCodeNotYetValid          ErrorCode = "not_yet_valid"
	ErrCodeIssuerMismatch       ErrorCode = "issuer_mismatch"
	ErrCodeAudienceMismatch     ErrorCode = "audience_mismatch"
	ErrCodeInternal             ErrorCode = "internal_error"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeInvalidInput:         "Invalid input",
	ErrCodeWeakKey:              "Signing key too short",
	ErrCodeUnsupportedAlgorithm: "Unsupported algorithm",
	ErrCodeMalformed:            "Malformed token",
	ErrCodeBadSignature:         "Signature verification failed",
	ErrCodeExpired:              "Token expired",
	ErrCodeNotYetValid:          "Token not yet valid",
	ErrCodeIssuerMismatch:       "Issuer mismatch",
	ErrCodeAudienceMismatch:     "Audience mismatch",
	ErrCodeInternal:             "Internal error",
}

// Error wraps issuance and verification failures with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the error code from err, or returns an empty code when err
// was not produced by this package.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}
