package mail

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the mail server could not be reached.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError indicates the server rejected the account's credentials. It is
// distinct from ConnectionError so callers can prompt for re-entry.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProtocolError indicates the server returned a malformed or unexpected
// protocol response after a successful login.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error (%s): %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ParseError indicates malformed message content or a malformed address.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse error: %s", e.Reason)
	}
	return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SMTPError indicates a failure while submitting an outbound message.
// Submission is never retried automatically.
type SMTPError struct {
	Op  string
	Err error
}

func (e *SMTPError) Error() string {
	return fmt.Sprintf("smtp error (%s): %v", e.Op, e.Err)
}

func (e *SMTPError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or its chain) is a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsAuthError reports whether err (or its chain) is an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsProtocolError reports whether err (or its chain) is a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsParseError reports whether err (or its chain) is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsSMTPError reports whether err (or its chain) is an SMTPError.
func IsSMTPError(err error) bool {
	var se *SMTPError
	return errors.As(err, &se)
}
