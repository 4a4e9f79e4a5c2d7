package usecase

import "fmt"

// ErrorCode groups relay failures by origin: the caller's body, the
// completion provider, the pub/sub publisher, or the relay itself. The
// handler answers every code with HTTP 500 and exposes only the Reason.
type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorRateLimited  ErrorCode = "RATE_LIMITED"
	ErrorUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by RelayService. Reason is a stable snake_case label that
// is safe to show to callers; Err holds the underlying detail for logs.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// NewInvalidBodyError reports a request body that could not be decoded.
func NewInvalidBodyError(err error) *Error {
	return newError(ErrorInvalidInput, "invalid_body", err)
}
