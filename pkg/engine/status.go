package engine

import "fmt"

// Status is an engine-level status code. Every failed engine call carries
// one inside its *Error.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidHandle
	StatusInvalidArgument
	StatusConnectionFailure
	StatusAuthenticationFailure
	StatusTimeout
	StatusRuntimeError
)

// String returns the diagnostic name of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidHandle:
		return "InvalidHandle"
	case StatusInvalidArgument:
		return "InvalidArgument"
	case StatusConnectionFailure:
		return "ConnectionFailure"
	case StatusAuthenticationFailure:
		return "AuthenticationFailure"
	case StatusTimeout:
		return "Timeout"
	case StatusRuntimeError:
		return "RuntimeError"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Error is a failed engine call. Op names the operation, Status carries the
// engine status code, and Cause optionally wraps an underlying error.
type Error struct {
	Op     string
	Status Status
	Cause  error
}

// Errorf returns a *Error with a formatted detail message as its cause.
func Errorf(op string, status Status, format string, args ...any) *Error {
	return &Error{Op: op, Status: status, Cause: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine: %s: %s: %v", e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("engine: %s: %s", e.Op, e.Status)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Cause }
