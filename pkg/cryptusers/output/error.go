package output

import (
	"encoding/json"
	"fmt"
)

// Error is a coded error carrying optional details and a cause.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// NewError creates an Error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates an Error with a formatted message.
func NewErrorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a detail field.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit status for the error's code.
func (e *Error) ExitCode() ExitCode {
	return e.Code.GetExitCode()
}

// MarshalJSON adds the exit code to the serialized error.
func (e *Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return json.Marshal(&struct {
		*plain
		ExitCode ExitCode `json:"exit_code"`
	}{plain: (*plain)(e), ExitCode: e.ExitCode()})
}

// Is matches errors by code, so errors.Is(err, NewError(CodeRepoLocked, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
