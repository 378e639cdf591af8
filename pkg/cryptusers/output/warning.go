package output

import (
	"fmt"
	"time"
)

// Warning is a non-fatal diagnostic. Strict mode promotes it to an Error.
type Warning struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewWarningf creates a Warning with a formatted message.
func NewWarningf(code Code, format string, args ...any) *Warning {
	return &Warning{Code: code, Message: fmt.Sprintf(format, args...), Timestamp: time.Now().UTC()}
}

// WithDetail attaches a detail field.
func (w *Warning) WithDetail(key string, value any) *Warning {
	if w.Details == nil {
		w.Details = make(map[string]any)
	}
	w.Details[key] = value
	return w
}

// ToError converts the warning for strict mode.
func (w *Warning) ToError() *Error {
	return &Error{Code: w.Code, Message: w.Message, Details: w.Details}
}
