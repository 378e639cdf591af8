// Package output formats user-facing results, warnings and errors for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Handler emits command output. Silent mode hides warnings, strict mode turns them
// into errors, and JSON mode defers everything to the envelope written by WriteJSON.
type Handler struct {
	stdout   io.Writer
	stderr   io.Writer
	silent   bool
	strict   bool
	json     bool
	warnings []*Warning

	warnColor  *color.Color
	errColor   *color.Color
	okColor    *color.Color
	alertColor *color.Color
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSilent suppresses warnings on stderr.
func WithSilent(silent bool) HandlerOption {
	return func(h *Handler) { h.silent = silent }
}

// WithStrict makes Warn return the warning as an error.
func WithStrict(strict bool) HandlerOption {
	return func(h *Handler) { h.strict = strict }
}

// WithJSON enables JSON envelope output.
func WithJSON(json bool) HandlerOption {
	return func(h *Handler) { h.json = json }
}

// WithColor forces colored prefixes on or off.
func WithColor(enabled bool) HandlerOption {
	return func(h *Handler) { h.setColor(enabled) }
}

// NewHandler creates a Handler. Color follows fatih/color's terminal detection
// and the NO_COLOR convention unless WithColor is given.
func NewHandler(stdout, stderr io.Writer, opts ...HandlerOption) *Handler {
	h := &Handler{
		stdout:     stdout,
		stderr:     stderr,
		warnings:   make([]*Warning, 0),
		warnColor:  color.New(color.FgYellow, color.Bold),
		errColor:   color.New(color.FgRed, color.Bold),
		okColor:    color.New(color.FgGreen),
		alertColor: color.New(color.FgRed, color.Bold),
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	h.setColor(!noColor && !color.NoColor)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) setColor(enabled bool) {
	for _, c := range []*color.Color{h.warnColor, h.errColor, h.okColor, h.alertColor} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Warn records a warning and prints it unless silent or in JSON mode.
// In strict mode the warning is returned as an error instead.
func (h *Handler) Warn(w *Warning) error {
	h.warnings = append(h.warnings, w)
	if h.strict {
		return w.ToError()
	}
	if !h.silent && !h.json {
		_, _ = fmt.Fprintf(h.stderr, "%s %s\n", h.warnColor.Sprint("warning:"), w.Message)
	}
	return nil
}

// Warnf is Warn with a formatted message.
func (h *Handler) Warnf(code Code, format string, args ...any) error {
	return h.Warn(NewWarningf(code, format, args...))
}

// Error prints e to stderr in text mode.
func (h *Handler) Error(e *Error) {
	if h.json {
		return
	}
	_, _ = fmt.Fprintf(h.stderr, "%s %s\n", h.errColor.Sprint("error:"), e.Message)
}

// Success prints a line to stdout in text mode.
func (h *Handler) Success(message string) {
	if !h.json {
		_, _ = fmt.Fprintln(h.stdout, message)
	}
}

// Successf is Success with a formatted message.
func (h *Handler) Successf(format string, args ...any) {
	h.Success(fmt.Sprintf(format, args...))
}

// WriteLine prints a line to stdout in text mode.
func (h *Handler) WriteLine(line string) {
	if h.json {
		return
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, _ = io.WriteString(h.stdout, line)
}

// Infof prints a progress line to stderr in text mode unless silent.
func (h *Handler) Infof(format string, args ...any) {
	if h.json || h.silent {
		return
	}
	_, _ = fmt.Fprintf(h.stderr, format+"\n", args...)
}

// Alert highlights s, e.g. a REVOKED! marker.
func (h *Handler) Alert(s string) string {
	return h.alertColor.Sprint(s)
}

// OK highlights s as a positive result.
func (h *Handler) OK(s string) string {
	return h.okColor.Sprint(s)
}

// WriteJSON writes the envelope with data, the collected warnings and err.
func (h *Handler) WriteJSON(data any, err *Error) error {
	env := &Envelope{Data: data, Warnings: h.warnings, Error: err}
	return env.WriteTo(h.stdout)
}

// Warnings returns the warnings emitted so far.
func (h *Handler) Warnings() []*Warning {
	return h.warnings
}

func (h *Handler) IsJSON() bool   { return h.json }
func (h *Handler) IsSilent() bool { return h.silent }
func (h *Handler) IsStrict() bool { return h.strict }

func (h *Handler) Stdout() io.Writer { return h.stdout }
func (h *Handler) Stderr() io.Writer { return h.stderr }
