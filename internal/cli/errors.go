package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/backup"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gitcrypt"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/keyserver"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

// ExitCode represents the exit code for an error.
type ExitCode = output.ExitCode

// Exit code constants - aliases to output package.
const (
	ExitSuccess           = output.ExitSuccess
	ExitGeneralError      = output.ExitGeneralError
	ExitConfigError       = output.ExitConfigError
	ExitPreconditionError = output.ExitPreconditionError
	ExitToolError         = output.ExitToolError
	ExitIntegrityError    = output.ExitIntegrityError
	ExitValidationError   = output.ExitValidationError
	ExitRotationFailed    = output.ExitRotationFailed
)

// Error is the coded error returned by CLI operations.
type Error = output.Error

// NewError creates a new CLI error.
func NewError(code output.Code, message string) *Error {
	return output.NewError(code, message)
}

// NewErrorf creates a new CLI error with a formatted message.
func NewErrorf(code output.Code, format string, args ...any) *Error {
	return output.NewErrorf(code, format, args...)
}

// FromError classifies err by its type. The message is always err's own.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var (
		outErr       *output.Error
		precondErr   *rotate.PreconditionError
		integrityErr *backup.IntegrityError
		stepErr      *rotate.StepError
		notFoundErr  *gitcrypt.NotFoundError
		validErr     *gpg.ValidationError
		toolErr      *execx.ExternalToolError
		lookupErr    *keyserver.LookupErrors
	)

	switch {
	case errors.As(err, &outErr):
		return outErr
	case errors.As(err, &precondErr):
		code := output.CodeGeneralError
		switch precondErr.Reason {
		case rotate.ReasonLocked:
			code = output.CodeRepoLocked
		case rotate.ReasonDirty:
			code = output.CodeRepoDirty
		case rotate.ReasonQuorum:
			code = output.CodeQuorumNotMet
		}
		return NewError(code, err.Error()).WithCause(err)
	case errors.As(err, &integrityErr):
		e := NewError(output.CodeIntegrityError, err.Error()).WithCause(err).
			WithDetail("path", integrityErr.Path)
		if errors.As(err, &stepErr) {
			e.WithDetail("state", stepErr.Reached.String())
		}
		return e
	case errors.As(err, &stepErr):
		return NewError(output.CodeRotationFailed, err.Error()).WithCause(err).
			WithDetail("state", stepErr.Reached.String()).
			WithDetail("step", stepErr.Step)
	case errors.As(err, &notFoundErr):
		return NewError(output.CodeNotInitialized, err.Error()).WithCause(err).
			WithDetail("path", notFoundErr.Path)
	case errors.As(err, &validErr):
		return NewError(output.CodeValidationError, err.Error()).WithCause(err)
	case errors.As(err, &toolErr):
		return NewError(output.CodeExternalToolError, err.Error()).WithCause(err).
			WithDetail("command", toolErr.Command).
			WithDetail("exit_code", toolErr.ExitCode)
	case errors.As(err, &lookupErr):
		return NewError(output.CodeKeyserverError, err.Error()).WithCause(err)
	}
	return NewError(output.CodeGeneralError, err.Error()).WithCause(err)
}

// PrintError prints an error to w and returns the exit code.
func PrintError(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	e := FromError(err)
	if e.Message != "" {
		_, _ = fmt.Fprintf(w, "error: %s\n", e.Message)
	}
	return e.ExitCode()
}

// ExitWithError exits the program with the given error.
func ExitWithError(err error) {
	code := PrintError(os.Stderr, err)
	os.Exit(code.Int())
}
