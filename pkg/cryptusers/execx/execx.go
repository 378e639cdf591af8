// Package execx runs the external tools cryptusers delegates to (git, git-crypt, gpg, grep)
// and captures their output.
//
// A non-zero exit status is reported through Result.ExitCode, not as an error. Callers that
// require success wrap the call with Check.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Command describes a single process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Stdin io.Reader
	Env   []string // appended to the current environment
}

// String renders the command line for error messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

type detachedKey struct{}

// Detach marks ctx so that commands run with it are started outside the caller's
// process group. A terminal interrupt then reaches cryptusers but not the child.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, detachedKey{}, true)
}

// Detached reports whether ctx was marked by Detach.
func Detached(ctx context.Context) bool {
	v, _ := ctx.Value(detachedKey{}).(bool)
	return v
}

// Exec is the os/exec backed Runner.
type Exec struct{}

func (Exec) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	if Detached(ctx) {
		setDetached(cmd)
	}
	return cmd
}

// Run starts the command and waits for it. The returned error is non-nil only when the
// process could not be started or the context expired.
func (e Exec) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := e.command(ctx, c)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", c, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return nil, fmt.Errorf("failed to run %s: %w", c.Name, err)
}

// ExternalToolError reports a delegated command that exited non-zero.
type ExternalToolError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Check turns a non-zero exit into an *ExternalToolError.
func Check(cmd Command, res *Result, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, &ExternalToolError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

// RunChecked runs cmd and fails on a non-zero exit.
func RunChecked(ctx context.Context, r Runner, cmd Command) (*Result, error) {
	res, err := r.Run(ctx, cmd)
	return Check(cmd, res, err)
}
