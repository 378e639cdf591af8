// Package git wraps the git commands cryptusers needs. Every call is a single
// synchronous invocation in the repository root.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
)

// Repo runs git in one working tree.
type Repo struct {
	Runner  execx.Runner
	Program string
	Root    string
}

// NewRepo returns a Repo for root. An empty program means "git".
func NewRepo(runner execx.Runner, program, root string) *Repo {
	if program == "" {
		program = "git"
	}
	return &Repo{Runner: runner, Program: program, Root: root}
}

func (r *Repo) command(args ...string) execx.Command {
	return execx.Command{Name: r.Program, Args: args, Dir: r.Root}
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	res, err := execx.RunChecked(ctx, r.Runner, r.command(args...))
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// TopLevel returns the root of the working tree containing dir.
func TopLevel(ctx context.Context, runner execx.Runner, program, dir string) (string, error) {
	repo := NewRepo(runner, program, dir)
	out, err := repo.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Version returns the output of `git --version`.
func (r *Repo) Version(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsClean reports whether the working tree has no uncommitted changes to tracked files.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	res, err := r.Runner.Run(ctx, r.command("diff-index", "--quiet", "HEAD", "--"))
	if err != nil {
		return false, err
	}
	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		_, err = execx.Check(r.command("diff-index", "--quiet", "HEAD", "--"), res, nil)
		return false, err
	}
}

// Stage adds path to the index.
func (r *Repo) Stage(ctx context.Context, path string) error {
	if _, err := r.run(ctx, "add", "--", path); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return nil
}

// Commit records all tracked changes with message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	if _, err := r.run(ctx, "commit", "-a", "-m", message); err != nil {
		return fmt.Errorf("failed to commit %q: %w", message, err)
	}
	return nil
}

// ListTrackedFiles lists the paths of all blobs reachable from branch. Paths are
// read NUL-terminated so that core.quotePath never rewrites them.
func (r *Repo) ListTrackedFiles(ctx context.Context, branch string) ([]string, error) {
	out, err := r.run(ctx, "ls-tree", "-r", "-z", "--name-only", branch)
	if err != nil {
		return nil, fmt.Errorf("failed to list files on %s: %w", branch, err)
	}
	return nulSeparated(out), nil
}

// Unstage drops path from the index, leaving the working tree alone. A path that
// is not in the index is a no-op.
func (r *Repo) Unstage(ctx context.Context, path string) error {
	if _, err := r.run(ctx, "rm", "--cached", "-q", "--ignore-unmatch", "--", path); err != nil {
		return fmt.Errorf("failed to unstage %s: %w", path, err)
	}
	return nil
}

// ListLocalConfigKeys returns the names of all keys in the repository-local config.
func (r *Repo) ListLocalConfigKeys(ctx context.Context) ([]string, error) {
	res, err := r.Runner.Run(ctx, r.command("config", "--local", "--list", "--name-only"))
	if err != nil {
		return nil, err
	}
	// exit 1 with no output: empty or missing config section
	if res.ExitCode == 1 && strings.TrimSpace(res.Stdout) == "" {
		return nil, nil
	}
	if _, err := execx.Check(r.command("config", "--local", "--list", "--name-only"), res, nil); err != nil {
		return nil, err
	}
	return nonEmptyLines(res.Stdout), nil
}

// ConfigSet sets a local config key.
func (r *Repo) ConfigSet(ctx context.Context, key, value string) error {
	if _, err := r.run(ctx, "config", "--local", key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// ConfigSetBool sets a local boolean config key.
func (r *Repo) ConfigSetBool(ctx context.Context, key string, value bool) error {
	if _, err := r.run(ctx, "config", "--local", "--bool", key, fmt.Sprint(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// ConfigUnset removes a local config key. Unsetting an absent key is a no-op.
func (r *Repo) ConfigUnset(ctx context.Context, key string) error {
	keys, err := r.ListLocalConfigKeys(ctx)
	if err != nil {
		return err
	}
	if !containsKey(keys, key) {
		return nil
	}
	if _, err := r.run(ctx, "config", "--local", "--unset", key); err != nil {
		return fmt.Errorf("failed to unset %s: %w", key, err)
	}
	return nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		// git prints section and variable names in lower case
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func nulSeparated(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
