// Package gitcrypt inspects and drives a git-crypt protected repository.
package gitcrypt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/git"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/identity"
)

const (
	DefaultStateDir     = ".git-crypt"
	DefaultKeyExtension = "gpg"
	DefaultBranch       = "master"

	// internalStateDir lives inside .git.
	internalStateDir = "git-crypt"

	// lockMarkerPattern matches the header git-crypt writes in front of encrypted blobs.
	lockMarkerPattern = `\x00GITCRYPT`

	// grepBatchSize bounds the number of paths passed to one grep call.
	grepBatchSize = 512
)

// keysPath is the directory holding one file per trusted identity, relative to the state dir.
var keysPath = []string{"keys", "default", "0"}

// Hook config keys. They are always set or unset as a group.
const (
	KeyDiffTextconv   = "diff.git-crypt.textconv"
	KeyFilterClean    = "filter.git-crypt.clean"
	KeyFilterRequired = "filter.git-crypt.required"
	KeyFilterSmudge   = "filter.git-crypt.smudge"
)

// HookKeys lists the hook config keys in the order they are written.
var HookKeys = []string{KeyDiffTextconv, KeyFilterClean, KeyFilterRequired, KeyFilterSmudge}

// NotFoundError reports missing repository structure.
type NotFoundError struct {
	Path string
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.What, e.Path)
}

// Repo is a git-crypt protected working tree.
type Repo struct {
	Runner execx.Runner
	Git    *git.Repo
	Root   string

	// Program is the git-crypt executable written into the filter hooks.
	// Resolved from PATH when empty.
	Program      string
	GrepProgram  string
	Branch       string
	StateDir     string
	KeyExtension string
}

// Option configures a Repo.
type Option func(*Repo)

// WithProgram sets the git-crypt executable.
func WithProgram(path string) Option {
	return func(r *Repo) {
		if path != "" {
			r.Program = path
		}
	}
}

// WithBranch sets the branch scanned by IsLocked.
func WithBranch(branch string) Option {
	return func(r *Repo) {
		if branch != "" {
			r.Branch = branch
		}
	}
}

// WithLayout sets the state directory and the key file extension.
func WithLayout(stateDir, ext string) Option {
	return func(r *Repo) {
		if stateDir != "" {
			r.StateDir = stateDir
		}
		if ext != "" {
			r.KeyExtension = strings.TrimPrefix(ext, ".")
		}
	}
}

// New returns a Repo rooted at the working tree of g.
func New(runner execx.Runner, g *git.Repo, opts ...Option) *Repo {
	r := &Repo{
		Runner:       runner,
		Git:          g,
		Root:         g.Root,
		GrepProgram:  "grep",
		Branch:       DefaultBranch,
		StateDir:     DefaultStateDir,
		KeyExtension: DefaultKeyExtension,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo) crypt(args ...string) execx.Command {
	return execx.Command{Name: r.Git.Program, Args: append([]string{"crypt"}, args...), Dir: r.Root}
}

// Version returns the output of `git crypt version`.
func (r *Repo) Version(ctx context.Context) (string, error) {
	res, err := execx.RunChecked(ctx, r.Runner, r.crypt("version"))
	if err != nil {
		return "", fmt.Errorf("git-crypt is not available: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Status runs `git crypt status`.
func (r *Repo) Status(ctx context.Context) (Status, error) {
	res, err := execx.RunChecked(ctx, r.Runner, r.crypt("status"))
	if err != nil {
		return Status{}, fmt.Errorf("failed to query git-crypt status: %w", err)
	}
	return ParseStatus(res.Stdout), nil
}

// IsLocked reports whether any file tracked on the primary branch still holds
// the git-crypt header, i.e. the working tree has not been unlocked.
func (r *Repo) IsLocked(ctx context.Context) (bool, error) {
	files, err := r.Git.ListTrackedFiles(ctx, r.Branch)
	if err != nil {
		return false, err
	}

	for start := 0; start < len(files); start += grepBatchSize {
		end := min(start+grepBatchSize, len(files))
		cmd := execx.Command{
			Name: r.GrepProgram,
			Args: append([]string{"-qsaP", lockMarkerPattern, "--"}, files[start:end]...),
			Dir:  r.Root,
		}
		res, err := r.Runner.Run(ctx, cmd)
		if err != nil {
			return false, fmt.Errorf("failed to scan for encrypted files: %w", err)
		}
		switch {
		case res.ExitCode == 0:
			return true, nil
		case res.ExitCode == 1:
		case strings.TrimSpace(res.Stderr) == "":
			// -s hides unreadable files, e.g. deleted from the working tree
		default:
			_, err = execx.Check(cmd, res, nil)
			return false, fmt.Errorf("failed to scan for encrypted files: %w", err)
		}
	}
	return false, nil
}

// KeysDir returns the directory holding the trusted identity files.
func (r *Repo) KeysDir() string {
	return filepath.Join(append([]string{r.Root, r.StateDir}, keysPath...)...)
}

// TrustedIdentities lists the fingerprints declared in the keys directory, in
// directory order. A repository that was never initialized is a *NotFoundError.
func (r *Repo) TrustedIdentities() ([]string, error) {
	dir := r.KeysDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: dir, What: "git-crypt keys directory"}
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	pattern, err := regexp.Compile(`^\w+\.` + regexp.QuoteMeta(r.KeyExtension) + `$`)
	if err != nil {
		return nil, fmt.Errorf("invalid key extension %q: %w", r.KeyExtension, err)
	}

	var fps []string
	for _, e := range entries {
		if e.IsDir() || !pattern.MatchString(e.Name()) {
			continue
		}
		fps = append(fps, strings.TrimSuffix(e.Name(), "."+r.KeyExtension))
	}
	return fps, nil
}

// Init creates a fresh vault with a new symmetric key.
func (r *Repo) Init(ctx context.Context) error {
	if _, err := execx.RunChecked(ctx, r.Runner, r.crypt("init")); err != nil {
		return fmt.Errorf("git crypt init failed: %w", err)
	}
	return nil
}

// AddUser authorizes fingerprint without committing.
func (r *Repo) AddUser(ctx context.Context, fingerprint string) error {
	fp := identity.NormalizeFingerprint(fingerprint)
	if _, err := execx.RunChecked(ctx, r.Runner, r.crypt("add-gpg-user", "--no-commit", "--trusted", fp)); err != nil {
		return fmt.Errorf("git crypt add-gpg-user %s failed: %w", fp, err)
	}
	return nil
}

// DiscardUser undoes an uncommitted AddUser: the identity's key file is dropped
// from the index and deleted from the working tree.
func (r *Repo) DiscardUser(ctx context.Context, fingerprint string) error {
	name := identity.NormalizeFingerprint(fingerprint) + "." + r.KeyExtension
	rel := path.Join(append(append([]string{filepath.ToSlash(r.StateDir)}, keysPath...), name)...)

	if err := r.Git.Unstage(ctx, rel); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(r.Root, filepath.FromSlash(rel))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	return nil
}

// RemoveHooks unsets the filter and diff hooks. Absent keys are skipped.
func (r *Repo) RemoveHooks(ctx context.Context) error {
	for _, key := range HookKeys {
		if err := r.Git.ConfigUnset(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// InstallHooks writes the filter and diff hooks for the git-crypt executable.
func (r *Repo) InstallHooks(ctx context.Context) error {
	program, err := r.resolveProgram()
	if err != nil {
		return err
	}
	quoted := `"` + program + `"`

	for _, key := range HookKeys {
		switch key {
		case KeyFilterRequired:
			err = r.Git.ConfigSetBool(ctx, key, true)
		case KeyDiffTextconv:
			err = r.Git.ConfigSet(ctx, key, quoted+" diff")
		case KeyFilterClean:
			err = r.Git.ConfigSet(ctx, key, quoted+" clean")
		case KeyFilterSmudge:
			err = r.Git.ConfigSet(ctx, key, quoted+" smudge")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) resolveProgram() (string, error) {
	if r.Program != "" {
		return r.Program, nil
	}
	path, err := exec.LookPath("git-crypt")
	if err != nil {
		return "", fmt.Errorf("git-crypt not found in PATH: %w", err)
	}
	r.Program = path
	return path, nil
}

// DestroyState removes the vault's state in the working tree and inside .git.
func (r *Repo) DestroyState() error {
	for _, dir := range []string{
		filepath.Join(r.Root, r.StateDir),
		filepath.Join(r.Root, ".git", internalStateDir),
	} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}
