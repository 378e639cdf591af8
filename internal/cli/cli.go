package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cryptusers/cryptusers/internal/xdg"
	"golang.org/x/term"

	"github.com/cryptusers/cryptusers/pkg/cryptusers/backup"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/config"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/execx"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/git"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gitcrypt"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/gpg"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/keyserver"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/output"
	"github.com/cryptusers/cryptusers/pkg/cryptusers/rotate"
)

// ResolveConfigPath returns the effective config path considering:
// 1. Explicit configPath argument (highest priority, e.g. -c flag)
// 2. CRYPTUSERS_CONFIG env var
// 3. XDG default path
// If configPath is specified and CRYPTUSERS_CONFIG is set, prints a warning to stderr (unless silent).
func ResolveConfigPath(configPath string, silent bool, stderr io.Writer) string {
	if configPath != "" {
		if !silent && os.Getenv("CRYPTUSERS_CONFIG") != "" {
			_, _ = fmt.Fprintf(stderr, "warning: CRYPTUSERS_CONFIG environment variable ignored because -c flag was specified\n")
		}
		return configPath
	}
	if envConfig := os.Getenv("CRYPTUSERS_CONFIG"); envConfig != "" {
		return envConfig
	}
	xdgPaths, _ := xdg.NewPaths()
	return xdgPaths.ConfigPath()
}

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	RepoDir    string // any directory inside the working tree; empty = cwd
	Silent     bool
	JSON       bool
}

// CLI represents the command-line interface
type CLI struct {
	root string

	keyring    Keyring
	repo       Repository
	keyservers keyserver.Lookuper
	rotator    Rotator

	// progress is nil when stderr is not a terminal
	progress *progress
	output   *output.Handler
}

// NewCLI loads the configuration and wires the collaborators for the repository
// containing opts.RepoDir.
func NewCLI(ctx context.Context, opts Options, stdout, stderr io.Writer) (*CLI, *Error) {
	xdgPaths, err := xdg.NewPaths()
	if err != nil {
		return nil, NewErrorf(output.CodeConfigInvalid, "failed to get XDG paths: %v", err)
	}

	configPath := ResolveConfigPath(opts.ConfigPath, opts.Silent, stderr)
	cfg, cliErr := loadConfig(configPath)
	if cliErr != nil {
		return nil, cliErr
	}

	out := output.NewHandler(stdout, stderr,
		output.WithSilent(opts.Silent),
		output.WithStrict(cfg.Strict),
		output.WithJSON(opts.JSON),
	)

	runner := execx.Exec{}

	gitProgram := cfg.GitProgram
	if gitProgram == "" {
		gitProgram = "git"
	}
	dir := opts.RepoDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, NewErrorf(output.CodeGeneralError, "failed to get working directory: %v", err)
		}
	}
	root, err := git.TopLevel(ctx, runner, gitProgram, dir)
	if err != nil {
		return nil, NewErrorf(output.CodeRepoNotFound, "%s is not inside a git working tree: %v", dir, err).WithCause(err)
	}

	gpgProgram, err := gpg.ResolveProgram(cfg.GPGProgram)
	if err != nil {
		return nil, NewErrorf(output.CodeGPGError, "%v", err).WithCause(err)
	}

	gitRepo := git.NewRepo(runner, gitProgram, root)
	cryptRepo := gitcrypt.New(runner, gitRepo,
		gitcrypt.WithProgram(cfg.GitCryptProgram),
		gitcrypt.WithBranch(cfg.PrimaryBranch),
		gitcrypt.WithLayout(cfg.StateDir, cfg.KeyExtension),
	)
	keyring := gpg.NewClient(runner, gpgProgram)

	c := &CLI{
		root:       root,
		keyring:    keyring,
		repo:       cryptRepo,
		keyservers: keyserver.NewPool(cfg.Keyservers, keyserver.Options{Timeout: cfg.KeyserverTimeout}),
		output:     out,
	}
	if f, ok := stderr.(*os.File); ok && !opts.JSON && !opts.Silent && term.IsTerminal(int(f.Fd())) {
		c.progress = newProgress(f)
	}

	c.rotator = &rotate.Orchestrator{
		Root:         root,
		Inspector:    cryptRepo,
		VCS:          gitRepo,
		Vault:        cryptRepo,
		Keyring:      keyring,
		Backups:      backup.NewManager(xdgPaths.SnapshotDir()),
		Policy:       rotate.QuorumPolicy{Numerator: cfg.Quorum.Numerator, Denominator: cfg.Quorum.Denominator},
		Output:       out,
		OnTransition: c.onTransition,
	}
	return c, nil
}

func loadConfig(path string) (config.Config, *Error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, NewErrorf(output.CodeConfigParseError, "failed to load config %s: %v", path, err).WithCause(err)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, NewErrorf(output.CodeConfigInvalid, "%v", err).WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, NewErrorf(output.CodeConfigInvalid, "invalid config %s: %v", path, err).WithCause(err)
	}
	return cfg, nil
}

// Output returns the unified output handler for this CLI instance.
func (c *CLI) Output() *output.Handler {
	return c.output
}

// Root returns the repository working tree the CLI operates on.
func (c *CLI) Root() string {
	return c.root
}

// Close stops the progress indicator if it is still running.
func (c *CLI) Close() error {
	if c.progress != nil {
		c.progress.Stop()
	}
	return nil
}
