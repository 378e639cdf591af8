// Package config loads the cryptusers configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Quorum is the fraction of trusted identities that must be reachable before a
// rotation may start.
type Quorum struct {
	Numerator   int `yaml:"numerator" json:"numerator" env:"CRYPTUSERS_QUORUM_NUMERATOR"`
	Denominator int `yaml:"denominator" json:"denominator" env:"CRYPTUSERS_QUORUM_DENOMINATOR"`
}

// Config is the cryptusers configuration.
type Config struct {
	GPGProgram       string        `yaml:"gpg_program" json:"gpg_program" env:"CRYPTUSERS_GPG_PROGRAM"`                   // empty = gpg, then gpg2, from PATH
	GitProgram       string        `yaml:"git_program" json:"git_program" env:"CRYPTUSERS_GIT_PROGRAM"`                   // empty = git from PATH
	GitCryptProgram  string        `yaml:"git_crypt_program" json:"git_crypt_program" env:"CRYPTUSERS_GIT_CRYPT_PROGRAM"` // written into the filter hooks
	Keyservers       []string      `yaml:"keyservers" json:"keyservers" env:"CRYPTUSERS_KEYSERVERS" envSeparator:","`
	KeyserverTimeout time.Duration `yaml:"keyserver_timeout" json:"keyserver_timeout" env:"CRYPTUSERS_KEYSERVER_TIMEOUT"`
	PrimaryBranch    string        `yaml:"primary_branch" json:"primary_branch" env:"CRYPTUSERS_PRIMARY_BRANCH"`
	StateDir         string        `yaml:"state_dir" json:"state_dir" env:"CRYPTUSERS_STATE_DIR"`
	KeyExtension     string        `yaml:"key_extension" json:"key_extension" env:"CRYPTUSERS_KEY_EXTENSION"`
	Quorum           Quorum        `yaml:"quorum" json:"quorum"`
	Strict           bool          `yaml:"strict" json:"strict" env:"CRYPTUSERS_STRICT"` // warnings become errors
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Keyservers:       []string{"https://pgp.mit.edu", "https://keyserver.pgp.com"},
		KeyserverTimeout: 30 * time.Second,
		PrimaryBranch:    "master",
		StateDir:         ".git-crypt",
		KeyExtension:     "gpg",
		Quorum:           Quorum{Numerator: 1, Denominator: 2},
	}
}

// Load reads the config at path on top of the defaults. A missing or empty file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with CRYPTUSERS_* environment variables. Unset variables
// leave the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings no command can work with.
func (c Config) Validate() error {
	var errs []error
	if c.Quorum.Denominator <= 0 {
		errs = append(errs, fmt.Errorf("quorum.denominator must be positive, got %d", c.Quorum.Denominator))
	}
	if c.Quorum.Numerator < 0 || c.Quorum.Numerator > c.Quorum.Denominator {
		errs = append(errs, fmt.Errorf("quorum.numerator must be between 0 and %d, got %d",
			c.Quorum.Denominator, c.Quorum.Numerator))
	}
	if strings.Trim(c.KeyExtension, ". ") == "" {
		errs = append(errs, errors.New("key_extension must not be empty"))
	}
	if strings.TrimSpace(c.StateDir) == "" || filepath.IsAbs(c.StateDir) {
		errs = append(errs, fmt.Errorf("state_dir must be a relative path, got %q", c.StateDir))
	}
	if c.KeyserverTimeout < 0 {
		errs = append(errs, fmt.Errorf("keyserver_timeout must not be negative, got %s", c.KeyserverTimeout))
	}
	return errors.Join(errs...)
}
