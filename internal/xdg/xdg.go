package xdg

import (
	"os"
	"os/user"
	"path/filepath"
)

const appName = "cryptusers"

// Paths holds the XDG base directories cryptusers uses
type Paths struct {
	ConfigHome string
	RuntimeDir string // empty when XDG_RUNTIME_DIR is unset
}

// NewPaths resolves the XDG directories from the environment, falling back to the XDG defaults
// for unset variables
func NewPaths() (Paths, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := getHomeDir()
		if err != nil {
			return Paths{}, err
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	return Paths{
		ConfigHome: configHome,
		RuntimeDir: os.Getenv("XDG_RUNTIME_DIR"),
	}, nil
}

func getHomeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, nil
	}
	currentUser, err := user.Current()
	if err != nil {
		return "", err
	}
	return currentUser.HomeDir, nil
}

// ConfigPath returns the path to the config file
func (p Paths) ConfigPath() string {
	return filepath.Join(p.ConfigHome, appName, "config")
}

// SnapshotDir returns where plaintext snapshots are created: the per-user runtime
// directory when there is one, otherwise "" (the system temp dir)
func (p Paths) SnapshotDir() string {
	if p.RuntimeDir == "" {
		return ""
	}
	info, err := os.Stat(p.RuntimeDir)
	if err != nil || !info.IsDir() {
		return ""
	}
	return p.RuntimeDir
}
