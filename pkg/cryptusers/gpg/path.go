package gpg

import (
	"fmt"
	"os/exec"
)

// programNames lists the keyring binaries to try, in order of preference.
var programNames = []string{"gpg", "gpg2"}

// ResolveProgram returns the path to the GPG executable.
// Priority:
// 1. Configured path (from config gpg_program)
// 2. "gpg", then "gpg2" in PATH
// 3. Platform-specific common locations
func ResolveProgram(configured string) (string, error) {
	if configured != "" {
		if !isExecutable(configured) {
			return "", fmt.Errorf("configured gpg program is not an executable: %s", configured)
		}
		return configured, nil
	}

	if path := DetectGPGPath(); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("gpg not found: install GnuPG or set gpg_program in the config")
}

// DetectGPGPath attempts to find GPG in PATH and then in common locations.
// Returns the first match, or an empty string if none is found.
func DetectGPGPath() string {
	for _, name := range programNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, path := range commonGPGPaths() {
		if isExecutable(path) {
			return path
		}
	}

	return ""
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	if _, err := exec.LookPath(path); err == nil {
		return true
	}

	// LookPath may fail for absolute paths, try direct stat
	return isExecutableFile(path)
}
