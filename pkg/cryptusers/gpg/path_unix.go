//go:build unix

package gpg

import (
	"os"

	"golang.org/x/sys/unix"
)

// commonGPGPaths returns common GPG installation paths on Unix systems.
func commonGPGPaths() []string {
	return []string{
		"/usr/bin/gpg",
		"/usr/bin/gpg2",
		"/usr/local/bin/gpg",
		"/opt/homebrew/bin/gpg", // macOS Homebrew on Apple Silicon
		"/opt/local/bin/gpg",    // MacPorts
	}
}

// isExecutableFile reports whether path is a regular file the current user may execute.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
