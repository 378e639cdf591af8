//go:build windows

package gpg

import (
	"os"
	"path/filepath"
)

// commonGPGPaths returns common GPG installation paths on Windows.
func commonGPGPaths() []string {
	paths := []string{
		`C:\Program Files (x86)\GnuPG\bin\gpg.exe`,
		`C:\Program Files\GnuPG\bin\gpg.exe`,
		// Git for Windows includes GPG
		`C:\Program Files\Git\usr\bin\gpg.exe`,
	}

	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		paths = append(paths, filepath.Join(localAppData, "Programs", "GnuPG", "bin", "gpg.exe"))
	}

	return paths
}

// isExecutableFile checks if a file exists on Windows; the .exe extension is what makes
// it executable.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
