package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
)

// VersionInfo represents version information as a structured object.
type VersionInfo struct {
	Version        string `json:"version"`
	Commit         string `json:"commit"`
	BuiltAt        string `json:"builtAt"`
	GoBuildVersion string `json:"goBuildVersion"`
}

func newVersionInfo(version, commit, date string) VersionInfo {
	if version == "" {
		version = "unknown"
	}
	if commit == "" {
		commit = "none"
	}
	if date == "" {
		date = "unknown"
	}
	return VersionInfo{Version: version, Commit: commit, BuiltAt: date, GoBuildVersion: runtime.Version()}
}

// PrintVersion prints the version information
func PrintVersion(w io.Writer, version, commit, date string) {
	info := newVersionInfo(version, commit, date)
	_, _ = fmt.Fprintf(w, "version: %s\n", info.Version)
	_, _ = fmt.Fprintf(w, "commit: %s\n", info.Commit)
	_, _ = fmt.Fprintf(w, "built at: %s\n", info.BuiltAt)
	_, _ = fmt.Fprintf(w, "go: %s\n", info.GoBuildVersion)
}

// PrintVersionJSON prints version information as JSON.
func PrintVersionJSON(w io.Writer, version, commit, date string) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(newVersionInfo(version, commit, date))
}
