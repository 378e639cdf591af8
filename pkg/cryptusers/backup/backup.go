// Package backup snapshots repository files into a private temporary directory
// and restores them.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// SnapshotPrefix names the temporary snapshot directories.
const SnapshotPrefix = "git-crypt-backup-"

// Directory modes for parents created while copying. Snapshots stay private;
// restored directories are ordinary working tree directories, subject to umask.
const (
	snapshotDirPerm fs.FileMode = 0o700
	restoreDirPerm  fs.FileMode = 0o755
)

// IntegrityError reports a copy whose size differs from its source.
type IntegrityError struct {
	Path string
	Got  int64
	Want int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s backup size: got=%d, want=%d", e.Path, e.Got, e.Want)
}

// Manager copies relative path sets between a repository and snapshots.
type Manager struct {
	// TempDir is the parent of new snapshots; os.TempDir() when empty.
	TempDir string

	copyFile func(src, dst string, perm fs.FileMode) error
}

// NewManager returns a Manager creating snapshots under tempDir.
func NewManager(tempDir string) *Manager {
	return &Manager{TempDir: tempDir, copyFile: copyFile}
}

// Snapshot copies paths (relative to sourceRoot) into a new snapshot directory and
// returns its root. On failure the partial snapshot is removed.
func (m *Manager) Snapshot(sourceRoot string, paths []string) (string, error) {
	dir, err := os.MkdirTemp(m.TempDir, SnapshotPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := m.copyAll(sourceRoot, dir, paths, snapshotDirPerm); err != nil {
		_ = m.Release(dir)
		return "", err
	}
	return dir, nil
}

// Restore copies paths from a snapshot back into targetRoot.
func (m *Manager) Restore(snapshot, targetRoot string, paths []string) error {
	if snapshot == "" {
		return errors.New("no snapshot to restore from")
	}
	return m.copyAll(snapshot, targetRoot, paths, restoreDirPerm)
}

// Release removes a snapshot. Empty or already removed paths are a no-op.
func (m *Manager) Release(snapshot string) error {
	if snapshot == "" {
		return nil
	}
	if err := os.RemoveAll(snapshot); err != nil {
		return fmt.Errorf("failed to remove snapshot %s: %w", snapshot, err)
	}
	return nil
}

func (m *Manager) copyAll(srcRoot, dstRoot string, paths []string, dirPerm fs.FileMode) error {
	cp := m.copyFile
	if cp == nil {
		cp = copyFile
	}
	for _, rel := range paths {
		src := filepath.Join(srcRoot, filepath.FromSlash(rel))
		dst := filepath.Join(dstRoot, filepath.FromSlash(rel))

		info, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := cp(src, dst, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to copy %s: %w", rel, err)
		}
		if err := verifySize(rel, src, dst); err != nil {
			return err
		}
	}
	return nil
}

// verifySize re-stats both sides after a copy.
func verifySize(rel, src, dst string) error {
	want, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	got, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("failed to stat copy of %s: %w", rel, err)
	}
	if got.Size() != want.Size() {
		return &IntegrityError{Path: rel, Got: got.Size(), Want: want.Size()}
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
