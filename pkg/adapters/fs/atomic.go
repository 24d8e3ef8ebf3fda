package fs

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	// TempFilePrefix is the prefix of the temp files used by atomic writes.
	// Staging never copies files carrying it.
	TempFilePrefix = "worldkit-tmp-"
)

// WriteFileAtomic replaces filename with data through a temp file renamed
// over it. Parent directories are created. A zero perm keeps the mode of an
// existing file, or uses 0644 for a new one.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
		if info, err := os.Stat(filename); err == nil {
			perm = info.Mode().Perm()
		}
	}
	return writeAtomic(filename, perm, time.Time{}, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// copyFileAtomic copies src over dst the same way, keeping src's mode and
// modification time so the manifest sees the copy as unchanged.
func copyFileAtomic(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeAtomic(dst, info.Mode().Perm()|0o600, info.ModTime(), func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

func writeAtomic(filename string, perm os.FileMode, mtime time.Time, fill func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if err := fill(tmpFile); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(tmpFile.Name(), mtime, mtime); err != nil {
			return fmt.Errorf("failed to set times: %w", err)
		}
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		if errors.Is(err, iofs.ErrPermission) {
			return fmt.Errorf("%s is not writable: %w", filename, err)
		}
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
