package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/aretw0/worldkit/pkg/core"
)

// StagingDirName is the directory, under the staging root, that holds every
// staging copy.
const StagingDirName = "worldkit-staging"

// StagingConfig holds the configuration for staging copies.
type StagingConfig struct {
	// Root defaults to os.TempDir().
	Root string
	// Exclude lists doublestar patterns, relative to the source root, that are
	// neither copied in nor touched on copy-out.
	Exclude []string
	Logger  *slog.Logger
}

// Staging is a private copy of a world directory or file. Edits happen on the
// copy; Mirror writes them back over the source.
type Staging struct {
	ID     string
	Dir    string
	Source string

	single   bool
	exclude  []string
	logger   *slog.Logger
	manifest *manifest
}

// NewStaging copies source into a fresh staging directory. Symbolic links are
// dereferenced and modification times preserved. A failed copy leaves nothing
// behind.
func NewStaging(ctx context.Context, source string, config StagingConfig) (*Staging, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	root := config.Root
	if root == "" {
		root = os.TempDir()
	}
	for _, p := range config.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, &core.StagingError{Op: "copy-in", Path: source, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &core.StagingError{Op: "copy-in", Path: abs, Err: err}
	}

	id := uuid.NewString()
	base := filepath.Join(root, StagingDirName)
	s := &Staging{
		ID:       id,
		Dir:      filepath.Join(base, id),
		Source:   abs,
		single:   !info.IsDir(),
		exclude:  config.Exclude,
		logger:   logger,
		manifest: newManifest(filepath.Join(base, id+".manifest.json"), abs),
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, &core.StagingError{Op: "create", Path: s.Dir, Err: err}
	}

	if s.single {
		err = s.copyIn(abs, filepath.Join(s.Dir, filepath.Base(abs)), filepath.Base(abs), info)
	} else {
		err = s.copyTree(ctx, abs, s.Dir, "", map[string]bool{})
	}
	if err == nil {
		err = s.manifest.Save()
	}
	if err != nil {
		_ = os.RemoveAll(s.Dir)
		_ = os.Remove(s.manifest.Path)
		var se *core.StagingError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &core.StagingError{Op: "copy-in", Path: abs, Err: err}
	}
	logger.Debug("staging created", "source", abs, "dir", s.Dir, "files", s.manifest.Len())
	return s, nil
}

// WorkPath is the path sessions should read and write: the staging directory,
// or the staged file when the source is a single file.
func (s *Staging) WorkPath() string {
	if s.single {
		return filepath.Join(s.Dir, filepath.Base(s.Source))
	}
	return s.Dir
}

// Files returns the number of files tracked in the copy.
func (s *Staging) Files() int { return s.manifest.Len() }

// Excluded reports whether a slash separated relative path matches an exclude pattern.
func (s *Staging) Excluded(rel string) bool {
	for _, p := range s.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (s *Staging) copyTree(ctx context.Context, srcDir, dstDir, rel string, seen map[string]bool) error {
	real, err := filepath.EvalSymlinks(srcDir)
	if err != nil {
		return err
	}
	if seen[real] {
		s.logger.Warn("skipping symlink loop", "path", srcDir)
		return nil
	}
	seen[real] = true

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		relPath := path.Join(rel, e.Name())
		if s.Excluded(relPath) || strings.HasPrefix(e.Name(), TempFilePrefix) {
			continue
		}
		src := filepath.Join(srcDir, e.Name())
		dst := filepath.Join(dstDir, e.Name())

		info, err := os.Stat(src)
		if err != nil {
			if e.Type()&fs.ModeSymlink != 0 {
				s.logger.Warn("skipping broken symlink", "path", src)
				continue
			}
			return err
		}
		switch {
		case info.IsDir():
			if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
				return err
			}
			if err := s.copyTree(ctx, src, dst, relPath, seen); err != nil {
				return err
			}
			_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
		case info.Mode().IsRegular():
			if err := s.copyIn(src, dst, relPath, info); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Staging) copyIn(src, dst, rel string, info os.FileInfo) error {
	if err := copyFile(src, dst, info); err != nil {
		return err
	}
	s.manifest.Set(rel, info)
	return nil
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Mirror writes the staging copy back over the source: changed and new files
// are copied out, files deleted from the copy are deleted from the source.
// Files matching an exclude pattern are left alone.
func (s *Staging) Mirror(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.single {
		src := s.WorkPath()
		info, err := os.Stat(src)
		if err != nil {
			return &core.StagingError{Op: "copy-out", Path: src, Err: err}
		}
		if err := copyFileAtomic(src, s.Source, info); err != nil {
			return &core.StagingError{Op: "copy-out", Path: s.Source, Err: err}
		}
		s.manifest.Set(filepath.Base(s.Source), info)
		return s.saveManifest()
	}

	present := make(map[string]bool)
	var copied int
	err := filepath.WalkDir(s.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.Excluded(rel) {
			return nil
		}
		present[rel] = true

		info, err := d.Info()
		if err != nil {
			return err
		}
		dst := filepath.Join(s.Source, filepath.FromSlash(rel))
		if s.unchanged(rel, info, dst) {
			return nil
		}
		if err := copyFileAtomic(p, dst, info); err != nil {
			return &core.StagingError{Op: "copy-out", Path: dst, Err: err}
		}
		s.manifest.Set(rel, info)
		copied++
		return nil
	})
	if err != nil {
		var se *core.StagingError
		if errors.As(err, &se) {
			return err
		}
		return &core.StagingError{Op: "copy-out", Path: s.Dir, Err: err}
	}

	stale := s.manifest.Missing(present)
	slices.Sort(stale)
	for _, rel := range stale {
		dst := filepath.Join(s.Source, filepath.FromSlash(rel))
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &core.StagingError{Op: "copy-out", Path: dst, Err: err}
		}
		s.manifest.Delete(rel)
	}
	s.logger.Debug("staging mirrored", "source", s.Source, "copied", copied, "removed", len(stale))
	return s.saveManifest()
}

// unchanged reports whether both sides still match the last sync point.
func (s *Staging) unchanged(rel string, staged os.FileInfo, dst string) bool {
	e, ok := s.manifest.Get(rel)
	if !ok || !e.matches(staged) {
		return false
	}
	src, err := os.Stat(dst)
	return err == nil && e.matches(src)
}

func (s *Staging) saveManifest() error {
	if err := s.manifest.Save(); err != nil {
		return &core.StagingError{Op: "copy-out", Path: s.manifest.Path, Err: err}
	}
	return nil
}

// Remove deletes the staging copy and its manifest.
func (s *Staging) Remove() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return &core.StagingError{Op: "remove", Path: s.Dir, Err: err}
	}
	if err := os.Remove(s.manifest.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &core.StagingError{Op: "remove", Path: s.manifest.Path, Err: err}
	}
	s.logger.Debug("staging removed", "dir", s.Dir)
	return nil
}
