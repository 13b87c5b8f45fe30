// Package workspace manages the output directory where the uploaded input and
// the analyzer's artifacts are staged.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pitchtrack-go/domain/artifact"
)

var (
	// ErrOutsideWorkspace is returned when a relative path escapes the output directory.
	ErrOutsideWorkspace = errors.New("path is outside the output directory")
	// ErrNoArtifact is returned when no matching artifact exists.
	ErrNoArtifact = errors.New("artifact not found")
)

// DirName is the name of the output directory under the desktop.
const DirName = "output"

// Config holds configuration for a Workspace.
type Config struct {
	// Dir overrides the default <desktop>/output location.
	Dir    string
	Logger *slog.Logger
}

// Workspace is the single well-known output directory.
type Workspace struct {
	dir    string
	logger *slog.Logger
}

// DefaultDir returns <home>/Desktop/output.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, "Desktop", DirName), nil
}

// New resolves the output directory path. It does not touch the filesystem.
func New(cfg *Config) (*Workspace, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	return &Workspace{dir: filepath.Clean(abs), logger: cfg.Logger}, nil
}

// Dir returns the absolute output directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Ensure creates the output directory and any missing parents.
// Repeated calls are no-ops once it exists.
func (w *Workspace) Ensure() (string, error) {
	fi, err := os.Stat(w.dir)
	if err == nil {
		if !fi.IsDir() {
			return "", fmt.Errorf("output path %s is not a directory", w.dir)
		}
		return w.dir, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat output directory: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	w.logger.Info("Created output directory", "path", w.dir)
	return w.dir, nil
}

// Resolve joins rel onto the output directory, rejecting absolute paths and
// anything that lands outside the directory. Symlinks are followed before the
// containment check.
func (w *Workspace) Resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: %q", ErrOutsideWorkspace, rel)
	}

	joined := filepath.Join(w.dir, rel)
	if !within(w.dir, joined) {
		return "", fmt.Errorf("%w: %q", ErrOutsideWorkspace, rel)
	}

	root, err := realPath(w.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	target, err := realPath(joined)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", rel, err)
	}
	if !within(root, target) {
		w.logger.Warn("Rejected path leaving the output directory", "path", rel, "target", target)
		return "", fmt.Errorf("%w: %q", ErrOutsideWorkspace, rel)
	}

	return joined, nil
}

// within reports whether path is strictly below dir.
func within(dir, path string) bool {
	r, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return r != "." && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// realPath evaluates symlinks in the longest existing prefix of p and
// appends the part that does not exist yet.
func realPath(p string) (string, error) {
	var rest []string
	cur := filepath.Clean(p)
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		rest = append(rest, filepath.Base(cur))
		cur = parent
	}
}

// Path returns the absolute path of a well-known artifact name.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Exists reports whether a regular file named name is in the output directory.
func (w *Workspace) Exists(name string) bool {
	p, err := w.Resolve(name)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// WriteInput atomically replaces the input video with data.
func (w *Workspace) WriteInput(data []byte) (string, error) {
	if _, err := w.Ensure(); err != nil {
		return "", err
	}
	dst := w.Path(artifact.InputVideo)
	if err := writeFileAtomic(dst, bytes.NewReader(data), 0o644); err != nil {
		return "", fmt.Errorf("failed to write input video: %w", err)
	}
	return dst, nil
}

// CopyOut copies src to dst. dst is written through a temporary file in its
// own directory, so a failed copy leaves nothing behind.
func (w *Workspace) CopyOut(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("source %s is a directory", src)
	}

	if err := writeFileAtomic(dst, in, 0o644); err != nil {
		return fmt.Errorf("failed to write destination: %w", err)
	}
	return nil
}

// LatestJSON returns the path, relative to the output directory, of the newest
// tracking JSON file. The json/ subdirectory wins over the directory root.
func (w *Workspace) LatestJSON() (string, error) {
	for _, sub := range []string{artifact.JSONDir, "."} {
		name, ok := newestJSON(filepath.Join(w.dir, sub))
		if ok {
			return filepath.Join(sub, name), nil
		}
	}
	return "", ErrNoArtifact
}

func newestJSON(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = entry.Name()
			bestTime = info.ModTime()
		}
	}

	return best, best != ""
}

func writeFileAtomic(dst string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(dst)

	// Temp file lives next to dst so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, dst)
}
