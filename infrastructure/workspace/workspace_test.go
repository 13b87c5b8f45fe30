package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pitchtrack-go/domain/artifact"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(&Config{Dir: filepath.Join(t.TempDir(), "Desktop", "output")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ws
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir() error = %v", err)
	}
	if dir != filepath.Join("/home/tester", "Desktop", "output") {
		t.Errorf("DefaultDir() = %v", dir)
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	ws := newTestWorkspace(t)

	first, err := ws.Ensure()
	if err != nil {
		t.Fatalf("first Ensure() error = %v", err)
	}
	second, err := ws.Ensure()
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}

	if first != second {
		t.Errorf("Ensure() paths differ: %v vs %v", first, second)
	}
	fi, err := os.Stat(first)
	if err != nil || !fi.IsDir() {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestEnsure_PathIsFile(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "output")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws, _ := New(&Config{Dir: file})
	if _, err := ws.Ensure(); err == nil {
		t.Error("expected error when output path is a regular file")
	}
}

func TestResolve(t *testing.T) {
	ws := newTestWorkspace(t)

	tests := []struct {
		name    string
		rel     string
		wantErr bool
	}{
		{"plain file", "tracked_video.mp4", false},
		{"nested", "json/run.json", false},
		{"dot prefix", "./tracked_video.mp4", false},
		{"inner dotdot", "json/../tracked_video.mp4", false},
		{"parent", "../secret.txt", true},
		{"deep escape", "json/../../etc/passwd", true},
		{"only dotdot", "..", true},
		{"self", ".", true},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.Resolve(tt.rel)
			if tt.wantErr {
				if !errors.Is(err, ErrOutsideWorkspace) {
					t.Errorf("Resolve(%q) error = %v, want ErrOutsideWorkspace", tt.rel, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.rel, err)
			}
			if filepath.Dir(got) != ws.Dir() && filepath.Dir(filepath.Dir(got)) != ws.Dir() {
				t.Errorf("Resolve(%q) = %v, not inside %v", tt.rel, got, ws.Dir())
			}
		})
	}
}

func TestResolve_Symlinks(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.Ensure(); err != nil {
		t.Fatal(err)
	}

	secret := filepath.Join(filepath.Dir(ws.Dir()), "secret")
	if err := os.MkdirAll(secret, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(secret, "key.txt"), []byte("k"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(secret, filepath.Join(ws.Dir(), "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(ws.Dir(), "json"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(ws.Dir(), "json"), filepath.Join(ws.Dir(), "inner")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		rel     string
		wantErr bool
	}{
		{"link out of directory", "link/key.txt", true},
		{"link itself", "link", true},
		{"link to missing file outside", "link/new.txt", true},
		{"link inside directory", "inner/run.json", false},
		{"missing nested file", "json/later/run.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ws.Resolve(tt.rel)
			if tt.wantErr && !errors.Is(err, ErrOutsideWorkspace) {
				t.Errorf("Resolve(%q) error = %v, want ErrOutsideWorkspace", tt.rel, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Resolve(%q) error = %v", tt.rel, err)
			}
		})
	}
}

func TestExists(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := ws.Ensure(); err != nil {
		t.Fatal(err)
	}

	if ws.Exists(artifact.TrackedVideo) {
		t.Error("Exists() = true before the file was created")
	}

	if err := os.WriteFile(ws.Path(artifact.TrackedVideo), []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !ws.Exists(artifact.TrackedVideo) {
		t.Error("Exists() = false after the file was created")
	}

	if err := os.Mkdir(ws.Path("folder.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}
	if ws.Exists("folder.mp4") {
		t.Error("Exists() should be false for directories")
	}
	if ws.Exists("../" + artifact.TrackedVideo) {
		t.Error("Exists() should reject paths outside the output directory")
	}
}

func TestWriteInput(t *testing.T) {
	ws := newTestWorkspace(t)

	path, err := ws.WriteInput([]byte("first"))
	if err != nil {
		t.Fatalf("WriteInput() error = %v", err)
	}
	if filepath.Base(path) != artifact.InputVideo {
		t.Errorf("WriteInput() path = %v", path)
	}

	if _, err := ws.WriteInput([]byte("second")); err != nil {
		t.Fatalf("second WriteInput() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, _ := os.ReadDir(ws.Dir())
	if len(entries) != 1 {
		t.Errorf("expected only the input file, got %d entries", len(entries))
	}
}

func TestCopyOut(t *testing.T) {
	ws := newTestWorkspace(t)
	_, _ = ws.Ensure()

	src := ws.Path(artifact.TrackedVideo)
	if err := os.WriteFile(src, []byte("annotated"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "export.mp4")
	if err := ws.CopyOut(src, dst); err != nil {
		t.Fatalf("CopyOut() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "annotated" {
		t.Errorf("copied content = %q", data)
	}
}

func TestCopyOut_MissingSource(t *testing.T) {
	ws := newTestWorkspace(t)
	_, _ = ws.Ensure()

	dstDir := t.TempDir()
	dst := filepath.Join(dstDir, "export.mp4")

	err := ws.CopyOut(ws.Path(artifact.TrackedVideo), dst)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("CopyOut() error = %v, want ErrNotExist", err)
	}

	entries, _ := os.ReadDir(dstDir)
	if len(entries) != 0 {
		t.Errorf("destination directory should be empty, got %d entries", len(entries))
	}
}

func TestCopyOut_MissingDestinationDir(t *testing.T) {
	ws := newTestWorkspace(t)
	_, _ = ws.Ensure()

	src := ws.Path(artifact.TrackedVideo)
	_ = os.WriteFile(src, []byte("x"), 0o644)

	err := ws.CopyOut(src, filepath.Join(t.TempDir(), "missing", "export.mp4"))
	if err == nil {
		t.Error("expected error for missing destination directory")
	}
}

func TestLatestJSON(t *testing.T) {
	ws := newTestWorkspace(t)
	_, _ = ws.Ensure()

	if _, err := ws.LatestJSON(); !errors.Is(err, ErrNoArtifact) {
		t.Errorf("LatestJSON() error = %v, want ErrNoArtifact", err)
	}

	root := ws.Path(artifact.TrackingData)
	_ = os.WriteFile(root, []byte("{}"), 0o644)

	rel, err := ws.LatestJSON()
	if err != nil {
		t.Fatalf("LatestJSON() error = %v", err)
	}
	if rel != artifact.TrackingData {
		t.Errorf("LatestJSON() = %v, want %v", rel, artifact.TrackingData)
	}

	jsonDir := ws.Path(artifact.JSONDir)
	_ = os.Mkdir(jsonDir, 0o755)
	older := filepath.Join(jsonDir, "a.json")
	newer := filepath.Join(jsonDir, "b.json")
	_ = os.WriteFile(older, []byte("{}"), 0o644)
	_ = os.WriteFile(newer, []byte("{}"), 0o644)
	past := time.Now().Add(-time.Hour)
	_ = os.Chtimes(older, past, past)

	rel, err = ws.LatestJSON()
	if err != nil {
		t.Fatalf("LatestJSON() error = %v", err)
	}
	if rel != filepath.Join(artifact.JSONDir, "b.json") {
		t.Errorf("LatestJSON() = %v, want json/b.json", rel)
	}
}
