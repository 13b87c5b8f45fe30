package presentation

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
)

func TestSaveDialog_ParentFor(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	mainWin := a.NewWindow("main")
	analysis := a.NewWindow("analysis")
	d := NewFyneSaveDialog(func() fyne.Window { return mainWin }, nil)

	if got := d.parentFor(context.Background()); got != mainWin {
		t.Errorf("parentFor(no window) = %v, want main window", got)
	}
	if got := d.parentFor(withDialogParent(context.Background(), analysis)); got != analysis {
		t.Errorf("parentFor(analysis ctx) = %v, want analysis window", got)
	}

	noFallback := NewFyneSaveDialog(nil, nil)
	if got := noFallback.parentFor(context.Background()); got != nil {
		t.Errorf("parentFor without fallback = %v, want nil", got)
	}
}

func TestReleasePlaceholder(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "full.mp4")
	if err := os.WriteFile(full, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		exists bool
	}{
		{name: "empty file removed", path: empty, exists: false},
		{name: "non-empty file kept", path: full, exists: true},
		{name: "missing file", path: filepath.Join(dir, "missing.mp4"), exists: false},
		{name: "directory kept", path: dir, exists: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := releasePlaceholder(tt.path); err != nil {
				t.Fatalf("releasePlaceholder() error = %v", err)
			}
			_, err := os.Stat(tt.path)
			if exists := !errors.Is(err, fs.ErrNotExist); exists != tt.exists {
				t.Errorf("exists = %v, want %v", exists, tt.exists)
			}
		})
	}
}
