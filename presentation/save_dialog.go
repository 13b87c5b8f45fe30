package presentation

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"pitchtrack-go/application"
)

type dialogParentKey struct{}

// withDialogParent attaches the window a save dialog should open over.
func withDialogParent(ctx context.Context, win fyne.Window) context.Context {
	return context.WithValue(ctx, dialogParentKey{}, win)
}

// FyneSaveDialog implements application.SaveDialog with the Fyne file dialog.
// ChooseSavePath blocks, so it must not be called on the UI goroutine.
type FyneSaveDialog struct {
	parent func() fyne.Window
	logger *slog.Logger
}

// NewFyneSaveDialog creates a dialog shown over the window carried by the
// request context, or over the window returned by parent.
func NewFyneSaveDialog(parent func() fyne.Window, logger *slog.Logger) *FyneSaveDialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &FyneSaveDialog{parent: parent, logger: logger}
}

type savePick struct {
	path string
	err  error
}

// ChooseSavePath shows the dialog and waits for the user.
func (d *FyneSaveDialog) ChooseSavePath(ctx context.Context, opts application.SaveOptions) (string, error) {
	picked := make(chan savePick, 1)
	parent := d.parentFor(ctx)

	fyne.Do(func() {
		fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				picked <- savePick{err: err}
				return
			}
			if writer == nil {
				picked <- savePick{} // User cancelled
				return
			}
			_ = writer.Close()
			path := uriPath(writer.URI())
			// The export writes the destination itself.
			if err := releasePlaceholder(path); err != nil {
				d.logger.Warn("Failed to remove placeholder", "path", path, "error", err)
			}
			picked <- savePick{path: path}
		}, parent)

		if opts.DefaultName != "" {
			fd.SetFileName(opts.DefaultName)
		}
		if len(opts.Extensions) > 0 {
			fd.SetFilter(storage.NewExtensionFileFilter(opts.Extensions))
		}
		if opts.Title != "" {
			fd.SetConfirmText(opts.Title)
		}
		fd.Show()
	})

	select {
	case p := <-picked:
		if p.path != "" {
			d.logger.Debug("Save path chosen", "title", opts.Title, "path", p.path)
		}
		return p.path, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *FyneSaveDialog) parentFor(ctx context.Context) fyne.Window {
	if win, ok := ctx.Value(dialogParentKey{}).(fyne.Window); ok && win != nil {
		return win
	}
	if d.parent == nil {
		return nil
	}
	return d.parent()
}

// releasePlaceholder removes the empty file the dialog created, so a failed
// export leaves nothing behind. Non-empty files are left alone.
func releasePlaceholder(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() || info.Size() != 0 {
		return nil
	}
	return os.Remove(path)
}

// uriPath converts a file URI to a native path.
func uriPath(uri fyne.URI) string {
	path := uri.Path()
	// On Windows, remove leading slash from /C:/...
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path
}

var _ application.SaveDialog = (*FyneSaveDialog)(nil)
