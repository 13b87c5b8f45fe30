package application

import "context"

// SaveOptions configures a native save dialog.
type SaveOptions struct {
	Title       string
	DefaultName string
	// Extensions include the leading dot
	Extensions []string
}

// SaveDialog asks the user where to write a file.
type SaveDialog interface {
	// ChooseSavePath blocks until the user picks a path or cancels.
	// Cancel returns an empty path and a nil error.
	ChooseSavePath(ctx context.Context, opts SaveOptions) (string, error)
}

// SaveDialogFunc adapts a function to SaveDialog.
type SaveDialogFunc func(ctx context.Context, opts SaveOptions) (string, error)

func (f SaveDialogFunc) ChooseSavePath(ctx context.Context, opts SaveOptions) (string, error) {
	return f(ctx, opts)
}
