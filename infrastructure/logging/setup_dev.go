//go:build !prod

package logging

import (
	"log/slog"
	"os"
)

// Setup logs to stdout. Only the level and source settings apply; the
// returned close function does nothing.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := slog.New(newHandler(os.Stdout, cfg))
	setGlobal(logger)
	return logger, func() error { return nil }, nil
}
