package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"pitchtrack-go/domain/analysis"
)

// OutputDirEnv is set in the analyzer environment to the output directory.
const OutputDirEnv = "PITCHTRACK_OUTPUT_DIR"

// Config holds configuration for ProcessLauncher.
type Config struct {
	// Interpreter runs Script; empty means Script is executed directly.
	Interpreter string
	// Script is the analyzer entry point. Relative paths are searched next
	// to the executable, its parent, then the working directory.
	Script string
	// WorkDir is the working directory of the process, normally the output directory.
	WorkDir string
	Logger  *slog.Logger
}

// DefaultConfig returns the python3 main.py setup.
func DefaultConfig() *Config {
	return &Config{
		Interpreter: "python3",
		Script:      "main.py",
	}
}

// ProcessLauncher implements Launcher with os/exec.
type ProcessLauncher struct {
	config *Config
	logger *slog.Logger
}

// NewProcessLauncher creates a launcher.
func NewProcessLauncher(cfg *Config) *ProcessLauncher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessLauncher{config: cfg, logger: logger}
}

// Command returns the program and arguments that Start would run.
func (l *ProcessLauncher) Command(req *analysis.Request) (string, []string, error) {
	script, err := l.resolveScript()
	if err != nil {
		return "", nil, err
	}

	if l.config.Interpreter == "" {
		return script, req.Args(), nil
	}
	return l.config.Interpreter, append([]string{script}, req.Args()...), nil
}

// Start spawns the analyzer and watches it in a background goroutine.
func (l *ProcessLauncher) Start(ctx context.Context, req *analysis.Request) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	program, args, err := l.Command(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	// Not CommandContext: the analysis outlives the request that started it.
	cmd := exec.Command(program, args...)
	cmd.Dir = l.config.WorkDir
	cmd.Env = os.Environ()
	if l.config.WorkDir != "" {
		cmd.Env = append(cmd.Env, OutputDirEnv+"="+l.config.WorkDir)
	}

	logger := l.logger.With("program", filepath.Base(program))
	stderr := &tailBuffer{limit: 4096}
	cmd.Stdout = &lineLogger{logger: logger, stream: "stdout"}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, program, err)
	}

	task := newTask(cmd.Process.Pid, program, args)
	logger.Info("Analyzer spawned", "pid", task.pid, "args", strings.Join(args, " "))

	go func() {
		result := classify(cmd.Wait())
		if !result.Success() {
			logger.Warn("Analyzer exited", "pid", task.pid, "status", result.Status, "exit_code", result.ExitCode, "stderr", stderr.String())
		} else {
			logger.Info("Analyzer exited", "pid", task.pid, "status", result.Status)
		}
		task.resolve(result)
	}()

	return task, nil
}

func (l *ProcessLauncher) resolveScript() (string, error) {
	script := l.config.Script
	if script == "" {
		return "", errors.New("analyzer script is not configured")
	}
	if filepath.IsAbs(script) {
		if _, err := os.Stat(script); err != nil {
			return "", fmt.Errorf("analyzer script: %w", err)
		}
		return script, nil
	}

	var searchDirs []string
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		searchDirs = append(searchDirs, exeDir, filepath.Join(exeDir, ".."))
	}
	if wd, err := os.Getwd(); err == nil {
		searchDirs = append(searchDirs, wd)
	}

	for _, dir := range searchDirs {
		candidate := filepath.Join(dir, script)
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			return filepath.Clean(candidate), nil
		}
	}

	return "", fmt.Errorf("analyzer script %s: %w", script, os.ErrNotExist)
}

// classify maps a cmd.Wait error to a Result.
func classify(err error) Result {
	if err == nil {
		return Result{Status: analysis.StatusSucceeded, ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code == -1 {
			return Result{Status: analysis.StatusKilled, ExitCode: -1, Err: err}
		}
		return Result{Status: analysis.StatusFailed, ExitCode: code, Err: err}
	}

	return Result{Status: analysis.StatusFailed, ExitCode: -1, Err: err}
}

// lineLogger writes each complete output line to the logger at debug level.
type lineLogger struct {
	logger *slog.Logger
	stream string
	mu     sync.Mutex
	buf    []byte
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		if line != "" {
			w.logger.Debug("Analyzer output", "stream", w.stream, "line", line)
		}
	}
	return len(p), nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	mu    sync.Mutex
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

var _ Launcher = (*ProcessLauncher)(nil)
