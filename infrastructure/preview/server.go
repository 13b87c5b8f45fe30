// Package preview serves the analyzer output over loopback HTTP so the tracked
// video can be played back and the tracking data inspected.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pitchtrack-go/domain/artifact"
	"pitchtrack-go/infrastructure/workspace"
)

// DefaultAddr is the loopback address the server listens on.
const DefaultAddr = "127.0.0.1:8765"

// Config holds configuration for the preview server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server exposes the output directory read-only.
type Server struct {
	ws      *workspace.Workspace
	addr    string
	timeout time.Duration
	logger  *slog.Logger
	handler http.Handler
}

// New creates a preview server over ws.
func New(ws *workspace.Workspace, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Server{
		ws:      ws,
		addr:    cfg.Addr,
		timeout: cfg.ShutdownTimeout,
		logger:  cfg.Logger,
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /video", s.handleVideo)
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /download/video", s.handleDownloadVideo)
	mux.HandleFunc("GET /download/info", s.handleDownloadInfo)

	s.handler = recoverMiddleware(s.logger, requestLogMiddleware(s.logger, mux))
	return s
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.addr
}

// VideoURL returns the playback URL of the tracked video.
func (s *Server) VideoURL() string {
	return s.URL() + "/video"
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Preview server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleVideo streams the tracked video. http.ServeContent answers Range
// requests with 206 and unsatisfiable ranges with 416.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, artifact.TrackedVideo, "video/mp4", "")
}

func (s *Server) handleDownloadVideo(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, artifact.TrackedVideo, "application/octet-stream", artifact.TrackedVideo)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.latestJSON(w)
	if !ok {
		return
	}

	path, err := s.ws.Resolve(rel)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("Failed to read tracking data", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read tracking data")
		return
	}
	if !json.Valid(data) {
		writeError(w, http.StatusInternalServerError, "tracking data is not valid JSON")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDownloadInfo(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.latestJSON(w)
	if !ok {
		return
	}
	s.serveFile(w, r, rel, "application/json", filepath.Base(rel))
}

func (s *Server) latestJSON(w http.ResponseWriter) (string, bool) {
	rel, err := s.ws.LatestJSON()
	if err != nil {
		writeError(w, http.StatusNotFound, "no tracking data")
		return "", false
	}
	return rel, true
}

// serveFile serves rel from the output directory. A non-empty attachment
// sets Content-Disposition with that file name.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, rel, contentType, attachment string) {
	path, err := s.ws.Resolve(rel)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, rel+" not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open "+rel)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, rel+" not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	if attachment != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment))
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func requestLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if sw.status >= 500 {
			logger.Error("Preview request", attrs...)
			return
		}
		logger.Debug("Preview request", attrs...)
	})
}

func recoverMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("Preview handler panicked", "path", r.URL.Path, "panic", v)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
