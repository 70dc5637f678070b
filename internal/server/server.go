// Package server exposes the finder over HTTP: a spreadsheet is uploaded to
// /process and the rendered report comes back as an attachment.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/app"
	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/finder"
	"github.com/hyperifyio/callfinder/internal/report"
)

// Diagnostic response headers.
const (
	HeaderProvider  = "X-AI-Provider"
	HeaderCalls     = "X-AI-Calls"
	HeaderSuccess   = "X-AI-Success"
	HeaderHeuristic = "X-AI-Heuristic-Used"
	HeaderErrors    = "X-AI-Errors"
	HeaderRunID     = "X-Run-ID"
)

const (
	defaultRateLimit = 30
	defaultHeartbeat = 30 * time.Second
	defaultMaxUpload = 32 << 20
)

// Server holds the settings shared by all requests. Each request still gets
// its own app.App built from Base.
type Server struct {
	// Base is copied for every request; form fields override it.
	Base app.Config
	// RateLimit is the number of /process requests allowed per IP per minute.
	RateLimit int
	// Heartbeat is the interval of the liveness log line.
	Heartbeat time.Duration
	// MaxUpload bounds the multipart body in bytes.
	MaxUpload int64
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{HeaderProvider, HeaderCalls, HeaderSuccess, HeaderHeuristic, HeaderErrors, HeaderRunID, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Group(func(r chi.Router) {
		limit := s.RateLimit
		if limit <= 0 {
			limit = defaultRateLimit
		}
		r.Use(httprate.LimitByIP(limit, time.Minute))
		r.Post("/process", s.handleProcess)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go s.heartbeat(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http service listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		log.Info().Msg("shutting down http service")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) heartbeat(ctx context.Context) {
	every := s.Heartbeat
	if every <= 0 {
		every = defaultHeartbeat
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			log.Info().Msg("heartbeat")
		}
	}
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	maxUpload := s.MaxUpload
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		log.Warn().Err(err).Msg("multipart form unreadable")
		writeError(w, http.StatusBadRequest, "input_unreadable")
		return
	}

	tmpDir, err := os.MkdirTemp("", "callfinder-")
	if err != nil {
		log.Error().Err(err).Msg("temp dir")
		writeError(w, http.StatusInternalServerError, "processing_failed")
		return
	}
	defer os.RemoveAll(tmpDir)

	inputPath, err := saveUpload(r, tmpDir)
	if err != nil {
		log.Warn().Err(err).Msg("upload missing or unreadable")
		writeError(w, http.StatusBadRequest, "input_unreadable")
		return
	}

	cfg := s.Base
	cfg.InputPath = inputPath
	cfg.OutputPath = ""
	if v := strings.TrimSpace(r.FormValue("api_key")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(r.FormValue("api_provider")); v != "" {
		cfg.Provider = v
	}
	if v := strings.TrimSpace(r.FormValue("format")); v != "" {
		cfg.Format = v
	}
	if _, err := report.ParseFormat(cfg.Format); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_format")
		return
	}

	a, err := app.New(r.Context(), cfg)
	if err != nil {
		log.Error().Err(err).Msg("pipeline setup failed")
		writeError(w, http.StatusInternalServerError, "processing_failed")
		return
	}
	res, err := a.Process(r.Context())
	if err != nil {
		if errors.Is(err, finder.ErrInputUnreadable) {
			log.Warn().Err(err).Msg("input unreadable")
			writeError(w, http.StatusBadRequest, "input_unreadable")
			return
		}
		log.Error().Err(err).Msg("processing failed")
		writeError(w, http.StatusInternalServerError, "processing_failed")
		return
	}
	app.LogSummary(res.Diagnostics, res.Warning)

	var buf bytes.Buffer
	if err := report.Render(&buf, a.Format(), a.Report(res)); err != nil {
		log.Error().Err(err).Msg("render failed")
		writeError(w, http.StatusInternalServerError, "processing_failed")
		return
	}
	setDiagnosticHeaders(w.Header(), res.Diagnostics)
	w.Header().Set("Content-Type", a.Format().ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="calls-for-proposals%s"`, a.Format().Extension()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// saveUpload copies the excel_file (or file) part into dir, keeping its
// extension so the table reader can pick a format.
func saveUpload(r *http.Request, dir string) (string, error) {
	var lastErr error
	for _, field := range []string{"excel_file", "file"} {
		f, hdr, err := r.FormFile(field)
		if err != nil {
			lastErr = err
			continue
		}
		defer f.Close()
		ext := strings.ToLower(filepath.Ext(hdr.Filename))
		if ext == "" {
			ext = ".xlsx"
		}
		path := filepath.Join(dir, "input"+ext)
		out, err := os.Create(path)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, f); err != nil {
			out.Close()
			return "", err
		}
		return path, out.Close()
	}
	return "", fmt.Errorf("no uploaded file: %w", lastErr)
}

func setDiagnosticHeaders(h http.Header, d *calls.Diagnostics) {
	if d == nil {
		return
	}
	h.Set(HeaderProvider, d.Provider)
	h.Set(HeaderCalls, strconv.Itoa(d.AICalls))
	h.Set(HeaderSuccess, strconv.Itoa(d.AISuccesses))
	h.Set(HeaderHeuristic, strconv.Itoa(d.HeuristicFallbacks))
	h.Set(HeaderErrors, headerSafe(d.ErrorSummary(calls.DefaultErrorSummaryLimit)))
	h.Set(HeaderRunID, d.RunID)
}

// headerSafe drops control characters that net/http refuses in values.
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
