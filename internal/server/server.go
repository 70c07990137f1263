// Package server exposes the combine and extract conversions over HTTP.
//
// Every request is converted fully in memory and owns its own log; handlers
// share nothing mutable, so any number of conversions may run concurrently.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/logicossoftware/go-fencepack"
	"github.com/logicossoftware/go-fencepack/internal/config"
)

// RequestIDHeader carries the per-request identifier back to the caller.
const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// LogEvent is the JSON form of a fencepack.LogEvent.
type LogEvent struct {
	Severity string `json:"severity"`
	Entry    string `json:"entry,omitempty"`
	Message  string `json:"message"`
}

type CombineResponse struct {
	RequestID string     `json:"request_id"`
	Document  string     `json:"document"`
	Sections  int        `json:"sections"`
	Log       []LogEvent `json:"log"`
}

type ExtractResponse struct {
	RequestID string     `json:"request_id"`
	Paths     []string   `json:"paths"`
	Archive   []byte     `json:"archive,omitempty"`
	Log       []LogEvent `json:"log"`
}

type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, logger: logger}
}

// Handler returns the chi router serving:
//
//	GET  /healthz
//	POST /v1/combine   body: zip archive        -> CombineResponse
//	POST /v1/extract   body: UTF-8 document     -> ExtractResponse
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": fencepack.Version})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/combine", s.handleCombine)
		r.Post("/extract", s.handleExtract)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	id := requestIDFrom(r.Context())
	logger := s.logger.With("request_id", id, "op", "combine")

	body, ok := s.readBody(w, r, id)
	if !ok {
		return
	}
	res, err := fencepack.CombineArchive(body, s.cfg.CombineOptions(logger)...)
	if err != nil {
		logger.Warn("combine failed", "error", err)
		writeError(w, statusFor(err), id, err)
		return
	}
	logger.Info("combine done", "bytes_in", len(body), "sections", len(res.Sections), "events", res.Log.Len())
	writeJSON(w, http.StatusOK, CombineResponse{
		RequestID: id,
		Document:  res.Document,
		Sections:  len(res.Sections),
		Log:       toEvents(res.Log),
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	id := requestIDFrom(r.Context())
	logger := s.logger.With("request_id", id, "op", "extract")

	body, ok := s.readBody(w, r, id)
	if !ok {
		return
	}
	text, err := fencepack.DecodeDocument(body)
	if err != nil {
		writeError(w, statusFor(err), id, err)
		return
	}
	ext, err := fencepack.ExtractFromDocument(text, s.cfg.ExtractOptions(logger)...)
	if err != nil {
		logger.Warn("extract failed", "error", err)
		writeError(w, statusFor(err), id, err)
		return
	}
	logger.Info("extract done", "bytes_in", len(body), "files", len(ext.Paths), "events", ext.Log.Len())
	writeJSON(w, http.StatusOK, ExtractResponse{
		RequestID: id,
		Paths:     ext.Paths,
		Archive:   ext.Archive,
		Log:       toEvents(ext.Log),
	})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request, id string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, id, fencepack.ErrLimitExceeded)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, id, err)
		return nil, false
	}
	return body, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fencepack.ErrArchiveOpen), errors.Is(err, fencepack.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, fencepack.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func toEvents(l *fencepack.Log) []LogEvent {
	evs := l.Events()
	out := make([]LogEvent, len(evs))
	for i, ev := range evs {
		out[i] = LogEvent{Severity: ev.Severity.String(), Entry: ev.Entry, Message: ev.Message}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, id string, err error) {
	writeJSON(w, status, ErrorResponse{RequestID: id, Error: err.Error()})
}
