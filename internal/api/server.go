package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contentforge/siteimport/internal/config"
	"github.com/contentforge/siteimport/internal/content"
	"github.com/contentforge/siteimport/internal/importer"
	"github.com/contentforge/siteimport/internal/metrics"
)

// Server wires HTTP handlers to the importer and store.
type Server struct {
	router   chi.Router
	importer *importer.Importer
	store    content.Store
	cfg      config.Config
	logger   *zap.Logger
}

// maxErrorLength bounds error messages echoed back to clients.
const maxErrorLength = 200

// pingTimeout bounds store probes on the diagnostic endpoints.
const pingTimeout = 5 * time.Second

// NewServer constructs a Server with middleware and routes.
func NewServer(imp *importer.Importer, store content.Store, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		importer: imp,
		store:    store,
		cfg:      cfg,
		logger:   logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout()))

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/test", s.testStore)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", s.hello)
		r.Post("/import", s.importContent)
		r.Get("/content", s.latestContent)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the siteimport backend!"})
}

func (s *Server) hello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the backend API!"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// testStore reports storage diagnostics. It always answers 200; failures
// show up in the body so the endpoint stays usable when the store is down.
func (s *Server) testStore(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"backend":           "running",
		"store":             s.store.Name(),
		"connection_status": "not connected",
		"collections":       []string{},
	}
	for key, val := range s.storeConfigFlags() {
		resp[key] = val
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		resp["connection_status"] = "error: " + truncate(err.Error(), 50)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp["connection_status"] = "connected"

	if lister, ok := s.store.(content.CollectionLister); ok {
		names, err := lister.Collections(ctx)
		switch {
		case err != nil:
			resp["collections_error"] = truncate(err.Error(), 50)
		case len(names) > 10:
			resp["collections"] = names[:10]
		case names != nil:
			resp["collections"] = names
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// storeConfigFlags reports whether the active provider's connection settings
// are present in config. The memory provider has none, so it reports nothing.
func (s *Server) storeConfigFlags() map[string]string {
	set := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "not set"
		}
		return "set"
	}
	switch s.cfg.Store.Provider {
	case "mongo":
		return map[string]string{
			"database_url":  set(s.cfg.Store.Mongo.URI),
			"database_name": set(s.cfg.Store.Mongo.Database),
		}
	case "postgres":
		return map[string]string{
			"database_url":  set(s.cfg.Store.Postgres.DSN),
			"database_name": set(s.cfg.Store.Postgres.Table),
		}
	default:
		return nil
	}
}

func (s *Server) importContent(w http.ResponseWriter, r *http.Request) {
	var req content.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	rec, err := s.importer.Import(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) latestContent(w http.ResponseWriter, r *http.Request) {
	limit := 1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}
	recs, err := s.importer.Latest(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// errorStatus maps importer errors to HTTP statuses. Upstream fetch
// statuses of 400 and above are mirrored back to the caller.
func errorStatus(err error) int {
	var verr *content.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var ferr *content.FetchError
	if errors.As(err, &ferr) {
		if ferr.StatusCode >= http.StatusBadRequest {
			return ferr.StatusCode
		}
		return http.StatusBadRequest
	}
	// StoreError and anything unexpected surface as a server fault.
	return http.StatusInternalServerError
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := "*"
	if len(origins) > 0 {
		allowed = strings.Join(origins, ", ")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": truncate(msg, maxErrorLength)})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
