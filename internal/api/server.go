// Package api serves the dashboard JSON API, metrics and the live event stream.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/alert"
	"solana-revival-scanner/internal/logging"
	"solana-revival-scanner/internal/observability"
	"solana-revival-scanner/internal/orchestrator"
)

// Options for creating Server.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Loop         *orchestrator.Loop
	State        *orchestrator.State
	Alerts       *alert.Dispatcher // optional; /api/alerts reports empty without it
	Hub          *Hub              // optional; /ws is not routed without it
	Logger       *zap.Logger
	TokenTimeout time.Duration // bound on the on-demand token score
}

// Server routes dashboard requests.
type Server struct {
	router *mux.Router
	opts   Options
	logger *zap.Logger
}

type ctxKey struct{}

// New creates a Server with all routes registered.
func New(opts Options) *Server {
	if opts.TokenTimeout <= 0 {
		opts.TokenTimeout = 60 * time.Second
	}
	s := &Server{
		router: mux.NewRouter(),
		opts:   opts,
		logger: logging.OrNop(opts.Logger).Named("api"),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	if s.opts.Hub != nil {
		s.router.Handle("/ws", s.opts.Hub)
	}

	// /api routes sit on the root router: a mux subrouter reports 404 instead
	// of 405 once it holds several routes with different methods.
	api := func(path string, h http.HandlerFunc, method string) {
		s.router.Handle("/api"+path, s.jsonContentTypeMiddleware(h)).Methods(method)
	}
	api("/status", s.status, http.MethodGet)
	api("/activity", s.activity, http.MethodGet)
	api("/errors", s.errorLog, http.MethodGet)
	api("/results", s.results, http.MethodGet)
	api("/scan/start", s.scanStart, http.MethodPost)
	api("/scan/stop", s.scanStop, http.MethodPost)
	api("/scan/once", s.scanOnce, http.MethodPost)
	api("/settings", s.getSettings, http.MethodGet)
	api("/settings", s.putSettings, http.MethodPut)
	api("/token/{address}", s.token, http.MethodGet)
	api("/history", s.history, http.MethodGet)
	api("/alerts", s.alerts, http.MethodGet)
	api("/phases", s.phases, http.MethodGet)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		id, _ := r.Context().Value(ctxKey{}).(string)
		s.logger.Debug("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)))
	})
}

// corsMiddleware allows local dashboard origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the response status code.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the logging wrapper.
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorView{Error: msg})
}
