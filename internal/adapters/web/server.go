package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/loopercamera/4M/internal/adapters/memo"
	"github.com/loopercamera/4M/internal/pipeline"
	"github.com/loopercamera/4M/internal/ports"
)

// ResultReader is the read side of the result store.
type ResultReader interface {
	Get(identifier string) (*ports.Result, error)
	Count() (int, error)
}

// Options wires optional collaborators. Zero values disable the feature.
type Options struct {
	Store          ResultReader // enables GET /api/results/{id}
	Cache          *memo.Cache  // adds cache counters to /api/stats and DELETE /api/cache
	Logger         *slog.Logger
	AllowedOrigins []string // CORS; empty allows any origin
}

// Server serves the JSON API over HTTP.
type Server struct {
	pipe     *pipeline.Pipeline
	opts     Options
	log      *slog.Logger
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once
}

// NewServer creates an API server around a pipeline.
func NewServer(p *pipeline.Pipeline, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{pipe: p, opts: opts, log: log, started: time.Now()}
}

// Handler returns the routed handler with CORS, recovery and request
// logging applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/match", s.handleMatch).Methods(http.MethodPost)
	api.HandleFunc("/resolve", s.handleResolve).Methods(http.MethodPost)
	api.HandleFunc("/results/{id}", s.handleResult).Methods(http.MethodGet)
	api.HandleFunc("/cache", s.handleFlushCache).Methods(http.MethodDelete)
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such endpoint")
	})

	r.PathPrefix("/").Handler(http.FileServerFS(mustSub(staticFS, "static"))).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
		MaxAge:         86400,
	})
	return c.Handler(recoverPanics(s.log, logRequests(s.log, r)))
}

// Start listens on addr ("127.0.0.1:8080"; port 0 picks a free one) and
// serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.started = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server stopped", "error", err)
		}
	}()
	s.log.Info("http server listening", "addr", s.Addr())
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
	})
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}
