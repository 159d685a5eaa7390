// Package api serves the tokenizer and check history over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leapc/internal/api/notifier"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/engine"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxBodyBytes bounds the size of a tokenize request.
const DefaultMaxBodyBytes = 1 << 20

// Server is the HTTP API server.
type Server struct {
	engine       *engine.Engine
	options      driver.Options
	port         int
	watch        bool
	version      string
	maxBodyBytes int64
	logger       *slog.Logger
	notifier     *notifier.Notifier[Event]
}

// Config holds configuration for the API server.
type Config struct {
	// Engine backs /api/check, run history and watching. Without it only
	// the tokenizer is served.
	Engine *engine.Engine
	// Options configures the tokenizer.
	Options driver.Options
	Port    int
	// Watch re-checks changed sources and pushes events.
	Watch   bool
	Version string
	// MaxBodyBytes bounds request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Server{
		engine:       cfg.Engine,
		options:      cfg.Options,
		port:         cfg.Port,
		watch:        cfg.Watch,
		version:      cfg.Version,
		maxBodyBytes: maxBody,
		logger:       logger,
		notifier:     notifier.New[Event](),
	}
}

// Notifier returns the server's event notifier.
func (s *Server) Notifier() *notifier.Notifier[Event] {
	return s.notifier
}

// Handler builds the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.With(
			middleware.AllowContentType("application/json"),
			middleware.RequestSize(s.maxBodyBytes),
		).Post("/tokenize", s.handleTokenize)

		r.Post("/check", s.handleCheck)
		r.Get("/events", s.handleEvents)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.port))
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.engine != nil {
		eg.Go(func() error {
			return s.watchSources(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchSources re-checks sources as they change and broadcasts the outcome.
func (s *Server) watchSources(ctx context.Context) error {
	err := driver.Watch(ctx, s.engine.SourceDir(), driver.WatchOptions{
		Extensions: s.engine.Extensions(),
		Logger:     s.logger,
	}, func(paths []string) {
		s.recheck(ctx, paths)
	})
	if err != nil {
		// The API stays up without watching.
		s.logger.Error("failed to watch sources", "error", err)
	}
	return nil
}

func (s *Server) recheck(ctx context.Context, paths []string) {
	existing := paths[:0:0]
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return
	}

	report, err := s.engine.Check(ctx, engine.CheckOptions{Paths: existing})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("re-check failed", "error", err)
		}
		return
	}
	s.notifier.Broadcast(eventFromReport(report))
}

func eventFromReport(report *engine.Report) Event {
	ev := Event{
		Type:   "check",
		Status: report.Status,
		Paths:  make([]string, 0, len(report.Files)),
		Files:  report.Totals.Files,
		Errors: report.Totals.Errors,
	}
	if report.Run != nil {
		ev.RunID = report.Run.ID
	}
	for _, f := range report.Files {
		ev.Paths = append(ev.Paths, f.Path)
	}
	return ev
}

// requestLogger logs one debug record per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
