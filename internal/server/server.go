// Package server exposes the resolution engine over HTTP.
//
// The server loads one immutable dependency database at startup and
// serves resolutions, component listings, rendered closure graphs and
// the run history. Every request gets a fresh engine over the shared
// database, so concurrent resolutions never interfere.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fkoehler/buildorder/pkg/depdata"
	"github.com/fkoehler/buildorder/pkg/history"
	"github.com/fkoehler/buildorder/pkg/pipeline"
)

// Config carries the server's startup parameters.
type Config struct {
	// Addr is the listen address, e.g. ":8173".
	Addr string

	// DataFile is the dependency data file backing every request.
	DataFile string
}

// Server handles HTTP requests against one loaded dependency database.
type Server struct {
	cfg      Config
	db       *depdata.Database
	dataHash string
	runner   *pipeline.Runner
	store    history.Store
	logger   *log.Logger
	router   chi.Router
}

// New assembles the server. The database and its fingerprint come from a
// completed pipeline load; store may be a NopStore when history is
// disabled.
func New(cfg Config, db *depdata.Database, dataHash string, runner *pipeline.Runner, store history.Store, logger *log.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		dataHash: dataHash,
		runner:   runner,
		store:    store,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/components", s.handleComponents)
		r.Post("/resolve", s.handleResolve)
		r.Get("/graph", s.handleGraph)
		r.Get("/history", s.handleHistory)
	})

	s.router = r
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "components", s.db.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := s.store.Close(shutdownCtx); err != nil {
		s.logger.Warn("closing history store", "err", err)
	}
	return <-errCh
}
