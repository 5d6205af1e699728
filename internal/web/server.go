// Package web serves the movie browser over HTTP: server-rendered views
// backed by one browse.Controller per visitor.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lepinkainen/marquee/internal/browse"
)

const tmdbPosterBase = "https://image.tmdb.org/t/p/w500"

// Options configures a Server.
type Options struct {
	Source     browse.Source
	Provider   string
	SessionTTL time.Duration
	// Posters enables the local poster proxy under PosterDir. Without it
	// pages link TMDB images directly.
	Posters   PosterFetcher
	PosterDir string
	Logger    *slog.Logger
}

// Server is the web UI.
type Server struct {
	router    *chi.Mux
	sessions  *SessionStore
	templates map[browse.Kind]*template.Template
	logger    *slog.Logger
}

// NewServer wires routes, templates and the session store.
func NewServer(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, errors.New("web: catalog source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	posterSrc := func(path string) string { return tmdbPosterBase + path }
	if opts.Posters != nil {
		posterSrc = localPosterURL
	}
	templates, err := parseTemplates(posterSrc)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		logger:    logger,
	}
	s.sessions = NewSessionStore(opts.SessionTTL, func() *browse.Controller {
		return browse.NewController(opts.Source, browse.WithProvider(opts.Provider), browse.WithLogger(logger))
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(echoRequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(logger))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleIndex)
	s.router.Post("/more", s.handleMore)
	s.router.Get("/movies/{id}", s.handleMovie)
	s.router.Post("/movies/{id}/play", s.handlePlay)
	s.router.Post("/back", s.handleBack)
	s.router.Get("/filter", s.handleFilter)
	s.router.Get("/api/movies", s.handleAPIMovies)
	s.router.Get("/healthz", handleHealth)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles()))))
	if opts.Posters != nil {
		s.router.Handle("/posters/{width}/{file}", &posterProxy{fetcher: opts.Posters, dir: opts.PosterDir, logger: logger})
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the visitor session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Web UI listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("Shutting down web UI")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	return nil
}

func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
