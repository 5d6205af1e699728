package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lepinkainen/marquee/internal/browse"
	"github.com/lepinkainen/marquee/internal/catalog"
	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.Controller(w, r)
	status := http.StatusOK
	if err := c.Start(r.Context()); err != nil {
		status = statusFor(err)
	}
	s.render(w, c.Snapshot(), status)
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.Controller(w, r)
	if _, err := c.LoadMore(r.Context()); err != nil && !errors.Is(err, browse.ErrNoMorePages) {
		s.logger.Debug("Load more failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	c := s.sessions.Controller(w, r)
	status := http.StatusOK
	if _, err := c.OpenDetails(r.Context(), id); err != nil {
		status = statusFor(err)
	}
	s.render(w, c.Snapshot(), status)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	c := s.sessions.Controller(w, r)
	status := http.StatusOK
	if _, err := c.PlayTrailer(r.Context(), id); err != nil {
		status = statusFor(err)
	}
	s.render(w, c.Snapshot(), status)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.Controller(w, r)
	if err := c.Back(); err != nil {
		s.logger.Debug("Ignored back", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.Controller(w, r)
	// A failed first page keeps the error view; filtering would hide it.
	if err := c.Start(r.Context()); err != nil && !errors.Is(err, browse.ErrStale) {
		s.render(w, c.Snapshot(), statusFor(err))
		return
	}
	c.ApplyFilter(r.URL.Query().Get("q"))
	s.render(w, c.Snapshot(), http.StatusOK)
}

// moviesResponse is the body of GET /api/movies.
type moviesResponse struct {
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
	HasMore    bool            `json:"has_more"`
	Movies     []catalog.Entry `json:"movies"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIMovies(w http.ResponseWriter, r *http.Request) {
	c := s.sessions.Controller(w, r)
	if err := c.Start(r.Context()); err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: browse.MsgFetchMovies})
		return
	}

	snap := c.Snapshot()
	entries := snap.Entries
	if q := r.URL.Query().Get("q"); q != "" {
		entries = c.Filter(q)
	}
	writeJSON(w, http.StatusOK, moviesResponse{
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		Total:      snap.Total,
		HasMore:    snap.HasMore,
		Movies:     entries,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// render executes the template for the snapshot's view. Output is buffered
// so a template failure still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, snap browse.Snapshot, status int) {
	tmpl, ok := s.templates[snap.View.Kind]
	if !ok {
		s.logger.Error("No template for view", "view", snap.View.String())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", newPageData(snap)); err != nil {
		s.logger.Error("Failed to execute template", "view", snap.View.String(), "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func movieID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// statusFor maps a controller error to the HTTP status of the rendered view.
func statusFor(err error) int {
	switch {
	case errors.Is(err, browse.ErrStale):
		return http.StatusOK
	case errors.Is(err, browse.ErrIllegalTransition):
		return http.StatusConflict
	case marqueeErrors.IsPlayError(err):
		return http.StatusNotFound
	case marqueeErrors.IsRateLimitError(err):
		return http.StatusServiceUnavailable
	case marqueeErrors.IsFetchError(err):
		if marqueeErrors.StatusCode(err) == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
