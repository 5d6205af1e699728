// Package browse implements the catalog view controller: it accumulates
// listing pages, opens details, selects trailers and filters, driving a
// single active View per session.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/marquee/internal/catalog"
	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

// ErrNoMorePages is returned by LoadMore after the last listing page.
var ErrNoMorePages = errors.New("no more pages")

// User-facing messages for the error view.
const (
	MsgFetchMovies  = "Failed to fetch movies. Please try again later."
	MsgFetchDetails = "Failed to fetch movie details. Please try again later."
	MsgPlayMovie    = "Failed to play movie. Please try again later."
)

// Source is the remote catalog the controller reads from.
type Source interface {
	ListPage(ctx context.Context, page int) (catalog.Page, error)
	Details(ctx context.Context, id int) (catalog.Detail, error)
	Videos(ctx context.Context, id int) ([]catalog.Video, error)
}

// Controller owns one Session and applies user actions to it. All methods
// are safe for concurrent use; the session lock is never held across a fetch.
type Controller struct {
	source   Source
	provider string
	logger   *slog.Logger
	session  *Session
}

// Option configures a Controller.
type Option func(*Controller)

// WithProvider sets the video host trailers must come from.
func WithProvider(provider string) Option {
	return func(c *Controller) {
		if provider != "" {
			c.provider = provider
		}
	}
}

// WithLogger sets the logger used for failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller with a fresh session.
func NewController(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		provider: catalog.DefaultProvider,
		logger:   slog.Default(),
		session:  &Session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start fetches the first page unless one has already been applied.
func (c *Controller) Start(ctx context.Context) error {
	c.session.mu.Lock()
	started := c.session.pages > 0
	c.session.mu.Unlock()
	if started {
		return nil
	}
	_, err := c.FetchPage(ctx, 1)
	return err
}

// FetchPage requests one listing page and appends its entries. On success
// the view becomes the unfiltered Grid; on failure the catalog is left as
// it was and the view becomes Error.
func (c *Controller) FetchPage(ctx context.Context, page int) ([]catalog.Entry, error) {
	t := c.session.issue(opPage)

	result, err := c.source.ListPage(ctx, page)
	if err != nil {
		return nil, c.fail(t, "fetch movies", MsgFetchMovies, err, "page", page)
	}

	err = c.session.settle(t, func(current bool) error {
		s := c.session
		s.catalog.Append(result.Entries...)
		s.pages++
		if page > s.cursor {
			s.cursor = page
		}
		if result.TotalPages > 0 {
			s.totalPages = result.TotalPages
		}
		if !current {
			return nil
		}
		return s.moveLocked(Event{Kind: PageLoaded})
	})
	if err != nil {
		c.logger.Debug("Discarded listing page", "page", page, "error", err)
		return nil, err
	}

	c.logger.Debug("Applied listing page", "page", page, "entries", len(result.Entries))
	return result.Entries, nil
}

// LoadMore requests the page after the cursor. Once the listing's last
// page has been applied it returns ErrNoMorePages without fetching.
func (c *Controller) LoadMore(ctx context.Context) ([]catalog.Entry, error) {
	next, ok := c.session.nextPage()
	if !ok {
		return nil, ErrNoMorePages
	}
	return c.FetchPage(ctx, next)
}

// OpenDetails fetches one movie's details and shows them.
func (c *Controller) OpenDetails(ctx context.Context, id int) (catalog.Detail, error) {
	t := c.session.issue(opDetails)

	detail, err := c.source.Details(ctx, id)
	if err != nil {
		return catalog.Detail{}, c.fail(t, "fetch movie details", MsgFetchDetails, err, "movie_id", id)
	}

	err = c.session.settle(t, func(current bool) error {
		if !current {
			return ErrStale
		}
		s := c.session
		if err := s.moveLocked(Event{Kind: DetailsLoaded, MovieID: id}); err != nil {
			return err
		}
		s.detail = &detail
		return nil
	})
	if err != nil {
		c.logger.Debug("Discarded movie details", "movie_id", id, "error", err)
		return catalog.Detail{}, err
	}
	return detail, nil
}

// PlayTrailer selects the movie's first trailer from the configured
// provider and shows the player. It is only allowed from that movie's
// Detail view.
func (c *Controller) PlayTrailer(ctx context.Context, id int) (catalog.VideoRef, error) {
	if v := c.session.viewNow(); v.Kind != Detail || v.MovieID != id {
		return catalog.VideoRef{}, fmt.Errorf("%w: play %d from %s", ErrIllegalTransition, id, v)
	}

	t := c.session.issue(opPlay)

	videos, err := c.source.Videos(ctx, id)
	if err != nil {
		return catalog.VideoRef{}, c.fail(t, "play movie", MsgPlayMovie, err, "movie_id", id)
	}

	ref, err := catalog.SelectTrailer(videos, c.provider)
	if err != nil {
		var playErr *marqueeErrors.PlayError
		msg := MsgPlayMovie
		if errors.As(err, &playErr) {
			msg = playErr.UserMessage()
		}
		return catalog.VideoRef{}, c.fail(t, "select trailer", msg, err, "movie_id", id, "videos", len(videos))
	}

	err = c.session.settle(t, func(current bool) error {
		if !current {
			return ErrStale
		}
		s := c.session
		if err := s.moveLocked(Event{Kind: TrailerReady, MovieID: id}); err != nil {
			return err
		}
		s.trailer = &ref
		return nil
	})
	if err != nil {
		c.logger.Debug("Discarded trailer", "movie_id", id, "error", err)
		return catalog.VideoRef{}, err
	}
	return ref, nil
}

// Back leaves Detail or Error for the unfiltered Grid, and Player for the
// Detail it was opened from.
func (c *Controller) Back() error {
	return c.session.move(Event{Kind: Back})
}

// ApplyFilter shows the Grid filtered by text and returns the matching
// entries. "reset filter" shows everything.
func (c *Controller) ApplyFilter(text string) []catalog.Entry {
	s := c.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.moveLocked(Event{Kind: FilterApplied, Text: text}); err != nil {
		c.logger.Warn("Filter not applied", "filter", text, "view", s.view.String(), "error", err)
	}
	return s.catalog.Filter(text)
}

// Filter matches text against the accumulated catalog without touching the view.
func (c *Controller) Filter(text string) []catalog.Entry {
	s := c.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Filter(text)
}

// fail logs err and, when t is still current and the user has not moved
// on, shows msg in the error view. The original error is returned wrapped.
func (c *Controller) fail(t ticket, action, msg string, err error, attrs ...any) error {
	c.logger.Error("Failed to "+action, append(attrs, "error", err)...)

	settleErr := c.session.settle(t, func(current bool) error {
		if !current {
			return nil
		}
		return c.session.moveLocked(Event{Kind: Failed, Text: msg})
	})
	if settleErr != nil {
		return errors.Join(fmt.Errorf("%s: %w", action, err), settleErr)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Snapshot is an immutable copy of what a session currently shows.
type Snapshot struct {
	View       View
	Entries    []catalog.Entry // entries visible in the Grid
	Total      int             // accumulated entries, unfiltered
	Page       int
	TotalPages int
	Loaded     bool
	HasMore    bool
	Detail     *catalog.Detail
	Trailer    *catalog.VideoRef
}

// Snapshot copies the session state for rendering.
func (c *Controller) Snapshot() Snapshot {
	s := c.session
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		View:       s.view,
		Total:      s.catalog.Len(),
		Page:       max(s.cursor, 1),
		TotalPages: s.totalPages,
		Loaded:     s.pages > 0,
		HasMore:    s.pages == 0 || s.totalPages == 0 || s.cursor < s.totalPages,
	}
	if s.view.Kind == Grid && s.view.Filter != "" {
		snap.Entries = s.catalog.Filter(s.view.Filter)
	} else {
		snap.Entries = s.catalog.All()
	}
	if s.detail != nil {
		d := *s.detail
		snap.Detail = &d
	}
	if s.trailer != nil {
		ref := *s.trailer
		snap.Trailer = &ref
	}
	return snap
}
