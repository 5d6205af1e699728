package tmdb

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/marquee/internal/catalog"
)

// Source adapts a Client to the browse controller. With caching enabled
// every call goes through the SQLite response cache.
type Source struct {
	client *Client
	cached bool
}

// NewSource returns a catalog source backed by client.
func NewSource(client *Client, cached bool) *Source {
	return &Source{client: client, cached: cached}
}

// ListPage returns one now-playing page.
func (s *Source) ListPage(ctx context.Context, page int) (catalog.Page, error) {
	if !s.cached {
		return s.client.NowPlaying(ctx, page)
	}
	result, fromCache, err := s.client.CachedNowPlaying(ctx, page)
	if err == nil {
		slog.Debug("Listing page", "page", page, "entries", len(result.Entries), "cached", fromCache)
	}
	return result, err
}

// Details returns one movie's details.
func (s *Source) Details(ctx context.Context, id int) (catalog.Detail, error) {
	if !s.cached {
		return s.client.GetMovieDetails(ctx, id)
	}
	detail, _, err := s.client.CachedGetMovieDetails(ctx, id)
	return detail, err
}

// Videos returns one movie's videos.
func (s *Source) Videos(ctx context.Context, id int) ([]catalog.Video, error) {
	if !s.cached {
		return s.client.GetMovieVideos(ctx, id)
	}
	videos, _, err := s.client.CachedGetMovieVideos(ctx, id)
	return videos, err
}
