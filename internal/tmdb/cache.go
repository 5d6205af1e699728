package tmdb

import (
	"context"
	"fmt"

	"github.com/lepinkainen/marquee/internal/cache"
	"github.com/lepinkainen/marquee/internal/catalog"
)

// CachedPage wraps a listing page for caching.
type CachedPage struct {
	Page catalog.Page `json:"page"`
}

// CachedMovieDetails wraps movie details for caching.
type CachedMovieDetails struct {
	Details catalog.Detail `json:"details"`
}

// CachedVideos wraps a movie's video list for caching.
type CachedVideos struct {
	Videos []catalog.Video `json:"videos"`
}

// CachedNowPlaying fetches a listing page through the listing cache.
// Cache key format: now_playing_{language}_{page}
func (c *Client) CachedNowPlaying(ctx context.Context, page int) (catalog.Page, bool, error) {
	cacheKey := fmt.Sprintf("now_playing_%s_%d", c.language, page)

	result, fromCache, err := cache.GetOrFetchWithPolicy(cache.ListingTable, cacheKey, func() (*CachedPage, error) {
		p, fetchErr := c.NowPlaying(ctx, page)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return &CachedPage{Page: p}, nil
	}, func(result *CachedPage) bool {
		return result != nil && len(result.Page.Entries) > 0
	})
	if err != nil {
		return catalog.Page{}, false, err
	}

	return result.Page, fromCache, nil
}

// CachedGetMovieDetails fetches movie details with caching.
// Cache key format: movie_{language}_{tmdb_id}
func (c *Client) CachedGetMovieDetails(ctx context.Context, movieID int) (catalog.Detail, bool, error) {
	cacheKey := fmt.Sprintf("movie_%s_%d", c.language, movieID)

	result, fromCache, err := cache.GetOrFetch(cache.TMDBTable, cacheKey, func() (*CachedMovieDetails, error) {
		details, fetchErr := c.GetMovieDetails(ctx, movieID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return &CachedMovieDetails{Details: details}, nil
	})
	if err != nil {
		return catalog.Detail{}, false, err
	}

	return result.Details, fromCache, nil
}

// CachedGetMovieVideos fetches a movie's videos with caching. Empty lists
// are kept for the shorter negative TTL since trailers appear over time.
// Cache key format: videos_{language}_{tmdb_id}
func (c *Client) CachedGetMovieVideos(ctx context.Context, movieID int) ([]catalog.Video, bool, error) {
	cacheKey := fmt.Sprintf("videos_%s_%d", c.language, movieID)

	result, fromCache, err := cache.GetOrFetchWithTTL(cache.TMDBTable, cacheKey, func() (*CachedVideos, error) {
		videos, fetchErr := c.GetMovieVideos(ctx, movieID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return &CachedVideos{Videos: videos}, nil
	}, cache.SelectNegativeCacheTTL(func(result *CachedVideos) bool {
		return result == nil || len(result.Videos) == 0
	}))
	if err != nil {
		return nil, false, err
	}

	return result.Videos, fromCache, nil
}
