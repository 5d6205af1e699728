package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lepinkainen/marquee/internal/catalog"
)

// NowPlaying fetches one page of the movies currently in theatres.
func (c *Client) NowPlaying(ctx context.Context, page int) (catalog.Page, error) {
	if page < 1 {
		page = 1
	}
	endpoint := c.endpoint("/movie/now_playing", url.Values{"page": {strconv.Itoa(page)}})

	var response ListingResponse
	if err := c.getJSON(ctx, "listing", endpoint, &response); err != nil {
		return catalog.Page{}, err
	}
	return response.CatalogPage(page), nil
}

// GetMovieDetails fetches detailed information for a movie by ID.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int) (catalog.Detail, error) {
	endpoint := c.endpoint(fmt.Sprintf("/movie/%d", movieID), nil)

	var response MovieDetails
	if err := c.getJSON(ctx, "details", endpoint, &response); err != nil {
		return catalog.Detail{}, err
	}
	if response.ID == 0 {
		response.ID = movieID
	}
	return response.Detail(), nil
}

// GetMovieVideos fetches the videos attached to a movie, in API order.
func (c *Client) GetMovieVideos(ctx context.Context, movieID int) ([]catalog.Video, error) {
	endpoint := c.endpoint(fmt.Sprintf("/movie/%d/videos", movieID), nil)

	var response VideosResponse
	if err := c.getJSON(ctx, "videos", endpoint, &response); err != nil {
		return nil, err
	}
	return response.Videos(), nil
}
