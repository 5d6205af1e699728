package tmdb

import (
	"strings"

	"github.com/lepinkainen/marquee/internal/catalog"
)

// MovieResult is one movie in a listing response.
type MovieResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	GenreIDs    []int  `json:"genre_ids"`
}

// ListingResponse is the body of /movie/now_playing.
type ListingResponse struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []MovieResult `json:"results"`
}

// Genre is a named genre as returned by the details endpoint.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the body of /movie/{id}.
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	Overview    string  `json:"overview"`
	Genres      []Genre `json:"genres"`
}

// VideoResult is one entry of /movie/{id}/videos.
type VideoResult struct {
	Site string `json:"site"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// VideosResponse is the body of /movie/{id}/videos.
type VideosResponse struct {
	ID      int           `json:"id"`
	Results []VideoResult `json:"results"`
}

// Entry converts a listing result to a catalog entry.
func (r MovieResult) Entry() catalog.Entry {
	return catalog.Entry{
		ID:          r.ID,
		Title:       strings.TrimSpace(r.Title),
		ReleaseDate: r.ReleaseDate,
		PosterPath:  r.PosterPath,
		GenreIDs:    append([]int(nil), r.GenreIDs...),
	}
}

// CatalogPage converts the listing to a catalog page. requested is used
// when the response omits its page number.
func (l ListingResponse) CatalogPage(requested int) catalog.Page {
	page := catalog.Page{
		Number:       l.Page,
		TotalPages:   l.TotalPages,
		TotalResults: l.TotalResults,
		Entries:      make([]catalog.Entry, 0, len(l.Results)),
	}
	if page.Number == 0 {
		page.Number = requested
	}
	for _, r := range l.Results {
		page.Entries = append(page.Entries, r.Entry())
	}
	return page
}

// Detail converts the details body to a catalog detail.
func (d MovieDetails) Detail() catalog.Detail {
	detail := catalog.Detail{
		Entry: catalog.Entry{
			ID:          d.ID,
			Title:       strings.TrimSpace(d.Title),
			ReleaseDate: d.ReleaseDate,
			PosterPath:  d.PosterPath,
		},
		Runtime:  d.Runtime,
		Overview: d.Overview,
		Genres:   make([]string, 0, len(d.Genres)),
	}
	for _, g := range d.Genres {
		detail.GenreIDs = append(detail.GenreIDs, g.ID)
		detail.Genres = append(detail.Genres, g.Name)
	}
	return detail
}

// Videos converts the video list to catalog videos, keeping API order.
func (v VideosResponse) Videos() []catalog.Video {
	videos := make([]catalog.Video, 0, len(v.Results))
	for _, r := range v.Results {
		videos = append(videos, catalog.Video{Site: r.Site, Key: r.Key, Name: r.Name, Type: r.Type})
	}
	return videos
}
