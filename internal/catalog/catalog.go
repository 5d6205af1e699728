// Package catalog holds the movie catalog model: entries, the accumulated
// collection, the static genre table, the client-side filter and trailer
// selection.
package catalog

import "strconv"

// Entry is one movie as returned by a listing page.
type Entry struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	ReleaseDate string `json:"release_date" yaml:"release_date"`
	PosterPath  string `json:"poster_path,omitempty" yaml:"poster_path,omitempty"`
	GenreIDs    []int  `json:"genre_ids" yaml:"genre_ids"`
}

// GenreNames resolves the entry's genre ids through the genre table.
func (e Entry) GenreNames() []string {
	names := make([]string, len(e.GenreIDs))
	for i, id := range e.GenreIDs {
		names[i] = ResolveGenreName(id)
	}
	return names
}

// Year returns the four-digit release year, or "" when unknown.
func (e Entry) Year() string {
	if len(e.ReleaseDate) >= 4 {
		if _, err := strconv.Atoi(e.ReleaseDate[:4]); err == nil {
			return e.ReleaseDate[:4]
		}
	}
	return ""
}

// Detail is the extended record fetched for a single movie.
type Detail struct {
	Entry
	Runtime  int      `json:"runtime"`
	Overview string   `json:"overview"`
	Genres   []string `json:"genres"`
}

// Page is one page of the listing endpoint.
type Page struct {
	Number       int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Entries      []Entry `json:"entries"`
}

// Video is one entry of a movie's video list.
type Video struct {
	Site string `json:"site"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}
