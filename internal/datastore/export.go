package datastore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/marquee/internal/catalog"
)

// Database and table names used by exports.
const (
	DefaultDatabase = "marquee"
	MoviesTable     = "now_playing"
)

// MoviesSchema is the SQLite table exports write to.
const MoviesSchema = `CREATE TABLE IF NOT EXISTS now_playing (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	release_date TEXT,
	year TEXT,
	poster_path TEXT,
	poster_url TEXT,
	genre_ids TEXT,
	genres TEXT
)`

const insertBatchSize = 100

// MovieRecord flattens an entry into one export row. posterURL turns a
// poster path into an absolute URL; entries without a poster get "".
func MovieRecord(e catalog.Entry, posterURL func(string) string) map[string]any {
	ids, _ := json.Marshal(e.GenreIDs)
	if e.GenreIDs == nil {
		ids = []byte("[]")
	}

	poster := ""
	if e.PosterPath != "" && posterURL != nil {
		poster = posterURL(e.PosterPath)
	}

	return map[string]any{
		"id":           e.ID,
		"title":        e.Title,
		"release_date": e.ReleaseDate,
		"year":         e.Year(),
		"poster_path":  e.PosterPath,
		"poster_url":   poster,
		"genre_ids":    string(ids),
		"genres":       strings.Join(e.GenreNames(), ", "),
	}
}

// ExportMovies writes entries to store in batches and returns the number
// of rows written. Entries repeated across pages collapse onto one row
// holding the latest copy.
func ExportMovies(store Store, database string, entries []catalog.Entry, posterURL func(string) string) (int, error) {
	entries = distinctByID(entries)

	if err := store.Connect(); err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateTable(MoviesSchema); err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(entries); start += insertBatchSize {
		end := min(start+insertBatchSize, len(entries))
		records := make([]map[string]any, 0, end-start)
		for _, e := range entries[start:end] {
			records = append(records, MovieRecord(e, posterURL))
		}
		if err := store.BatchInsert(database, MoviesTable, records); err != nil {
			return written, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		written += len(records)
		slog.Debug("Exported batch", "table", MoviesTable, "rows", len(records))
	}
	return written, nil
}

// distinctByID keeps one entry per id, in first-seen order, with the data of
// the last occurrence.
func distinctByID(entries []catalog.Entry) []catalog.Entry {
	index := make(map[int]int, len(entries))
	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
