package web

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

// PosterFetcher downloads and resizes TMDB posters.
type PosterFetcher interface {
	PosterURL(posterPath, size string) string
	DownloadAndResizeImage(ctx context.Context, imageURL, savePath string, maxWidth int) error
}

// posterSourceSize is the TMDB rendition every local width is resized from.
const posterSourceSize = "w780"

// PosterWidths are the widths the proxy serves.
var PosterWidths = map[int]bool{92: true, 154: true, 185: true, 342: true, 500: true, 780: true}

var posterFile = regexp.MustCompile(`^[A-Za-z0-9_-]+\.(jpg|jpeg|png)$`)

// posterProxy serves resized posters from a disk cache, fetching misses.
type posterProxy struct {
	fetcher PosterFetcher
	dir     string
	logger  *slog.Logger
}

func (p *posterProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	width, err := strconv.Atoi(chi.URLParam(r, "width"))
	file := chi.URLParam(r, "file")
	if err != nil || !PosterWidths[width] || !posterFile.MatchString(file) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(p.dir, strconv.Itoa(width), file)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		source := p.fetcher.PosterURL("/"+file, posterSourceSize)
		if err := p.fetcher.DownloadAndResizeImage(r.Context(), source, path, width); err != nil {
			p.logger.Warn("Failed to fetch poster", "file", file, "width", width, "error", err)
			if marqueeErrors.StatusCode(err) == http.StatusNotFound {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "poster unavailable", http.StatusBadGateway)
			return
		}
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// localPosterURL is the proxy path for a TMDB poster path at the grid width.
func localPosterURL(posterPath string) string {
	return "/posters/500" + posterPath
}
