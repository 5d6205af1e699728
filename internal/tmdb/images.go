package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

// ImageURL returns the w500 poster URL for a poster path, or "" when the
// entry has no poster.
func (c *Client) ImageURL(posterPath string) string {
	return c.PosterURL(posterPath, defaultPosterSize)
}

// PosterURL returns the poster URL at a TMDB size such as "w185" or "original".
func (c *Client) PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	if size == "" {
		size = defaultPosterSize
	}
	return c.imageBaseURL + "/" + size + posterPath
}

// DownloadAndResizeImage downloads an image, shrinks it to maxWidth when
// wider, and writes it to savePath in the format its extension names.
func (c *Client) DownloadAndResizeImage(ctx context.Context, imageURL, savePath string, maxWidth int) error {
	if imageURL == "" {
		return ErrNoPoster
	}
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	format, err := imaging.FormatFromFilename(savePath)
	if err != nil {
		return fmt.Errorf("poster %s: %w", savePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return marqueeErrors.NewFetchError("poster", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return marqueeErrors.NewFetchError("poster", resp.StatusCode, nil)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode poster: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return err
	}

	// Concurrent requests for the same poster must never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(savePath), ".poster-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(85)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode poster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), savePath)
}
