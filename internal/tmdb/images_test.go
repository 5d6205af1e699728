package tmdb

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageURL(t *testing.T) {
	client := NewClient("key")

	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", client.ImageURL("/abc.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/abc.jpg", client.PosterURL("/abc.jpg", "w185"))
	assert.Empty(t, client.ImageURL(""))

	custom := NewClient("key", WithImageBaseURL("http://img.test/"))
	assert.Equal(t, "http://img.test/w500/x.png", custom.ImageURL("/x.png"))
}

func posterPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownloadAndResizeImage(t *testing.T) {
	body := posterPNG(t, 400, 600)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/w500/poster.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	env := testutil.NewTestEnv(t)
	client := NewClient("key", WithHTTPClient(server.Client()), WithImageBaseURL(server.URL))

	resized := env.Path("posters", "200", "poster.jpg")
	require.NoError(t, client.DownloadAndResizeImage(context.Background(), client.ImageURL("/poster.png"), resized, 200))

	img, err := imaging.Open(resized)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	// Narrow images are never upscaled.
	kept := env.Path("posters", "1000", "poster.png")
	require.NoError(t, client.DownloadAndResizeImage(context.Background(), client.ImageURL("/poster.png"), kept, 1000))
	img, err = imaging.Open(kept)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())

	assert.Equal(t, []string{"poster.jpg"}, dirNames(t, env.Path("posters", "200")), "no temp files left behind")
}

func TestDownloadAndResizeImageErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/w500/text.png" {
			_, _ = w.Write([]byte("not an image"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	env := testutil.NewTestEnv(t)
	client := NewClient("key", WithHTTPClient(server.Client()), WithImageBaseURL(server.URL))
	ctx := context.Background()

	err := client.DownloadAndResizeImage(ctx, client.ImageURL("/missing.png"), env.Path("a.jpg"), 100)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, marqueeErrors.StatusCode(err))

	err = client.DownloadAndResizeImage(ctx, client.ImageURL("/text.png"), env.Path("b.jpg"), 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode poster")

	assert.ErrorIs(t, client.DownloadAndResizeImage(ctx, "", env.Path("c.jpg"), 100), ErrNoPoster)

	err = client.DownloadAndResizeImage(ctx, client.ImageURL("/text.png"), env.Path("d.unknown"), 100)
	require.Error(t, err)
	assert.False(t, env.FileExists("a.jpg"))
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
