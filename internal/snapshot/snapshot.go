// Package snapshot captures full-page screenshots of the web UI with
// headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

const (
	defaultWidth    = 1280
	defaultHeight   = 800
	defaultQuality  = 90
	defaultTimeout  = 30 * time.Second
	defaultSelector = "#movie-container"
)

var (
	chromedpExecAllocator = chromedp.NewExecAllocator
	chromedpContext       = chromedp.NewContext
	chromedpRunner        = chromedp.Run
	fullScreenshot        = chromedp.FullScreenshot
)

// Options configures a capture.
type Options struct {
	URL    string
	Out    string
	Width  int
	Height int
	// Quality applies to JPEG output; PNG output is always lossless.
	Quality int
	// WaitSelector must be visible before the capture is taken.
	WaitSelector string
	Headless     bool
	Timeout      time.Duration
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = defaultQuality
	}
	if isPNG(o.Out) {
		o.Quality = 100
	}
	if o.WaitSelector == "" {
		o.WaitSelector = defaultSelector
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}

// Capture loads opts.URL in headless Chrome, waits for the movie container
// and writes a full-page screenshot to opts.Out.
func Capture(parentCtx context.Context, opts Options) error {
	if err := validate(opts); err != nil {
		return err
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(parentCtx, opts.Timeout)
	defer cancel()

	allocCtx, cancelAllocator := chromedpExecAllocator(ctx, buildExecAllocatorOptions(opts)...)
	defer cancelAllocator()

	browserCtx, cancelBrowser := chromedpContext(allocCtx)
	defer cancelBrowser()

	slog.Info("Capturing web UI", "url", opts.URL, "width", opts.Width, "height", opts.Height)

	var buf []byte
	if err := chromedpRunner(browserCtx, captureTasks(opts, &buf)); err != nil {
		return fmt.Errorf("capture %s: %w", opts.URL, err)
	}
	if len(buf) == 0 {
		return fmt.Errorf("capture %s: empty screenshot", opts.URL)
	}

	if err := writeImage(opts.Out, buf); err != nil {
		return err
	}
	slog.Info("Saved screenshot", "path", opts.Out, "bytes", len(buf))
	return nil
}

func validate(opts Options) error {
	if opts.Out == "" {
		return errors.New("output path is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", opts.URL)
	}
	return nil
}

func buildExecAllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	}
}

func captureTasks(opts Options, buf *[]byte) chromedp.Tasks {
	return chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(int64(opts.Width), int64(opts.Height), 1, false),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery),
		fullScreenshot(buf, opts.Quality),
	}
}

// writeImage writes data next to path first so a failed write never
// leaves a truncated screenshot behind.
func writeImage(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}
