package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lepinkainen/marquee/internal/browse"
	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/snapshot"
	"github.com/lepinkainen/marquee/internal/tmdb"
	"github.com/lepinkainen/marquee/internal/tui"
	"github.com/lepinkainen/marquee/internal/web"
)

var stdout io.Writer = os.Stdout

var (
	serveWeb = func(ctx context.Context, s *web.Server, addr string) error {
		return s.ListenAndServe(ctx, addr)
	}
	runBrowser      = tui.Run
	captureSnapshot = snapshot.Capture
)

// newSource builds the TMDB-backed catalog source from the global config.
var newSource = func(cli *CLI) (browse.Source, *tmdb.Client, error) {
	if config.TMDBAPIKey == "" {
		return nil, nil, errors.New("TMDB API key is required (set TMDB_API_KEY or TMDBAPIKey in config.yaml)")
	}
	client := tmdb.NewClient(config.TMDBAPIKey,
		tmdb.WithBaseURL(config.TMDBBaseURL),
		tmdb.WithLanguage(config.Language),
	)
	return tmdb.NewSource(client, !cli.NoCache), client, nil
}

func newController(src browse.Source) *browse.Controller {
	return browse.NewController(src,
		browse.WithProvider(config.VideoProvider),
		browse.WithLogger(slog.Default()),
	)
}

// loadPages fetches up to pages listing pages, stopping early at the last one.
func loadPages(ctx context.Context, c *browse.Controller, pages int) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	for i := 1; i < pages; i++ {
		if _, err := c.LoadMore(ctx); err != nil {
			if errors.Is(err, browse.ErrNoMorePages) {
				slog.Debug("Reached last listing page", "pages", i)
				return nil
			}
			return err
		}
	}
	return nil
}

// ServeCmd represents the serve command
type ServeCmd struct {
	Addr          string `help:"Listen address (defaults to web.addr in config)"`
	NoPosterProxy bool   `help:"Link TMDB poster images directly instead of serving resized local copies"`
}

func (s *ServeCmd) Run(ctx context.Context, cli *CLI) error {
	src, client, err := newSource(cli)
	if err != nil {
		return err
	}

	opts := web.Options{
		Source:     src,
		Provider:   config.VideoProvider,
		SessionTTL: config.SessionTTL,
		Logger:     slog.Default(),
	}
	if !s.NoPosterProxy {
		opts.Posters = client
		opts.PosterDir = config.PosterDir
	}

	server, err := web.NewServer(opts)
	if err != nil {
		return err
	}

	addr := s.Addr
	if addr == "" {
		addr = config.WebAddr
	}
	return serveWeb(ctx, server, addr)
}

// BrowseCmd represents the browse command
type BrowseCmd struct{}

func (b *BrowseCmd) Run(ctx context.Context, cli *CLI) error {
	src, _, err := newSource(cli)
	if err != nil {
		return err
	}
	return runBrowser(ctx, newController(src))
}

// ListCmd represents the list command
type ListCmd struct {
	Pages  int    `short:"p" help:"Number of listing pages to fetch" default:"1"`
	Filter string `short:"f" help:"Only show movies whose title or genre contains this text"`
	Format string `help:"Output format" enum:"table,json,yaml" default:"table"`
}

func (l *ListCmd) Run(ctx context.Context, cli *CLI) error {
	src, _, err := newSource(cli)
	if err != nil {
		return err
	}

	c := newController(src)
	if err := loadPages(ctx, c, l.Pages); err != nil {
		return err
	}

	entries := c.Snapshot().Entries
	if l.Filter != "" {
		entries = c.Filter(l.Filter)
	}
	return writeEntries(stdout, l.Format, entries)
}

// ExportCmd represents the export command
type ExportCmd struct {
	Pages          int    `short:"p" help:"Number of listing pages to fetch" default:"5"`
	DB             string `help:"Path to SQLite database file" default:"./marquee.db"`
	DatasetteURL   string `help:"Export to a remote Datasette instance instead of SQLite"`
	DatasetteToken string `help:"API token for the Datasette insert API" env:"DATASETTE_TOKEN"`
	Database       string `help:"Datasette database name" default:"marquee"`
}

func (e *ExportCmd) Run(ctx context.Context, cli *CLI) error {
	src, client, err := newSource(cli)
	if err != nil {
		return err
	}

	c := newController(src)
	if err := loadPages(ctx, c, e.Pages); err != nil {
		return err
	}

	var store datastore.Store = datastore.NewSQLiteStore(e.DB)
	target := e.DB
	if e.DatasetteURL != "" {
		store = datastore.NewDatasetteClient(e.DatasetteURL, e.DatasetteToken)
		target = e.DatasetteURL
	}

	snap := c.Snapshot()
	n, err := datastore.ExportMovies(store, e.Database, snap.Entries, client.ImageURL)
	if err != nil {
		return fmt.Errorf("export to %s: %w", target, err)
	}
	slog.Info("Exported movies", "rows", n, "pages", snap.Page, "target", target)
	return nil
}

// SnapshotCmd represents the snapshot command
type SnapshotCmd struct {
	URL     string        `help:"Web UI page to capture" default:"http://localhost:8080/"`
	Out     string        `short:"o" help:"Output image file (.png or .jpg)" required:""`
	Width   int           `help:"Viewport width" default:"1280"`
	Height  int           `help:"Viewport height" default:"800"`
	Headful bool          `help:"Show the browser window"`
	Timeout time.Duration `help:"Give up after this long" default:"30s"`
}

func (s *SnapshotCmd) Run(ctx context.Context) error {
	return captureSnapshot(ctx, snapshot.Options{
		URL:      s.URL,
		Out:      s.Out,
		Width:    s.Width,
		Height:   s.Height,
		Headless: !s.Headful,
		Timeout:  s.Timeout,
	})
}
