package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/marquee/internal/cache"
	"github.com/lepinkainen/marquee/internal/config"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the marquee application
type CLI struct {
	// Global flags
	Verbose  bool   `short:"v" help:"Enable debug logging"`
	Language string `help:"TMDB response language, e.g. fi-FI (defaults to tmdb.language in config)"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file (defaults to cache.dbfile in config)"`
	CacheTTL    string `help:"Cache time-to-live duration, e.g. 720h (defaults to cache.ttl in config)"`
	NoCache     bool   `help:"Always fetch from TMDB, bypassing the response cache"`

	Serve    ServeCmd    `cmd:"" help:"Serve the movie browser web UI"`
	Browse   BrowseCmd   `cmd:"" help:"Browse now playing movies in the terminal"`
	List     ListCmd     `cmd:"" help:"Print now playing movies"`
	Export   ExportCmd   `cmd:"" help:"Export now playing movies to SQLite or Datasette"`
	Snapshot SnapshotCmd `cmd:"" help:"Take a full-page screenshot of a running web UI"`
	Cache    CacheCmd    `cmd:"" help:"Manage the TMDB response cache"`
}

// CacheCmd groups the cache subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Delete cached TMDB responses"`
	Prune      cache.PruneCacheCmd      `cmd:"" help:"Delete expired TMDB responses"`
}

func kongOptions(ctx context.Context, cli *CLI) []kong.Option {
	return []kong.Option{
		kong.Name("marquee"),
		kong.Description("Browse the movies now playing in theaters, from TMDB."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(cli),
	}
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)
	initConfig()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	ctx := kong.Parse(&cli, kongOptions(runCtx, &cli)...)

	if cli.Verbose {
		initLogging(slog.LevelDebug)
	}
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if closeErr := cache.ResetGlobalCache(); closeErr != nil {
		slog.Debug("Failed to close cache", "error", closeErr)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	config.SetDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind specific environment variables to config keys
	if err := viper.BindEnv("TMDBAPIKey", "TMDB_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
	if cli.Language != "" {
		viper.Set("tmdb.language", cli.Language)
	}

	config.InitConfig()
}

func initLogging(level slog.Level) {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
