package config

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults applied by InitConfig.
const (
	DefaultLanguage      = "en-US"
	DefaultVideoProvider = "YouTube"
	DefaultWebAddr       = ":8080"
	DefaultSessionTTL    = 30 * time.Minute
)

// Global configuration variables
var (
	// TMDBAPIKey is the API key for TheMovieDB
	TMDBAPIKey string
	// Language is sent with every TMDB request
	Language string
	// TMDBBaseURL overrides the TMDB API endpoint when set
	TMDBBaseURL string
	// VideoProvider is the site trailers must be hosted on
	VideoProvider string
	// WebAddr is the listen address of the web UI
	WebAddr string
	// SessionTTL is how long an idle web session is kept
	SessionTTL time.Duration
	// PosterDir holds resized poster images served by the web UI
	PosterDir string
)

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("tmdb.language", DefaultLanguage)
	viper.SetDefault("tmdb.base_url", "")
	viper.SetDefault("tmdb.video_provider", DefaultVideoProvider)
	viper.SetDefault("web.addr", DefaultWebAddr)
	viper.SetDefault("web.session_ttl", DefaultSessionTTL.String())
	viper.SetDefault("web.poster_dir", "./posters")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h")
	viper.SetDefault("cache.listing_ttl", "1h")
}

// InitConfig initializes the global configuration from viper
func InitConfig() {
	SetDefaults()

	TMDBAPIKey = viper.GetString("TMDBAPIKey")
	Language = viper.GetString("tmdb.language")
	TMDBBaseURL = viper.GetString("tmdb.base_url")
	VideoProvider = viper.GetString("tmdb.video_provider")
	WebAddr = viper.GetString("web.addr")
	PosterDir = viper.GetString("web.poster_dir")

	SessionTTL = viper.GetDuration("web.session_ttl")
	if SessionTTL <= 0 {
		SessionTTL = DefaultSessionTTL
	}
}
