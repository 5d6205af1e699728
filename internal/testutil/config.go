package testutil

import (
	"testing"
	"time"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	TMDBAPIKey    string
	Language      string
	TMDBBaseURL   string
	VideoProvider string
	WebAddr       string
	SessionTTL    time.Duration
	PosterDir     string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		TMDBAPIKey:    config.TMDBAPIKey,
		Language:      config.Language,
		TMDBBaseURL:   config.TMDBBaseURL,
		VideoProvider: config.VideoProvider,
		WebAddr:       config.WebAddr,
		SessionTTL:    config.SessionTTL,
		PosterDir:     config.PosterDir,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.TMDBAPIKey = state.TMDBAPIKey
	config.Language = state.Language
	config.TMDBBaseURL = state.TMDBBaseURL
	config.VideoProvider = state.VideoProvider
	config.WebAddr = state.WebAddr
	config.SessionTTL = state.SessionTTL
	config.PosterDir = state.PosterDir
}

// ResetConfig resets viper and restores the config globals when the test
// completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfigOption is a functional option for SetTestConfig.
type SetTestConfigOption func(*ConfigState)

// WithTMDBAPIKey sets the TMDB API key.
func WithTMDBAPIKey(key string) SetTestConfigOption {
	return func(s *ConfigState) {
		s.TMDBAPIKey = key
	}
}

// WithTMDBBaseURL points the TMDB client at a test server.
func WithTMDBBaseURL(url string) SetTestConfigOption {
	return func(s *ConfigState) {
		s.TMDBBaseURL = url
	}
}

// WithVideoProvider sets the trailer provider.
func WithVideoProvider(provider string) SetTestConfigOption {
	return func(s *ConfigState) {
		s.VideoProvider = provider
	}
}

// SetTestConfig installs test defaults in the config globals, applies opts,
// and restores everything when the test completes.
func SetTestConfig(t *testing.T, opts ...SetTestConfigOption) {
	t.Helper()

	ResetConfig(t)

	state := ConfigState{
		TMDBAPIKey:    "test-tmdb-key",
		Language:      config.DefaultLanguage,
		VideoProvider: config.DefaultVideoProvider,
		WebAddr:       "127.0.0.1:0",
		SessionTTL:    config.DefaultSessionTTL,
		PosterDir:     t.TempDir(),
	}
	for _, opt := range opts {
		opt(&state)
	}
	RestoreConfigState(state)
}

// SetViperValue sets a viper configuration value and restores the previous
// one when the test completes.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)
	viper.Set(key, value)

	t.Cleanup(func() {
		// viper cannot unset a key, so only previously set values come back.
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache points cache.dbfile at a fresh database inside env and
// returns the cache directory. Callers reset the global cache themselves.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	env.MkdirAll("cache")
	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")
	viper.Set("cache.listing_ttl", "1h")

	return env.Path("cache")
}
