// Package tmdb provides a client for TheMovieDB API.
package tmdb

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/marquee/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://api.themoviedb.org/3"
	defaultImageBaseURL  = "https://image.tmdb.org/t/p"
	defaultPosterSize    = "w500"
	defaultLanguage      = "en-US"
	defaultMaxAttempts   = 3
	defaultMaxWidth      = 500
	defaultRatePerSecond = 4 // TMDB allows ~40 requests per 10 seconds
)

// ErrNoPoster is returned when an entry has no poster path.
var ErrNoPoster = errors.New("poster not available")

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a TMDB API client.
type Client struct {
	apiKey        string
	baseURL       string
	imageBaseURL  string
	language      string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
	sleep         func(context.Context, time.Duration) error
}

// NewClient creates a new TMDB API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		imageBaseURL:  defaultImageBaseURL,
		language:      defaultLanguage,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		rateLimiter:   ratelimit.New("TMDB", defaultRatePerSecond),
		retryAttempts: defaultMaxAttempts,
		sleep:         sleepContext,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the TMDB API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithImageBaseURL sets the image host prefix, without the size segment.
func WithImageBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.imageBaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithLanguage sets the language sent with every request.
func WithLanguage(language string) Option {
	return func(client *Client) {
		if language != "" {
			client.language = language
		}
	}
}

// WithRetryAttempts sets the number of attempts for transport failures.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRateLimiter sets the rate limiter. A nil limiter disables throttling.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		client.rateLimiter = limiter
	}
}
