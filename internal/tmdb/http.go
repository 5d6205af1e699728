package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

// endpoint builds an API URL with the key and language set.
func (c *Client) endpoint(path string, extra url.Values) string {
	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	return c.baseURL + path + "?" + params.Encode()
}

// getJSON fetches endpoint into target, retrying transport failures. Every
// failure comes back as a FetchError tagged with op.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return marqueeErrors.NewFetchError(op, 0, err)
		}

		err := c.doJSONRequest(ctx, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.retryAttempts || ctx.Err() != nil {
			break
		}
		if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
			lastErr = fmt.Errorf("%w (retry aborted: %w)", lastErr, err)
			break
		}
	}

	var statusErr *statusError
	if errors.As(lastErr, &statusErr) {
		return marqueeErrors.NewFetchError(op, statusErr.code, lastErr)
	}
	return marqueeErrors.NewFetchError(op, 0, lastErr)
}

// statusError is a non-success HTTP response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("tmdb: unexpected status %d", e.code)
	}
	return fmt.Sprintf("tmdb: unexpected status %d: %s", e.code, e.body)
}

func (c *Client) doJSONRequest(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.Join(
			&statusError{code: resp.StatusCode},
			marqueeErrors.NewRateLimitErrorWithRetry("TMDB rate limit exceeded", retryAfter(resp.Header)),
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryAfter(h http.Header) time.Duration {
	seconds, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func isRetryable(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}
