package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("slow down")

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := stdErrors.Join(err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	err := NewRateLimitErrorWithRetry("too many requests", 2*time.Minute)

	expected := "too many requests (retry after 2m0s)"
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}

	if err.RetryAfter.Minutes() != 2.0 {
		t.Fatalf("RetryAfter = %v, want 2 minutes", err.RetryAfter)
	}
}

func TestRateLimitErrorWithRetry_ZeroDuration(t *testing.T) {
	err := NewRateLimitErrorWithRetry("rate limited", 0)

	if err.Error() != "rate limited" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "rate limited")
	}
}

func TestFetchErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{
			name: "status and cause",
			err:  NewFetchError("details", 500, stdErrors.New("oops")),
			want: "fetch details: HTTP 500: oops",
		},
		{
			name: "status only",
			err:  NewFetchError("listing", 404, nil),
			want: "fetch listing: HTTP 404",
		},
		{
			name: "transport",
			err:  NewFetchError("videos", 0, stdErrors.New("connection refused")),
			want: "fetch videos: connection refused",
		},
		{
			name: "empty",
			err:  NewFetchError("listing", 0, nil),
			want: "fetch listing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Fatalf("Error message = %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestFetchError_Wrapped(t *testing.T) {
	cause := stdErrors.New("reset")
	err := fmt.Errorf("open details: %w", NewFetchError("details", 502, cause))

	if !IsFetchError(err) {
		t.Fatalf("IsFetchError returned false for wrapped FetchError")
	}
	if !stdErrors.Is(err, cause) {
		t.Fatalf("errors.Is did not reach the FetchError cause")
	}
	if StatusCode(err) != 502 {
		t.Fatalf("StatusCode = %d, want 502", StatusCode(err))
	}
	if StatusCode(stdErrors.New("plain")) != 0 {
		t.Fatalf("StatusCode of a plain error should be 0")
	}
}

func TestPlayError(t *testing.T) {
	noVideos := NewPlayError(NoVideos, "YouTube")
	if noVideos.Error() != "no videos available" {
		t.Fatalf("Error message = %q", noVideos.Error())
	}
	if noVideos.UserMessage() != "No video found for this movie." {
		t.Fatalf("UserMessage = %q", noVideos.UserMessage())
	}

	noProvider := NewPlayError(NoProviderVideo, "YouTube")
	if noProvider.Error() != "no matching-provider video" {
		t.Fatalf("Error message = %q", noProvider.Error())
	}
	if noProvider.UserMessage() != "No YouTube video found for this movie." {
		t.Fatalf("UserMessage = %q", noProvider.UserMessage())
	}

	if !IsPlayError(fmt.Errorf("play: %w", noProvider)) {
		t.Fatalf("IsPlayError returned false for wrapped PlayError")
	}
	if IsPlayError(NewFetchError("videos", 500, nil)) {
		t.Fatalf("IsPlayError returned true for FetchError")
	}
}
