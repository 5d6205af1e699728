package errors

import "errors"

// PlayReason says why no trailer could be selected.
type PlayReason int

const (
	// NoVideos means the video list for the movie was empty.
	NoVideos PlayReason = iota
	// NoProviderVideo means videos exist but none is hosted by the provider.
	NoProviderVideo
)

// PlayError is returned when a movie has no playable trailer.
type PlayError struct {
	Reason   PlayReason
	Provider string
}

func (e *PlayError) Error() string {
	if e.Reason == NoProviderVideo {
		return "no matching-provider video"
	}
	return "no videos available"
}

// UserMessage is the text shown in the error view.
func (e *PlayError) UserMessage() string {
	if e.Reason == NoProviderVideo {
		provider := e.Provider
		if provider == "" {
			provider = "matching"
		}
		return "No " + provider + " video found for this movie."
	}
	return "No video found for this movie."
}

// NewPlayError creates a PlayError for the given reason and provider.
func NewPlayError(reason PlayReason, provider string) *PlayError {
	return &PlayError{Reason: reason, Provider: provider}
}

// IsPlayError reports whether err is a PlayError (even when wrapped).
func IsPlayError(err error) bool {
	var playErr *PlayError
	return errors.As(err, &playErr)
}
