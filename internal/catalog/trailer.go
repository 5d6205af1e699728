package catalog

import (
	"fmt"
	"net/url"

	marqueeErrors "github.com/lepinkainen/marquee/internal/errors"
)

// DefaultProvider is the video host trailers must come from.
const DefaultProvider = "YouTube"

// VideoRef identifies an embeddable trailer.
type VideoRef struct {
	Provider string
	Key      string
}

// EmbedURL returns the player URL with autoplay enabled.
func (v VideoRef) EmbedURL() string {
	if v.Provider == "Vimeo" {
		return fmt.Sprintf("https://player.vimeo.com/video/%s?autoplay=1", url.PathEscape(v.Key))
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=1", url.PathEscape(v.Key))
}

// WatchURL returns a plain link to the video on its host.
func (v VideoRef) WatchURL() string {
	if v.Provider == "Vimeo" {
		return "https://vimeo.com/" + url.PathEscape(v.Key)
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(v.Key)
}

// SelectTrailer picks the first video hosted by provider. An empty list
// and a list without a provider match fail with distinct PlayErrors.
func SelectTrailer(videos []Video, provider string) (VideoRef, error) {
	if provider == "" {
		provider = DefaultProvider
	}
	if len(videos) == 0 {
		return VideoRef{}, marqueeErrors.NewPlayError(marqueeErrors.NoVideos, provider)
	}
	for _, v := range videos {
		if v.Site == provider {
			return VideoRef{Provider: v.Site, Key: v.Key}, nil
		}
	}
	return VideoRef{}, marqueeErrors.NewPlayError(marqueeErrors.NoProviderVideo, provider)
}
