package services

import (
	"context"
	"errors"
)

var (
	ErrFormatUnavailable    = errors.New("requested format is not available")
	ErrUnsupportedContainer = errors.New("container does not support embedded artwork")
	ErrArtworkRequest       = errors.New("artwork request failed")
)

// FetchRequest describes one audio download.
type FetchRequest struct {
	RemoteID   string
	OutputBase string                // destination path without extension
	Progress   func(percent float64) // optional, called from the fetcher's goroutine
}

// Fetcher downloads a remote item and returns the path of the audio file it wrote.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (string, error)
}

// Artwork retrieves cover images and returns them normalised to JPEG.
type Artwork interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Tagger embeds a cover image and title into an audio file.
type Tagger interface {
	Embed(audioPath string, cover []byte, title string) error
}
