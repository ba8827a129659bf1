package playback

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrOutputUnavailable = errors.New("audio output unavailable")
)

// FallbackExtensions are tried, in order, for track names given without an extension.
var FallbackExtensions = []string{".m4a", ".mp3", ".aac", ".flac", ".ogg", ".wav"}

// CoverExtensions are the image types accepted as a track's cover art.
var CoverExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Output opens audio files for playback.
type Output interface {
	Open(path string) (Handle, error)
}

// Handle controls one opened track.
type Handle interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	Position() (time.Duration, error)
	Duration() time.Duration
	SetLoop(loop bool)
	Close() error
}

// ResolveTrack locates an audio file for path.
//
// It tries the path as given, then the same basename inside mediaDir, then the fallback
// extensions when the name has none.
func ResolveTrack(path, mediaDir string) (string, bool) {
	if path == "" {
		return "", false
	}

	candidates := []string{path}
	if mediaDir != "" {
		candidates = append(candidates, filepath.Join(mediaDir, filepath.Base(path)))
	}

	for _, c := range candidates {
		if isFile(c) {
			return c, true
		}
	}

	if filepath.Ext(path) != "" {
		return "", false
	}
	for _, c := range candidates {
		for _, ext := range FallbackExtensions {
			if isFile(c + ext) {
				return c + ext, true
			}
		}
	}
	return "", false
}

// ResolveCover finds the cover image for a resolved track: a "<stem>.jpg" in mediaDir first,
// then any same-stem image beside the track.
func ResolveCover(track, mediaDir string) (string, bool) {
	if track == "" {
		return "", false
	}
	stem := strings.TrimSuffix(filepath.Base(track), filepath.Ext(track))

	if mediaDir != "" {
		if c := filepath.Join(mediaDir, stem+".jpg"); isFile(c) {
			return c, true
		}
	}

	base := strings.TrimSuffix(track, filepath.Ext(track))
	for _, ext := range CoverExtensions {
		if isFile(base + ext) {
			return base + ext, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
