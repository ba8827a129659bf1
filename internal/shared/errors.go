package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Playback and store errors
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrNothingLoaded    = fmt.Errorf("no track loaded")
	ErrCorruptDocument  = fmt.Errorf("corrupt playlist document")
	ErrIOTransient      = fmt.Errorf("transient i/o failure")

	// Download errors
	ErrDownloadFailed     = fmt.Errorf("download failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Channel errors
	ErrProtocolMalformed = fmt.Errorf("malformed message")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
