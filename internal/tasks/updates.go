package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or log for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LookupLedger Phase = iota
	FetchAudio
	FetchArtwork
	EmbedArtwork
	Complete
	Failed
)

func (p Phase) String() string {
	switch p {
	case LookupLedger:
		return "lookup_ledger"
	case FetchAudio:
		return "fetch_audio"
	case FetchArtwork:
		return "fetch_artwork"
	case EmbedArtwork:
		return "embed_artwork"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func lookupUpdate(remoteID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupLedger,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Checking download ledger for %s...", remoteID),
	}
}

func attemptUpdate(attempt, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAudio,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("Downloading %s (attempt %d/%d)...", title, attempt, total),
	}
}

func percentUpdate(attempt, total int, percent float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAudio,
		Step:    attempt,
		Total:   total,
		Message: progressText(percent),
		Data:    percent,
	}
}

func artworkUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtwork,
		Step:    1,
		Total:   1,
		Message: "Fetching artwork...",
		Data:    url,
	}
}

func embedUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EmbedArtwork,
		Step:    1,
		Total:   1,
		Message: "Embedding artwork...",
		Data:    path,
	}
}

func completeUpdate(result *DownloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Downloaded %s", result.Path),
		Data:    result,
	}
}

func failedUpdate(reason string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Download failed (%s): %v", reason, err),
		Data:    reason,
	}
}

// progressText mirrors yt-dlp's own progress line.
func progressText(percent float64) string {
	return fmt.Sprintf("[download] %5.1f%%", percent)
}
