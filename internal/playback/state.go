package playback

import (
	"path/filepath"
	"slices"
	"time"
)

const historyLimit = 200

// Status is the engine's playback state.
type Status int

const (
	Idle Status = iota
	Loading
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return ""
	}
}

// Reply is the answer to the UI's "are we paused?" handshake query.
func (s Status) Reply() string {
	switch s {
	case Playing:
		return "False"
	case Paused:
		return "True"
	default:
		return "None"
	}
}

// ParseReply maps a handshake reply back to a [Status]. Unknown replies map to [Idle].
func ParseReply(reply string) Status {
	switch reply {
	case "False", "false":
		return Playing
	case "True", "true":
		return Paused
	default:
		return Idle
	}
}

// State is the playback session. It is owned by the [Engine] and only mutated under its lock.
type State struct {
	Status   Status
	Current  string // resolved path of the loaded track
	Duration time.Duration

	Loop    bool
	Shuffle bool

	Playlist  []string // snapshot of the UI's active playlist, names or paths
	History   []string // previously played tracks, most recent last
	Bag       []string // remaining shuffle picks, next pick last
	BagSource int      // playlist length the bag was built from

	ResumeAt  time.Duration
	HasResume bool
	LastRatio float64

	PlaylistMode bool // auto-advance follows the playlist instead of resetting the UI
	FromService  bool // the current track was picked by the service, not the UI
	Previous     bool // a backward move is in progress
	Detached     bool // the UI is in the background
}

// PushHistory records a played track, capping the stack.
func (s *State) PushHistory(path string) {
	if path == "" {
		return
	}
	s.History = append(s.History, path)
	if len(s.History) > historyLimit {
		s.History = slices.Clone(s.History[len(s.History)-historyLimit:])
	}
}

// ReplacePlaylist swaps the snapshot and resets history and shuffle state. It reports whether anything changed.
func (s *State) ReplacePlaylist(entries []string) bool {
	if slices.Equal(s.Playlist, entries) {
		return false
	}
	s.Playlist = slices.Clone(entries)
	s.History = nil
	s.Bag = nil
	s.BagSource = 0
	return true
}

// Snapshot is a read-only view of the session for status reporting.
type Snapshot struct {
	Status         string  `json:"status"`
	Track          string  `json:"track,omitempty"`
	Position       float64 `json:"position"`
	Duration       float64 `json:"duration"`
	Loop           bool    `json:"loop"`
	Shuffle        bool    `json:"shuffle"`
	PlaylistMode   bool    `json:"playlist_mode"`
	PlaylistLength int     `json:"playlist_length"`
	HistoryLength  int     `json:"history_length"`
	BagRemaining   int     `json:"bag_remaining"`
	Detached       bool    `json:"detached"`
}

func (s *State) snapshot(position time.Duration) Snapshot {
	track := ""
	if s.Current != "" {
		track = filepath.Base(s.Current)
	}
	return Snapshot{
		Status:         s.Status.String(),
		Track:          track,
		Position:       seconds(position),
		Duration:       seconds(s.Duration),
		Loop:           s.Loop,
		Shuffle:        s.Shuffle,
		PlaylistMode:   s.PlaylistMode,
		PlaylistLength: len(s.Playlist),
		HistoryLength:  len(s.History),
		BagRemaining:   len(s.Bag),
		Detached:       s.Detached,
	}
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
