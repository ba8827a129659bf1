// package models defines the domain entities shared by the store, the playback engine and the downloader
package models

import (
	"path/filepath"
	"slices"
	"time"
)

// Track is a single playable file. Its path is the identity key.
type Track struct {
	Title     string  `json:"title"`
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumb,omitempty"`
}

// Name returns the file name used as the track identity on the message channel.
func (t Track) Name() string {
	return filepath.Base(t.Path)
}

// Playlist is an ordered, named list of tracks. Names are not unique.
type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Names returns the track identities in playlist order.
func (p Playlist) Names() []string {
	names := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		names[i] = t.Name()
	}
	return names
}

// Paths returns the track paths in playlist order.
func (p Playlist) Paths() []string {
	paths := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		paths[i] = t.Path
	}
	return paths
}

// Duration sums the known track durations in seconds.
func (p Playlist) Duration() float64 {
	var total float64
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// Clone returns a deep copy.
func (p Playlist) Clone() Playlist {
	p.Tracks = slices.Clone(p.Tracks)
	if p.Tracks == nil {
		p.Tracks = []Track{}
	}
	return p
}

// Collection is the full persisted document. An empty ActivePlaylistID means no playlist is active.
type Collection struct {
	Playlists        []Playlist `json:"playlists"`
	ActivePlaylistID string     `json:"active_playlist_id"`
}

// Index returns the position of the playlist with id, or -1.
func (c *Collection) Index(id string) int {
	return slices.IndexFunc(c.Playlists, func(p Playlist) bool { return p.ID == id })
}

// Find returns a pointer into the collection for in-place edits.
func (c *Collection) Find(id string) *Playlist {
	if i := c.Index(id); i >= 0 {
		return &c.Playlists[i]
	}
	return nil
}

// Active returns the active playlist, if any.
func (c *Collection) Active() (Playlist, bool) {
	if p := c.Find(c.ActivePlaylistID); p != nil {
		return *p, true
	}
	return Playlist{}, false
}

// Clone returns a deep copy.
func (c Collection) Clone() Collection {
	out := Collection{ActivePlaylistID: c.ActivePlaylistID, Playlists: make([]Playlist, len(c.Playlists))}
	for i, p := range c.Playlists {
		out.Playlists[i] = p.Clone()
	}
	return out
}

// DownloadStatus is the ledger state of a download.
type DownloadStatus string

const (
	DownloadPending   DownloadStatus = "pending"
	DownloadCompleted DownloadStatus = "completed"
	DownloadFailed    DownloadStatus = "failed"
)

// Download is a ledger row for one remote id.
type Download struct {
	ID          string
	RemoteID    string
	Title       string
	Path        string
	ArtworkPath string
	Status      DownloadStatus
	Reason      string
	Attempts    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
