package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
)

// DefaultPlaylistName is the playlist seeded into an empty collection.
const DefaultPlaylistName = "Favorites"

const untitledPlaylist = "Untitled"

// ThumbnailExts are the image extensions recognised as a track's cover when they share its stem.
var ThumbnailExts = []string{".jpg", ".jpeg", ".png", ".webp"}

// DurationProbe reports the length of an audio file in seconds.
type DurationProbe func(path string) (float64, error)

// PlaylistStoreOpts configures a [PlaylistStore].
type PlaylistStoreOpts struct {
	Path      string        // canonical document path
	Root      string        // media root; in-root paths are persisted relative to it
	ExportDir string        // optional public mirror of the document
	Probe     DurationProbe // optional duration probe for added tracks
	Logger    *log.Logger
}

// PlaylistStore owns the playlist [models.Collection] and its JSON document.
type PlaylistStore struct {
	mu        sync.Mutex
	path      string
	root      string
	exportDir string
	probe     DurationProbe
	logger    *log.Logger
	rename    renameFunc
	readFile  func(name string) ([]byte, error)
	coll      models.Collection
}

type document struct {
	Playlists        []models.Playlist `json:"playlists"`
	ActivePlaylistID *string           `json:"active_playlist_id"`
}

// NewPlaylistStore creates a store; call [PlaylistStore.Load] before use.
func NewPlaylistStore(opts PlaylistStoreOpts) *PlaylistStore {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	root := opts.Root
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	return &PlaylistStore{
		path:      opts.Path,
		root:      root,
		exportDir: opts.ExportDir,
		probe:     opts.Probe,
		logger:    shared.WithLogger(opts.Logger, "component", "playlists"),
		rename:    os.Rename,
		readFile:  os.ReadFile,
		coll:      models.Collection{Playlists: []models.Playlist{}},
	}
}

// Path returns the canonical document path.
func (s *PlaylistStore) Path() string { return s.path }

// Load reads the document, repairs stale paths and seeds the default playlist when the collection is empty.
//
// A missing or corrupt document is treated as empty and the seeded collection is persisted. Any other
// read failure keeps the seed in memory only, leaves the document on disk alone and returns an error
// wrapping [shared.ErrIOTransient]. Otherwise the only error is a failure to persist the seed.
func (s *PlaylistStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	persist := true
	coll, err := s.read()
	switch {
	case errors.Is(err, shared.ErrCorruptDocument):
		s.logger.Warn("playlist document corrupt, starting empty", "path", s.path, "error", err)
		s.quarantine()
		coll = models.Collection{}
	case err != nil:
		s.logger.Warn("playlist document unreadable, keeping it untouched", "path", s.path, "error", err)
		coll = models.Collection{}
		persist = false
	}

	s.repair(&coll)

	if len(coll.Playlists) == 0 {
		seed := newPlaylist(DefaultPlaylistName)
		coll.Playlists = []models.Playlist{seed}
		coll.ActivePlaylistID = seed.ID
		s.coll = coll
		if !persist {
			return err
		}
		if err := s.write(coll); err != nil {
			return err
		}
		s.logger.Info("seeded playlist collection", "name", DefaultPlaylistName)
		return nil
	}

	s.coll = coll
	s.logger.Debug("loaded playlists", "count", len(coll.Playlists), "path", s.path)
	return nil
}

// Save persists the in-memory collection.
func (s *PlaylistStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.coll)
}

// Create appends an empty playlist and returns its id. The new playlist becomes active if none is.
func (s *PlaylistStore) Create(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := newPlaylist(name)
	err := s.mutate(func(c *models.Collection) (bool, error) {
		c.Playlists = append(c.Playlists, p)
		if c.ActivePlaylistID == "" {
			c.ActivePlaylistID = p.ID
		}
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Rename changes a playlist's name. Blank names are ignored.
func (s *PlaylistStore) Rename(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	return s.mutate(func(c *models.Collection) (bool, error) {
		p := c.Find(id)
		if p == nil {
			return false, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		if name == "" || name == p.Name {
			return false, nil
		}
		p.Name = name
		return true, nil
	})
}

// Delete removes a playlist. Deleting the active playlist moves the active id to the first remaining playlist.
func (s *PlaylistStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(c *models.Collection) (bool, error) {
		i := c.Index(id)
		if i < 0 {
			return false, nil
		}

		c.Playlists = append(c.Playlists[:i], c.Playlists[i+1:]...)
		if c.ActivePlaylistID == id {
			c.ActivePlaylistID = ""
			if len(c.Playlists) > 0 {
				c.ActivePlaylistID = c.Playlists[0].ID
			}
		}
		return true, nil
	})
}

// SetActive marks a playlist active. Unknown ids are ignored.
func (s *PlaylistStore) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(c *models.Collection) (bool, error) {
		if c.Find(id) == nil || c.ActivePlaylistID == id {
			return false, nil
		}
		c.ActivePlaylistID = id
		return true, nil
	})
}

// ClearActive unsets the active playlist.
func (s *PlaylistStore) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(c *models.Collection) (bool, error) {
		if c.ActivePlaylistID == "" {
			return false, nil
		}
		c.ActivePlaylistID = ""
		return true, nil
	})
}

// AddTracks appends paths to a playlist, skipping empty paths and duplicates by normalised path.
// The document is saved once, and only if something was added.
func (s *PlaylistStore) AddTracks(id string, paths []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	err := s.mutate(func(c *models.Collection) (bool, error) {
		p := c.Find(id)
		if p == nil {
			return false, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}

		seen := make(map[string]bool, len(p.Tracks)+len(paths))
		for _, t := range p.Tracks {
			seen[shared.NormalizePathKey(t.Path)] = true
		}

		for _, raw := range paths {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			abs, err := filepath.Abs(raw)
			if err != nil {
				s.logger.Warn("skipping unresolvable path", "path", raw, "error", err)
				continue
			}

			key := shared.NormalizePathKey(abs)
			if seen[key] {
				continue
			}
			seen[key] = true

			p.Tracks = append(p.Tracks, s.newTrack(abs))
			added++
		}
		return added > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// RemoveTrack deletes the track at index.
func (s *PlaylistStore) RemoveTrack(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(c *models.Collection) (bool, error) {
		p := c.Find(id)
		if p == nil {
			return false, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		if index < 0 || index >= len(p.Tracks) {
			return false, fmt.Errorf("%w: index %d out of range [0,%d)", shared.ErrInvalidArgument, index, len(p.Tracks))
		}
		p.Tracks = append(p.Tracks[:index], p.Tracks[index+1:]...)
		return true, nil
	})
}

// MoveTrack pops the track at from and inserts it at to.
func (s *PlaylistStore) MoveTrack(id string, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(c *models.Collection) (bool, error) {
		p := c.Find(id)
		if p == nil {
			return false, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		n := len(p.Tracks)
		if from < 0 || from >= n || to < 0 || to >= n {
			return false, fmt.Errorf("%w: move %d->%d out of range [0,%d)", shared.ErrInvalidArgument, from, to, n)
		}
		if from == to {
			return false, nil
		}

		t := p.Tracks[from]
		p.Tracks = append(p.Tracks[:from], p.Tracks[from+1:]...)
		p.Tracks = append(p.Tracks[:to], append([]models.Track{t}, p.Tracks[to:]...)...)
		return true, nil
	})
}

// List returns copies of every playlist in order.
func (s *PlaylistStore) List() []models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Clone().Playlists
}

// Get returns a copy of the playlist with id.
func (s *PlaylistStore) Get(id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.coll.Find(id)
	if p == nil {
		return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return p.Clone(), nil
}

// Lookup resolves a reference that is a playlist id, a unique id prefix or a case-insensitive name.
func (s *PlaylistStore) Lookup(ref string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist reference", shared.ErrMissingArgument)
	}
	if p := s.coll.Find(ref); p != nil {
		return p.Clone(), nil
	}

	var matches []models.Playlist
	for _, p := range s.coll.Playlists {
		if strings.EqualFold(p.Name, ref) || strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, ref)
	case 1:
		return matches[0].Clone(), nil
	default:
		return models.Playlist{}, fmt.Errorf("%w: %q matches %d playlists", shared.ErrInvalidArgument, ref, len(matches))
	}
}

// Active returns a copy of the active playlist, if any.
func (s *PlaylistStore) Active() (models.Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.coll.Active()
	if !ok {
		return models.Playlist{}, false
	}
	return p.Clone(), true
}

// Snapshot returns a deep copy of the whole collection.
func (s *PlaylistStore) Snapshot() models.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Clone()
}

// mutate applies fn to a copy of the collection and commits it once persisted. Callers hold s.mu.
func (s *PlaylistStore) mutate(fn func(c *models.Collection) (bool, error)) error {
	next := s.coll.Clone()
	changed, err := fn(&next)
	if err != nil || !changed {
		return err
	}

	if err := s.write(next); err != nil {
		return err
	}
	s.coll = next
	return nil
}

func (s *PlaylistStore) read() (models.Collection, error) {
	data, err := s.readFile(s.path)
	if errors.Is(err, fs.ErrNotExist) && s.exportDir != "" {
		if exported, exportErr := s.readFile(s.exportPath()); exportErr == nil {
			s.logger.Info("restoring playlists from export copy", "path", s.exportPath())
			data, err = exported, nil
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return models.Collection{}, nil
	}
	if err != nil {
		return models.Collection{}, fmt.Errorf("%w: failed to read playlist document: %w", shared.ErrIOTransient, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Collection{}, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Collection{}, fmt.Errorf("%w: %v", shared.ErrCorruptDocument, err)
	}

	coll := models.Collection{Playlists: doc.Playlists}
	if doc.ActivePlaylistID != nil {
		coll.ActivePlaylistID = *doc.ActivePlaylistID
	}
	return coll, nil
}

func (s *PlaylistStore) write(coll models.Collection) error {
	doc := document{Playlists: make([]models.Playlist, len(coll.Playlists))}
	if coll.ActivePlaylistID != "" {
		id := coll.ActivePlaylistID
		doc.ActivePlaylistID = &id
	}
	for i, p := range coll.Playlists {
		p = p.Clone()
		for j := range p.Tracks {
			p.Tracks[j].Path = s.portable(p.Tracks[j].Path)
			p.Tracks[j].Thumbnail = s.portable(p.Tracks[j].Thumbnail)
		}
		doc.Playlists[i] = p
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode playlists: %w", err)
	}

	if err := writeFileAtomic(s.path, data, s.rename); err != nil {
		metrics.PlaylistSaves.WithLabelValues("error").Inc()
		s.logger.Error("failed to save playlists", "path", s.path, "error", err)
		return fmt.Errorf("%w: %v", shared.ErrIOTransient, err)
	}
	metrics.PlaylistSaves.WithLabelValues("ok").Inc()

	s.publish(data)
	return nil
}

// publish mirrors the document to the export directory. Failures are logged only.
func (s *PlaylistStore) publish(data []byte) {
	if s.exportDir == "" {
		return
	}
	if err := writeFileAtomic(s.exportPath(), data, os.Rename); err != nil {
		s.logger.Warn("failed to publish playlist export", "dir", s.exportDir, "error", err)
	}
}

func (s *PlaylistStore) exportPath() string {
	return filepath.Join(s.exportDir, filepath.Base(s.path))
}

// quarantine moves an unparsable document aside so it is not silently overwritten.
func (s *PlaylistStore) quarantine() {
	aside := s.path + ".corrupt"
	if err := os.Rename(s.path, aside); err != nil {
		s.logger.Warn("failed to move corrupt playlist document aside", "error", err)
		return
	}
	s.logger.Warn("moved corrupt playlist document aside", "path", aside)
}

// repair fills defaults, resolves relative paths and fixes stale track and thumbnail paths.
func (s *PlaylistStore) repair(c *models.Collection) {
	var index map[string]string

	for i := range c.Playlists {
		p := &c.Playlists[i]
		if p.ID == "" {
			p.ID = shared.GenerateID()
		}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = untitledPlaylist
		}

		tracks := make([]models.Track, 0, len(p.Tracks))
		for _, t := range p.Tracks {
			if strings.TrimSpace(t.Path) == "" {
				continue
			}

			t.Path = s.resolve(t.Path)
			if !shared.FileExists(t.Path) && s.root != "" {
				if index == nil {
					index = s.indexRoot()
				}
				if found, ok := index[strings.ToLower(filepath.Base(t.Path))]; ok {
					s.logger.Debug("repaired track path", "from", t.Path, "to", found)
					t.Path = found
				}
			}

			if t.Title == "" {
				t.Title = shared.Stem(t.Path)
			}
			if t.Duration < 0 {
				t.Duration = 0
			}

			if t.Thumbnail != "" {
				t.Thumbnail = s.resolve(t.Thumbnail)
			}
			if t.Thumbnail == "" || !shared.FileExists(t.Thumbnail) {
				t.Thumbnail = findThumbnail(t.Path)
			}

			tracks = append(tracks, t)
		}
		p.Tracks = tracks
	}

	if c.ActivePlaylistID != "" && c.Find(c.ActivePlaylistID) == nil {
		c.ActivePlaylistID = ""
		if len(c.Playlists) > 0 {
			c.ActivePlaylistID = c.Playlists[0].ID
		}
	}
}

// indexRoot maps lower-cased file names under the media root to their paths; the first match wins.
func (s *PlaylistStore) indexRoot() map[string]string {
	index := make(map[string]string)
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		key := strings.ToLower(d.Name())
		if _, ok := index[key]; !ok {
			index[key] = path
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to index media root", "root", s.root, "error", err)
	}
	return index
}

// resolve turns a stored path into an absolute one; relative paths are relative to the media root.
func (s *PlaylistStore) resolve(path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if s.root != "" {
		return filepath.Join(s.root, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// portable returns path relative to the media root when it lies inside it.
func (s *PlaylistStore) portable(path string) string {
	if path == "" || s.root == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

func (s *PlaylistStore) newTrack(path string) models.Track {
	t := models.Track{
		Title:     shared.Stem(path),
		Path:      path,
		Thumbnail: findThumbnail(path),
	}

	if s.probe != nil && shared.FileExists(path) {
		d, err := s.probe(path)
		if err != nil {
			s.logger.Debug("could not probe duration", "path", path, "error", err)
		} else {
			t.Duration = d
		}
	}
	return t
}

func newPlaylist(name string) models.Playlist {
	name = strings.TrimSpace(name)
	if name == "" {
		name = untitledPlaylist
	}
	return models.Playlist{ID: shared.GenerateID(), Name: name, Tracks: []models.Track{}}
}

// findThumbnail returns a same-stem image beside the track, or "".
func findThumbnail(trackPath string) string {
	base := strings.TrimSuffix(trackPath, filepath.Ext(trackPath))
	for _, ext := range ThumbnailExts {
		if candidate := base + ext; shared.FileExists(candidate) {
			return candidate
		}
	}
	return ""
}
