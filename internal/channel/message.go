package channel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/ytmp/internal/shared"
)

// Kind names a message on the channel. The names match the ones the UI already speaks.
type Kind string

// Commands, UI to service
const (
	KindLoad         Kind = "load"
	KindPlay         Kind = "play"
	KindPause        Kind = "pause"
	KindStop         Kind = "stop"
	KindNext         Kind = "next"
	KindPrevious     Kind = "previous"
	KindSeek         Kind = "seek_seconds"
	KindPlaylist     Kind = "playlist"
	KindLoop         Kind = "loop"
	KindShuffle      Kind = "shuffle"
	KindDownload     Kind = "downloadyt"
	KindAwake        Kind = "iamawake"
	KindPaused       Kind = "iampaused"
	KindUpdateSlider Kind = "get_update_slider"
	KindClearService Kind = "update_load_fs"
	KindAreWe        Kind = "are_we" // query when sent to the service, reply when sent to the UI
)

// Events, service to UI
const (
	KindSetSlider      Kind = "set_slider"
	KindSongPosition   Kind = "song_pos"
	KindUpdateImage    Kind = "update_image"
	KindFileDownloaded Kind = "file_is_downloaded"
	KindSongNotFound   Kind = "song_not_found"
	KindResetGUI       Kind = "reset_gui"
	KindDataInfo       Kind = "data_info"
	KindControls       Kind = "controls"
	KindNormalize      Kind = "normalize"
)

// Message is the envelope carried by every datagram.
type Message struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LoadPayload asks the service to open a track, optionally paused at Position seconds.
type LoadPayload struct {
	Path     string   `json:"path"`
	Position *float64 `json:"position,omitempty"`
}

// NavPayload carries the playlist-mode flag of next and previous.
type NavPayload struct {
	Playlist bool `json:"playlist"`
}

type SeekPayload struct {
	Seconds float64 `json:"seconds"`
}

// PlaylistPayload replaces the service's playlist snapshot.
type PlaylistPayload struct {
	Tracks []string `json:"tracks"`
}

// TogglePayload carries loop and shuffle switches.
type TogglePayload struct {
	Enabled bool `json:"enabled"`
}

type DownloadPayload struct {
	RemoteID   string `json:"remote_id"`
	Title      string `json:"title"`
	ArtworkURL string `json:"artwork_url"`
	Root       string `json:"root"`
}

// ValuePayload carries a number of seconds (set_slider, song_pos).
type ValuePayload struct {
	Value float64 `json:"value"`
}

// TextPayload carries a string (update_image, song_not_found, are_we, data_info, controls).
type TextPayload struct {
	Text string `json:"text"`
}

type DownloadedPayload struct {
	OK     bool   `json:"ok"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Encode builds one datagram. A nil payload is omitted.
func Encode(kind Kind, payload any) ([]byte, error) {
	msg := Message{Kind: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", kind, err)
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}

// Decode parses one datagram. Anything that is not an envelope with a kind wraps
// [shared.ErrProtocolMalformed].
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(bytes.TrimSpace(data), &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", shared.ErrProtocolMalformed, err)
	}
	if msg.Kind == "" {
		return Message{}, fmt.Errorf("%w: missing kind", shared.ErrProtocolMalformed)
	}
	return msg, nil
}

// Into decodes the payload into v, wrapping failures in [shared.ErrProtocolMalformed].
// An absent payload leaves v untouched.
func (m Message) Into(v any) error {
	if m.empty() {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", shared.ErrProtocolMalformed, m.Kind, err)
	}
	return nil
}

func (m Message) empty() bool {
	raw := bytes.TrimSpace(m.Payload)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// ParseBool accepts "True" and "False" in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: not a boolean: %q", shared.ErrProtocolMalformed, s)
	}
}

// ParseNumber accepts a finite decimal number.
func ParseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: not a number: %q", shared.ErrProtocolMalformed, s)
	}
	return f, nil
}

// ParseList splits a list sent as one string, such as "['a.mp3', 'b.mp3']".
// JSON arrays are decoded as is. Quoted items are split only on their quoted separators, so
// commas inside a name survive; unquoted input is split on commas. Empty items are dropped.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var items []string
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			return compact(items)
		}
	}

	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
	if s == "" {
		return []string{}
	}

	var parts []string
	switch {
	case strings.Contains(s, "', '"):
		parts = strings.Split(s, "', '")
	case strings.Contains(s, `", "`):
		parts = strings.Split(s, `", "`)
	case strings.HasPrefix(s, "'") || strings.HasPrefix(s, `"`):
		parts = []string{s}
	default:
		parts = strings.Split(s, ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(strings.TrimSpace(p), `'"`))
	}
	return compact(out)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// legacyString returns the contents of raw when it is a bare JSON string.
func legacyString(raw []byte) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// flag is a boolean that also accepts its legacy string form.
type flag bool

func (f *flag) UnmarshalJSON(raw []byte) error {
	if s, ok := legacyString(raw); ok {
		b, err := ParseBool(s)
		if err != nil {
			return err
		}
		*f = flag(b)
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return err
	}
	*f = flag(b)
	return nil
}

// number is a float that also accepts its legacy string form.
type number float64

func (n *number) UnmarshalJSON(raw []byte) error {
	if s, ok := legacyString(raw); ok {
		f, err := ParseNumber(s)
		if err != nil {
			return err
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// list is a string slice that also accepts its legacy single-string form.
type list []string

func (l *list) UnmarshalJSON(raw []byte) error {
	if s, ok := legacyString(raw); ok {
		*l = ParseList(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func (p *LoadPayload) UnmarshalJSON(raw []byte) error {
	if s, ok := legacyString(raw); ok {
		*p = LoadPayload{Path: s}
		return nil
	}
	var wire struct {
		Path     string  `json:"path"`
		Position *number `json:"position"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	*p = LoadPayload{Path: wire.Path}
	if wire.Position != nil {
		pos := float64(*wire.Position)
		p.Position = &pos
	}
	return nil
}

// UnmarshalJSON keeps the current value when the flag is absent.
func (p *NavPayload) UnmarshalJSON(raw []byte) error {
	if !isObject(raw) {
		var f flag
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		p.Playlist = bool(f)
		return nil
	}
	var wire struct {
		Playlist *flag `json:"playlist"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	if wire.Playlist != nil {
		p.Playlist = bool(*wire.Playlist)
	}
	return nil
}

func (p *SeekPayload) UnmarshalJSON(raw []byte) error {
	var wire struct {
		Seconds number `json:"seconds"`
	}
	if isObject(raw) {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
	} else if err := json.Unmarshal(raw, &wire.Seconds); err != nil {
		return err
	}
	p.Seconds = float64(wire.Seconds)
	return nil
}

func (p *PlaylistPayload) UnmarshalJSON(raw []byte) error {
	var wire struct {
		Tracks list `json:"tracks"`
	}
	if isObject(raw) {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
	} else if err := json.Unmarshal(raw, &wire.Tracks); err != nil {
		return err
	}
	p.Tracks = wire.Tracks
	if p.Tracks == nil {
		p.Tracks = []string{}
	}
	return nil
}

func (p *TogglePayload) UnmarshalJSON(raw []byte) error {
	var wire struct {
		Enabled flag `json:"enabled"`
	}
	if isObject(raw) {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
	} else if err := json.Unmarshal(raw, &wire.Enabled); err != nil {
		return err
	}
	p.Enabled = bool(wire.Enabled)
	return nil
}

// UnmarshalJSON also accepts the legacy four-item list: remote id, title, artwork url, root.
func (p *DownloadPayload) UnmarshalJSON(raw []byte) error {
	if s, ok := legacyString(raw); ok {
		items := ParseList(s)
		if len(items) != 4 {
			return fmt.Errorf("%w: download wants 4 fields, got %d", shared.ErrProtocolMalformed, len(items))
		}
		*p = DownloadPayload{RemoteID: items[0], Title: items[1], ArtworkURL: items[2], Root: items[3]}
		return nil
	}
	type alias DownloadPayload
	var wire alias
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	*p = DownloadPayload(wire)
	return nil
}
