package channel

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/ytmp/internal/shared"
)

func TestDecode(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		msg, err := Decode([]byte(` {"kind":"seek_seconds","payload":{"seconds":12.5}} `))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if msg.Kind != KindSeek {
			t.Errorf("kind = %q", msg.Kind)
		}
	})

	for name, input := range map[string]string{
		"not json":     "/play",
		"missing kind": `{"payload":"True"}`,
		"empty":        "",
		"array":        `["play"]`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(input)); !errors.Is(err, shared.ErrProtocolMalformed) {
				t.Errorf("expected ErrProtocolMalformed, got %v", err)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Run("with payload", func(t *testing.T) {
		data, err := Encode(KindSongPosition, ValuePayload{Value: 3})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if got := string(data); got != `{"kind":"song_pos","payload":{"value":3}}` {
			t.Errorf("Encode = %s", got)
		}
	})

	t.Run("without payload", func(t *testing.T) {
		data, err := Encode(KindResetGUI, nil)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if got := string(data); got != `{"kind":"reset_gui"}` {
			t.Errorf("Encode = %s", got)
		}
	})
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"True", true, false},
		{"true", true, false},
		{"TRUE", true, false},
		{" False ", false, false},
		{"fAlSe", false, false},
		{"yes", false, true},
		{"1", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		got, err := ParseBool(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBool(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBool(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"42", 42, false},
		{" 12.5", 12.5, false},
		{"-1", -1, false},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseNumber(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"python repr", "['a.mp3', 'b.mp3', 'c.mp3']", []string{"a.mp3", "b.mp3", "c.mp3"}},
		{"double quoted", `["a.mp3", "b, live.mp3"]`, []string{"a.mp3", "b, live.mp3"}},
		{"commas inside single quotes", "['Song, One.mp3', 'Two.mp3']", []string{"Song, One.mp3", "Two.mp3"}},
		{"bare commas", "a.mp3, b.mp3", []string{"a.mp3", "b.mp3"}},
		{"single item", "['only.mp3']", []string{"only.mp3"}},
		{"single json item with comma", `["Artist, Song.mp3"]`, []string{"Artist, Song.mp3"}},
		{"single quoted item with comma", "['Artist, Song.mp3']", []string{"Artist, Song.mp3"}},
		{"json brackets in name", `["Song [Live].mp3", "b.mp3"]`, []string{"Song [Live].mp3", "b.mp3"}},
		{"empty brackets", "[]", []string{}},
		{"blank", "  ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseList(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("ParseList(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPayloads(t *testing.T) {
	decode := func(t *testing.T, payload string, v any) error {
		t.Helper()
		return Message{Kind: "test", Payload: []byte(payload)}.Into(v)
	}

	t.Run("load", func(t *testing.T) {
		var p LoadPayload
		if err := decode(t, `{"path":"/music/a.mp3","position":"12.5"}`, &p); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if p.Path != "/music/a.mp3" || p.Position == nil || *p.Position != 12.5 {
			t.Errorf("payload = %+v", p)
		}

		var legacy LoadPayload
		if err := decode(t, `"/music/b.mp3"`, &legacy); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if legacy.Path != "/music/b.mp3" || legacy.Position != nil {
			t.Errorf("legacy payload = %+v", legacy)
		}
	})

	t.Run("nav", func(t *testing.T) {
		tests := []struct {
			payload string
			want    bool
		}{
			{"", true},
			{`{}`, true},
			{`{"playlist":false}`, false},
			{`{"playlist":"False"}`, false},
			{`"false"`, false},
			{`true`, true},
		}
		for _, tt := range tests {
			p := NavPayload{Playlist: true}
			if err := decode(t, tt.payload, &p); err != nil {
				t.Errorf("decode(%q) failed: %v", tt.payload, err)
				continue
			}
			if p.Playlist != tt.want {
				t.Errorf("decode(%q) playlist = %v, want %v", tt.payload, p.Playlist, tt.want)
			}
		}
	})

	t.Run("seek", func(t *testing.T) {
		for _, payload := range []string{`{"seconds":30}`, `{"seconds":"30"}`, `30`, `"30.0"`} {
			var p SeekPayload
			if err := decode(t, payload, &p); err != nil {
				t.Errorf("decode(%s) failed: %v", payload, err)
				continue
			}
			if p.Seconds != 30 {
				t.Errorf("decode(%s) = %v, want 30", payload, p.Seconds)
			}
		}

		var p SeekPayload
		if err := decode(t, `"soon"`, &p); !errors.Is(err, shared.ErrProtocolMalformed) {
			t.Errorf("expected ErrProtocolMalformed, got %v", err)
		}
	})

	t.Run("playlist", func(t *testing.T) {
		want := []string{"a.mp3", "b.mp3"}
		for _, payload := range []string{
			`{"tracks":["a.mp3","b.mp3"]}`,
			`["a.mp3","b.mp3"]`,
			`"['a.mp3', 'b.mp3']"`,
			`{"tracks":"['a.mp3', 'b.mp3']"}`,
		} {
			var p PlaylistPayload
			if err := decode(t, payload, &p); err != nil {
				t.Errorf("decode(%s) failed: %v", payload, err)
				continue
			}
			if !slices.Equal(p.Tracks, want) {
				t.Errorf("decode(%s) = %q", payload, p.Tracks)
			}
		}

		var empty PlaylistPayload
		if err := decode(t, `{"tracks":null}`, &empty); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if empty.Tracks == nil || len(empty.Tracks) != 0 {
			t.Errorf("expected an empty, non-nil list, got %#v", empty.Tracks)
		}

		for _, payload := range []string{
			`"[\"Artist, Song.mp3\"]"`,
			`"['Artist, Song.mp3']"`,
			`{"tracks":"['Artist, Song.mp3']"}`,
		} {
			var p PlaylistPayload
			if err := decode(t, payload, &p); err != nil {
				t.Errorf("decode(%s) failed: %v", payload, err)
				continue
			}
			if !slices.Equal(p.Tracks, []string{"Artist, Song.mp3"}) {
				t.Errorf("decode(%s) = %q, want one track", payload, p.Tracks)
			}
		}
	})

	t.Run("toggle", func(t *testing.T) {
		tests := []struct {
			payload string
			want    bool
		}{
			{`{"enabled":true}`, true},
			{`{"enabled":"False"}`, false},
			{`"True"`, true},
			{`"tRuE"`, true},
			{`false`, false},
		}
		for _, tt := range tests {
			var p TogglePayload
			if err := decode(t, tt.payload, &p); err != nil {
				t.Errorf("decode(%s) failed: %v", tt.payload, err)
				continue
			}
			if p.Enabled != tt.want {
				t.Errorf("decode(%s) = %v, want %v", tt.payload, p.Enabled, tt.want)
			}
		}

		var p TogglePayload
		if err := decode(t, `"maybe"`, &p); !errors.Is(err, shared.ErrProtocolMalformed) {
			t.Errorf("expected ErrProtocolMalformed, got %v", err)
		}
	})

	t.Run("download", func(t *testing.T) {
		want := DownloadPayload{RemoteID: "abc123", Title: "A Song", ArtworkURL: "https://img.example/a.jpg", Root: "/music"}

		var p DownloadPayload
		if err := decode(t, `{"remote_id":"abc123","title":"A Song","artwork_url":"https://img.example/a.jpg","root":"/music"}`, &p); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if p != want {
			t.Errorf("payload = %+v", p)
		}

		var legacy DownloadPayload
		if err := decode(t, `"['abc123', 'A Song', 'https://img.example/a.jpg', '/music']"`, &legacy); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if legacy != want {
			t.Errorf("legacy payload = %+v", legacy)
		}

		var short DownloadPayload
		if err := decode(t, `"['abc123', 'A Song']"`, &short); !errors.Is(err, shared.ErrProtocolMalformed) {
			t.Errorf("expected ErrProtocolMalformed, got %v", err)
		}
	})
}
