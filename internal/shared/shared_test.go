package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizePathKey(t *testing.T) {
	dir := t.TempDir()

	tc := []struct {
		name string
		a, b string
		same bool
	}{
		{name: "identical", a: filepath.Join(dir, "a.mp3"), b: filepath.Join(dir, "a.mp3"), same: true},
		{name: "case folded", a: filepath.Join(dir, "Song.MP3"), b: filepath.Join(dir, "song.mp3"), same: true},
		{name: "dot segments", a: filepath.Join(dir, "x", "..", "a.mp3"), b: filepath.Join(dir, "a.mp3"), same: true},
		{name: "different files", a: filepath.Join(dir, "a.mp3"), b: filepath.Join(dir, "b.mp3"), same: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePathKey(tt.a) == NormalizePathKey(tt.b)
			if got != tt.same {
				t.Errorf("NormalizePathKey(%q) == NormalizePathKey(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}

	t.Run("relative paths resolve against cwd", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("failed to get working directory: %v", err)
		}
		if NormalizePathKey("a.mp3") != NormalizePathKey(filepath.Join(wd, "a.mp3")) {
			t.Error("expected relative and absolute forms to share a key")
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if got := NormalizePathKey(""); got != "" {
			t.Errorf("expected empty key, got %q", got)
		}
	})
}

func TestSafeFilename(t *testing.T) {
	tc := []struct {
		in, want string
	}{
		{in: "Song Title", want: "Song Title"},
		{in: "AC/DC: Back In Black?", want: "AC_DC_ Back In Black_"},
		{in: "  ..  ", want: "untitled"},
		{in: "tab\there", want: "tabhere"},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeFilename(tt.in); got != tt.want {
				t.Errorf("SafeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{185, "3:05"},
		{3725, "1:02:05"},
		{-3, "0:00"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/music/Artist - Song.flac"); got != "Artist - Song" {
		t.Errorf("Stem() = %q", got)
	}
	if got := Stem("noext"); got != "noext" {
		t.Errorf("Stem() = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/.ytmp"); got != filepath.Join(home, ".ytmp") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path should be unchanged, got %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := ParseLogLevel("DEBUG"); got != log.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}
	if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
		t.Errorf("expected info fallback, got %v", got)
	}
}
