package models

import (
	"reflect"
	"testing"
)

func TestCollection(t *testing.T) {
	coll := Collection{
		Playlists: []Playlist{
			{ID: "a", Name: "Favorites", Tracks: []Track{{Title: "one", Path: "/m/one.mp3", Duration: 60}}},
			{ID: "b", Name: "Road", Tracks: []Track{{Title: "two", Path: "/m/two.mp3", Duration: 90.5}}},
		},
		ActivePlaylistID: "b",
	}

	t.Run("Find and Index", func(t *testing.T) {
		if coll.Index("b") != 1 {
			t.Errorf("expected index 1, got %d", coll.Index("b"))
		}
		if coll.Find("missing") != nil {
			t.Error("expected nil for unknown id")
		}
	})

	t.Run("Active", func(t *testing.T) {
		p, ok := coll.Active()
		if !ok || p.Name != "Road" {
			t.Errorf("expected Road to be active, got %+v", p)
		}

		empty := Collection{}
		if _, ok := empty.Active(); ok {
			t.Error("expected no active playlist")
		}
	})

	t.Run("Clone is deep", func(t *testing.T) {
		clone := coll.Clone()
		if !reflect.DeepEqual(clone, coll) {
			t.Fatal("clone should equal original")
		}

		clone.Playlists[0].Tracks[0].Title = "changed"
		clone.Playlists[0].Name = "changed"
		if coll.Playlists[0].Tracks[0].Title != "one" || coll.Playlists[0].Name != "Favorites" {
			t.Error("mutating the clone changed the original")
		}
	})

	t.Run("Names, Paths and Duration", func(t *testing.T) {
		p := coll.Playlists[0]
		p.Tracks = append(p.Tracks, Track{Path: "/m/sub/three.flac", Duration: 30})
		if got := p.Names(); !reflect.DeepEqual(got, []string{"one.mp3", "three.flac"}) {
			t.Errorf("Names() = %v", got)
		}
		if got := p.Paths(); !reflect.DeepEqual(got, []string{"/m/one.mp3", "/m/sub/three.flac"}) {
			t.Errorf("Paths() = %v", got)
		}
		if p.Duration() != 90 {
			t.Errorf("Duration() = %v", p.Duration())
		}
	})
}
