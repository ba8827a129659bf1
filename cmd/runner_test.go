package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytmp/internal/channel"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/playback"
	"github.com/desertthunder/ytmp/internal/remote"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/shared"
	tu "github.com/desertthunder/ytmp/internal/testing"
	"github.com/urfave/cli/v3"
)

// testConfig points every path at a temp dir.
func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Media.Root = filepath.Join(dir, "media")
	config.Database.Path = filepath.Join(dir, "ytmp.db")
	config.Playback.Output = "null"
	config.Log.Level = "error"
	return config
}

func newTestRunner(t *testing.T, config *shared.Config) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "ytmp", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"ytmp"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			store := repositories.NewPlaylistStore(repositories.PlaylistStoreOpts{Path: filepath.Join(t.TempDir(), "p.json")})

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("next"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nnext\n" {
				t.Errorf("expected %q, got %q", "\nnext\n", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "playlist", "remote", "downloads", "setup"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	config := testConfig(t)
	root := config.MediaRoot()
	first := tu.MustWriteFile(t, filepath.Join(root, "one.mp3"), "audio")
	second := tu.MustWriteFile(t, filepath.Join(root, "two.mp3"), "audio")
	third := tu.MustWriteFile(t, filepath.Join(root, "three.mp3"), "audio")

	r, output := newTestRunner(t, config)

	t.Run("list seeds the default playlist", func(t *testing.T) {
		output.Reset()
		if err := run(r, "playlist", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), repositories.DefaultPlaylistName) {
			t.Errorf("expected %q in output, got %q", repositories.DefaultPlaylistName, output.String())
		}
		tu.AssertFileExists(t, config.PlaylistPath())
	})

	t.Run("create and activate", func(t *testing.T) {
		if err := run(r, "playlist", "create", "--activate", "Road Trip"); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		active, ok := r.store.Active()
		if !ok || active.Name != "Road Trip" {
			t.Errorf("active = %+v, %v; want Road Trip", active, ok)
		}
	})

	t.Run("add skips duplicates and missing files", func(t *testing.T) {
		output.Reset()
		err := run(r, "playlist", "add", first, second, first, filepath.Join(root, "missing.mp3"), third)
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		active, _ := r.store.Active()
		if got := active.Names(); len(got) != 3 || got[0] != "one.mp3" || got[2] != "three.mp3" {
			t.Errorf("tracks = %v", got)
		}
		if !strings.Contains(output.String(), "Added 3 of 5") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("move and remove use 1-based positions", func(t *testing.T) {
		if err := run(r, "playlist", "move", "--from", "3", "--to", "1"); err != nil {
			t.Fatalf("move failed: %v", err)
		}
		if err := run(r, "playlist", "remove", "--index", "2"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		active, _ := r.store.Active()
		if got := active.Names(); len(got) != 2 || got[0] != "three.mp3" || got[1] != "two.mp3" {
			t.Errorf("tracks = %v", got)
		}

		err := run(r, "playlist", "remove", "--index", "9")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("show renders in an export format", func(t *testing.T) {
		output.Reset()
		if err := run(r, "playlist", "show", "--format", "csv", "road trip"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "Position,Title,File,Duration,Path") {
			t.Errorf("expected CSV header, got %q", output.String())
		}
	})

	t.Run("rename", func(t *testing.T) {
		if err := run(r, "playlist", "rename", "Road Trip", "Commute"); err != nil {
			t.Fatalf("rename failed: %v", err)
		}
		if _, err := r.store.Lookup("commute"); err != nil {
			t.Errorf("renamed playlist not found: %v", err)
		}
	})

	t.Run("export writes files", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "commute.json")
		if err := run(r, "playlist", "export", "--output", dest, "Commute"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if content := tu.MustReadFile(t, dest); !strings.Contains(content, `"name": "Commute"`) {
			t.Errorf("unexpected export %s", content)
		}

		err := run(r, "playlist", "export", "--format", "xml", "Commute")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("deactivate then commands need a reference", func(t *testing.T) {
		if err := run(r, "playlist", "deactivate"); err != nil {
			t.Fatalf("deactivate failed: %v", err)
		}
		if _, ok := r.store.Active(); ok {
			t.Error("expected no active playlist")
		}

		err := run(r, "playlist", "show")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := run(r, "playlist", "delete", "Commute"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		err := run(r, "playlist", "activate", "Commute")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("changes are persisted", func(t *testing.T) {
		fresh, _ := newTestRunner(t, config)
		store, err := fresh.playlists()
		if err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		if names := len(store.List()); names != 1 {
			t.Errorf("expected 1 playlist on disk, got %d", names)
		}
	})
}

// commandSink receives what the remote commands send.
func commandSink(t *testing.T) (net.PacketConn, func() channel.Message) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	next := func() channel.Message {
		t.Helper()
		buf := make([]byte, 64*1024)
		pc.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("no command received: %v", err)
		}
		msg, err := channel.Decode(buf[:n])
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		return msg
	}
	return pc, next
}

func TestRemoteCommands(t *testing.T) {
	config := testConfig(t)
	sink, next := commandSink(t)

	client, err := remote.NewClient(remote.ClientOpts{CommandAddr: sink.LocalAddr().String(), EventAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
		Client: client,
	})

	t.Run("simple commands", func(t *testing.T) {
		for _, name := range []string{"play", "pause", "stop"} {
			if err := run(r, "remote", name); err != nil {
				t.Fatalf("%s failed: %v", name, err)
			}
			if msg := next(); string(msg.Kind) != name {
				t.Errorf("sent %s, want %s", msg.Kind, name)
			}
		}
	})

	t.Run("load with resume position", func(t *testing.T) {
		if err := run(r, "remote", "load", "--at", "42", "song.mp3"); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		var p channel.LoadPayload
		if err := next().Into(&p); err != nil {
			t.Fatalf("Into failed: %v", err)
		}
		if p.Path != "song.mp3" || p.Position == nil || *p.Position != 42 {
			t.Errorf("payload = %+v", p)
		}
	})

	t.Run("navigation carries playlist mode", func(t *testing.T) {
		if err := run(r, "remote", "next", "--playlist=false"); err != nil {
			t.Fatalf("next failed: %v", err)
		}

		msg := next()
		var p channel.NavPayload
		if err := msg.Into(&p); err != nil {
			t.Fatalf("Into failed: %v", err)
		}
		if msg.Kind != channel.KindNext || p.Playlist {
			t.Errorf("got %s %+v", msg.Kind, p)
		}
	})

	t.Run("seek", func(t *testing.T) {
		if err := run(r, "remote", "seek", "12.5"); err != nil {
			t.Fatalf("seek failed: %v", err)
		}
		var p channel.SeekPayload
		if err := next().Into(&p); err != nil || p.Seconds != 12.5 {
			t.Errorf("payload = %+v, %v", p, err)
		}

		err := run(r, "remote", "seek", "soon")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("toggles", func(t *testing.T) {
		tests := []struct {
			name string
			arg  string
			want bool
		}{
			{"loop", "on", true},
			{"shuffle", "False", false},
		}

		for _, tt := range tests {
			if err := run(r, "remote", tt.name, tt.arg); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			var p channel.TogglePayload
			if err := next().Into(&p); err != nil || p.Enabled != tt.want {
				t.Errorf("%s %s = %+v, %v", tt.name, tt.arg, p, err)
			}
		}
	})

	t.Run("queue sends the active playlist paths", func(t *testing.T) {
		track := tu.MustWriteFile(t, filepath.Join(config.MediaRoot(), "a.mp3"), "audio")
		store, err := r.playlists()
		if err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		active, _ := store.Active()
		if _, err := store.AddTracks(active.ID, []string{track}); err != nil {
			t.Fatalf("AddTracks failed: %v", err)
		}

		if err := run(r, "remote", "queue"); err != nil {
			t.Fatalf("queue failed: %v", err)
		}
		var p channel.PlaylistPayload
		if err := next().Into(&p); err != nil {
			t.Fatalf("Into failed: %v", err)
		}
		if len(p.Tracks) != 1 || p.Tracks[0] != track {
			t.Errorf("tracks = %v", p.Tracks)
		}
	})

	t.Run("download", func(t *testing.T) {
		if err := run(r, "remote", "download", "--title", "Song", "abc123"); err != nil {
			t.Fatalf("download failed: %v", err)
		}
		var p channel.DownloadPayload
		if err := next().Into(&p); err != nil {
			t.Fatalf("Into failed: %v", err)
		}
		if p.RemoteID != "abc123" || p.Title != "Song" {
			t.Errorf("payload = %+v", p)
		}

		err := run(r, "remote", "download")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("status without a service is idle", func(t *testing.T) {
		output.Reset()
		if err := run(r, "remote", "status", "--timeout", "100ms"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if msg := next(); msg.Kind != channel.KindAwake {
			t.Errorf("sent %s, want %s", msg.Kind, channel.KindAwake)
		}
		if !strings.Contains(output.String(), "idle") {
			t.Errorf("expected idle, got %q", output.String())
		}
	})
}

func TestDescribe(t *testing.T) {
	encode := func(kind channel.Kind, payload any) channel.Message {
		data, err := channel.Encode(kind, payload)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		msg, err := channel.Decode(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		return msg
	}

	tests := []struct {
		name string
		msg  channel.Message
		want string
	}{
		{"position", encode(channel.KindSongPosition, channel.ValuePayload{Value: 75}), "1:15"},
		{"not found", encode(channel.KindSongNotFound, channel.TextPayload{Text: "gone.mp3"}), "gone.mp3"},
		{"downloaded", encode(channel.KindFileDownloaded, channel.DownloadedPayload{OK: true, Path: "/x/a.mp3"}), "/x/a.mp3"},
		{"download failed", encode(channel.KindFileDownloaded, channel.DownloadedPayload{Reason: "failed"}), "failed"},
		{"reset", encode(channel.KindResetGUI, nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.msg); !strings.Contains(got, tt.want) {
				t.Errorf("describe = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestDownloadsCommands(t *testing.T) {
	config := testConfig(t)
	r, output := newTestRunner(t, config)

	t.Run("empty ledger", func(t *testing.T) {
		if err := run(r, "downloads", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "No downloads recorded") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	repo, db, err := r.ledger()
	if err != nil {
		t.Fatalf("ledger failed: %v", err)
	}
	for _, d := range []*models.Download{
		{RemoteID: "ok1", Title: "Done", Path: "/m/Done.mp3", Status: models.DownloadCompleted},
		{RemoteID: "bad1", Title: "Broken", Status: models.DownloadFailed, Reason: "format_unavailable"},
	} {
		if err := repo.Record(d); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	db.Close()

	t.Run("filtered by status", func(t *testing.T) {
		output.Reset()
		if err := run(r, "downloads", "list", "--status", "failed"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if got := output.String(); !strings.Contains(got, "bad1") || strings.Contains(got, "ok1") {
			t.Errorf("unexpected output %q", got)
		}

		err := run(r, "downloads", "list", "--status", "lost")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("forget", func(t *testing.T) {
		if err := run(r, "downloads", "forget", "ok1"); err != nil {
			t.Fatalf("forget failed: %v", err)
		}
		err := run(r, "downloads", "forget", "ok1")
		if !errors.Is(err, repositories.ErrDownloadNotFound) {
			t.Errorf("expected ErrDownloadNotFound, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	r, output := newTestRunner(t, testConfig(t))

	t.Run("config writes the example", func(t *testing.T) {
		if err := run(r, "setup", "config", "--config", configPath); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		if _, err := shared.LoadConfig(configPath); err != nil {
			t.Errorf("written config does not load: %v", err)
		}

		if err := run(r, "setup", "config", "--config", configPath); err == nil {
			t.Error("expected an error when the file exists")
		}
		if err := run(r, "setup", "config", "--force", "--config", configPath); err != nil {
			t.Errorf("forced overwrite failed: %v", err)
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		content := tu.MustReadFile(t, configPath)
		dbPath := filepath.Join(dir, "ledger.db")
		content = strings.Replace(content, `path = "~/.ytmp/ytmp.db"`, `path = "`+filepath.ToSlash(dbPath)+`"`, 1)
		tu.MustWriteFile(t, configPath, content)

		output.Reset()
		if err := run(r, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "schema version 1") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("database rollback undoes the latest migration", func(t *testing.T) {
		output.Reset()
		if err := run(r, "setup", "database", "--rollback", "--config", configPath); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back") || !strings.Contains(output.String(), "schema version 0") {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := run(r, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if !strings.Contains(output.String(), "schema version 1") {
			t.Errorf("migration was not reapplied: %q", output.String())
		}
	})
}

// freePort reserves and releases a loopback UDP port.
func freePort(t *testing.T) int {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	defer pc.Close()
	return pc.LocalAddr().(*net.UDPAddr).Port
}

func TestServe(t *testing.T) {
	config := testConfig(t)
	config.Channel.CommandPort = freePort(t)
	config.Channel.EventPort = freePort(t)
	config.Playback.TickMillis = 20
	track := tu.MustWriteFile(t, filepath.Join(config.MediaRoot(), "song.mp3"), "audio")

	r, _ := newTestRunner(t, config)
	client, err := remote.NewClient(remote.ClientOpts{
		CommandAddr:  config.CommandAddr(),
		EventAddr:    config.EventAddr(),
		PollInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()
	if _, err := client.Bind(); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.serve(ctx) }()

	// The listener may not be bound yet, so keep sending until the service answers.
	tu.Eventually(t, 3*time.Second, func() bool {
		if err := client.Send(channel.KindLoad, channel.LoadPayload{Path: track}); err != nil {
			return false
		}
		status, err := client.Handshake(ctx, 200*time.Millisecond)
		return err == nil && status == playback.Playing
	}, "service reports playing after load")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
