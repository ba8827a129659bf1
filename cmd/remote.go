package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/desertthunder/ytmp/internal/channel"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// send delivers one command to the service.
func (r *Runner) send(kind channel.Kind, payload any) error {
	client, err := r.remote()
	if err != nil {
		return err
	}
	if err := client.Send(kind, payload); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.writePlain("%s sent %s\n", styles.ok.Render("→"), kind)
}

// RemoteLoad opens a track, paused at --at when given.
func (r *Runner) RemoteLoad(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	payload := channel.LoadPayload{Path: path}
	if at := cmd.Float("at"); at >= 0 {
		payload.Position = &at
	}
	return r.send(channel.KindLoad, payload)
}

// RemoteSimple sends a payload-free command named after the subcommand.
func (r *Runner) RemoteSimple(ctx context.Context, cmd *cli.Command) error {
	return r.send(channel.Kind(cmd.Name), nil)
}

// RemoteNav sends next or previous with the playlist-mode flag.
func (r *Runner) RemoteNav(ctx context.Context, cmd *cli.Command) error {
	return r.send(channel.Kind(cmd.Name), channel.NavPayload{Playlist: cmd.Bool("playlist")})
}

// RemoteSeek moves to an absolute position.
func (r *Runner) RemoteSeek(ctx context.Context, cmd *cli.Command) error {
	seconds, err := channel.ParseNumber(cmd.StringArg("seconds"))
	if err != nil {
		return fmt.Errorf("%w: seconds: %v", shared.ErrInvalidArgument, err)
	}
	return r.send(channel.KindSeek, channel.SeekPayload{Seconds: seconds})
}

// RemoteToggle switches loop or shuffle.
func (r *Runner) RemoteToggle(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("enabled")
	switch strings.ToLower(arg) {
	case "on", "yes", "1":
		arg = "true"
	case "off", "no", "0":
		arg = "false"
	}

	enabled, err := channel.ParseBool(arg)
	if err != nil {
		return fmt.Errorf("%w: %s expects on or off", shared.ErrInvalidArgument, cmd.Name)
	}
	return r.send(channel.Kind(cmd.Name), channel.TogglePayload{Enabled: enabled})
}

// RemoteQueue replaces the service playlist with a stored playlist, the active one by default.
func (r *Runner) RemoteQueue(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlistRef(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	if err := r.send(channel.KindPlaylist, channel.PlaylistPayload{Tracks: p.Paths()}); err != nil {
		return err
	}
	return r.writePlain("Queued %q (%d tracks)\n", p.Name, len(p.Tracks))
}

// RemoteDownload asks the service to fetch a track.
func (r *Runner) RemoteDownload(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: remote id", shared.ErrMissingArgument)
	}

	return r.send(channel.KindDownload, channel.DownloadPayload{
		RemoteID:   id,
		Title:      cmd.String("title"),
		ArtworkURL: cmd.String("artwork"),
		Root:       cmd.String("root"),
	})
}

// RemoteStatus performs the resume handshake and prints the answer.
func (r *Runner) RemoteStatus(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote()
	if err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = r.config.Playback.ResumeTimeout()
	}

	status, err := client.Handshake(ctx, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.writePlain("%s\n", statusStyle(status.String()).Render(status.String()))
}

// RemoteWatch prints events until interrupted.
func (r *Runner) RemoteWatch(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remote()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw := cmd.Bool("json")
	return client.Watch(ctx, func(msg channel.Message) error {
		if raw {
			return r.writeJSON(msg, false)
		}
		return r.writePlain("%s %s\n", styles.title.Render(string(msg.Kind)), describe(msg))
	})
}

// describe renders an event payload for humans.
func describe(msg channel.Message) string {
	switch msg.Kind {
	case channel.KindSetSlider, channel.KindSongPosition:
		var p channel.ValuePayload
		if err := msg.Into(&p); err == nil {
			return shared.FormatDuration(p.Value)
		}
	case channel.KindFileDownloaded:
		var p channel.DownloadedPayload
		if err := msg.Into(&p); err == nil {
			if p.OK {
				return styles.ok.Render(p.Path)
			}
			return styles.err.Render(p.Reason)
		}
	case channel.KindResetGUI, channel.KindNormalize:
		return ""
	default:
		var p channel.TextPayload
		if err := msg.Into(&p); err == nil {
			return p.Text
		}
	}
	return styles.help.Render(string(msg.Payload))
}
