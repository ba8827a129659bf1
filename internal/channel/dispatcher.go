package channel

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/playback"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/desertthunder/ytmp/internal/tasks"
)

var ErrUnknownKind = fmt.Errorf("unknown message kind")

// Player is the part of [playback.Engine] driven by commands.
type Player interface {
	Load(path string, resumeAt *float64) error
	Play() error
	Pause() error
	Stop() error
	Seek(seconds float64) error
	Next(playlistMode bool) error
	Previous(playlistMode bool) error
	SetLoop(loop bool)
	SetShuffle(shuffle bool)
	SetPlaylist(entries []string)
	Awake() playback.Status
	Detach()
	ReportPosition()
	ClearServiceFlag()
}

// Downloader starts a download in the background.
type Downloader interface {
	Start(ctx context.Context, req tasks.DownloadRequest)
}

// Dispatcher maps command messages onto the player and the downloader.
type Dispatcher struct {
	player     Player
	downloader Downloader
	logger     *log.Logger
}

func NewDispatcher(player Player, downloader Downloader, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Dispatcher{player: player, downloader: downloader, logger: logger}
}

// Dispatch runs one command. Payload problems wrap [shared.ErrProtocolMalformed] and unknown
// kinds wrap [ErrUnknownKind]; anything else comes from the handler itself.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.logger.Debug("command", "kind", msg.Kind)

	switch msg.Kind {
	case KindLoad:
		var p LoadPayload
		if err := msg.Into(&p); err != nil {
			return err
		}
		if p.Path == "" {
			return fmt.Errorf("%w: load without a path", shared.ErrProtocolMalformed)
		}
		return d.player.Load(p.Path, p.Position)

	case KindPlay:
		return d.player.Play()
	case KindPause:
		return d.player.Pause()
	case KindStop:
		return d.player.Stop()

	case KindNext, KindPrevious:
		p := NavPayload{Playlist: true}
		if err := msg.Into(&p); err != nil {
			return err
		}
		if msg.Kind == KindNext {
			return d.player.Next(p.Playlist)
		}
		return d.player.Previous(p.Playlist)

	case KindSeek:
		if msg.empty() {
			return fmt.Errorf("%w: seek without a position", shared.ErrProtocolMalformed)
		}
		var p SeekPayload
		if err := msg.Into(&p); err != nil {
			return err
		}
		return d.player.Seek(p.Seconds)

	case KindPlaylist:
		p := PlaylistPayload{Tracks: []string{}}
		if err := msg.Into(&p); err != nil {
			return err
		}
		d.player.SetPlaylist(p.Tracks)
		return nil

	case KindLoop, KindShuffle:
		var p TogglePayload
		if err := msg.Into(&p); err != nil {
			return err
		}
		if msg.Kind == KindLoop {
			d.player.SetLoop(p.Enabled)
		} else {
			d.player.SetShuffle(p.Enabled)
		}
		return nil

	case KindDownload:
		var p DownloadPayload
		if err := msg.Into(&p); err != nil {
			return err
		}
		if p.RemoteID == "" {
			return fmt.Errorf("%w: download without a remote id", shared.ErrProtocolMalformed)
		}
		if d.downloader == nil {
			return fmt.Errorf("%w: downloads are disabled", shared.ErrServiceUnavailable)
		}
		d.downloader.Start(ctx, tasks.DownloadRequest(p))
		return nil

	case KindAwake, KindAreWe:
		d.player.Awake()
		return nil
	case KindPaused:
		d.player.Detach()
		return nil
	case KindUpdateSlider:
		d.player.ReportPosition()
		return nil
	case KindClearService:
		d.player.ClearServiceFlag()
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
}
