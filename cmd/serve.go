package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/desertthunder/ytmp/internal/channel"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/playback"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/server"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/desertthunder/ytmp/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// service is everything `ytmp serve` runs.
type service struct {
	db        *sql.DB
	emitter   *channel.Emitter
	engine    *playback.Engine
	downloads *tasks.DownloadEngine
	listener  *channel.Listener
	status    *server.Server
}

// Serve runs the playback service until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if output := cmd.String("output"); output != "" {
		r.config.Playback.Output = output
	}
	if port := cmd.Int("port"); port >= 0 {
		r.config.Server.Port = port
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.serve(ctx)
}

func (r *Runner) serve(ctx context.Context) error {
	svc, err := r.newService()
	if err != nil {
		return err
	}
	defer svc.close(r)

	metrics.SetAppInfo(version, runtime.Version())
	r.logger.Info("service ready",
		"commands", svc.listener.Addr().String(),
		"events", r.config.EventAddr(),
		"output", r.config.Playback.Output,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.emitter.Run(gctx) })
	g.Go(func() error { return svc.listener.Serve(gctx) })
	if svc.status != nil {
		g.Go(func() error { return svc.status.Run(gctx) })
	}

	err = g.Wait()
	r.logger.Info("shutting down")
	svc.downloads.Wait()
	return err
}

// newService builds the service from the runner's configuration. The engine starts with the
// active playlist queued.
func (r *Runner) newService() (*service, error) {
	cfg := r.config
	logger := r.logger

	store, err := r.playlists()
	if err != nil {
		return nil, err
	}

	svc := &service{}
	svc.db, err = shared.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}

	svc.emitter, err = channel.NewEmitter(channel.EmitterOpts{
		Addr:      cfg.EventAddr(),
		QueueSize: cfg.Channel.QueueSize,
		Logger:    shared.WithLogger(logger, "component", "emitter"),
	})
	if err != nil {
		svc.close(r)
		return nil, err
	}

	var output playback.Output = playback.NewBeepOutput(cfg.Playback.SampleRate)
	if cfg.Playback.Output == "null" {
		output = &playback.NullOutput{Default: 3 * time.Minute, Probe: playback.ProbeDuration}
	}

	svc.engine = playback.NewEngine(playback.EngineOpts{
		Output:       output,
		Notifier:     svc.emitter,
		Sequencer:    playback.NewSequencer(nil, cfg.Playback.RestartThreshold()),
		MediaDir:     cfg.PlayedDir(),
		Tick:         cfg.Playback.Tick(),
		EndThreshold: cfg.Playback.EndThreshold(),
		JoinTimeout:  cfg.Playback.JoinTimeout(),
		Logger:       shared.WithLogger(logger, "component", "engine"),
	})
	if active, ok := store.Active(); ok {
		svc.engine.SeedPlaylist(active.Paths())
		logger.Info("queued active playlist", "name", active.Name, "tracks", len(active.Tracks))
	}

	svc.downloads = tasks.NewDownloadEngine(tasks.DownloadEngineOpts{
		Fetcher:        services.NewYtdlpFetcher(cfg.Download, shared.WithLogger(logger, "component", "ytdlp")),
		Artwork:        services.NewArtworkClient(&http.Client{}, cfg.Download.ArtworkTimeout(), cfg.Download.ArtworkSize),
		Tagger:         services.FileTagger{},
		Ledger:         repositories.NewDownloadRepository(svc.db),
		Notifier:       svc.emitter,
		Root:           cfg.PlayedDir(),
		Attempts:       cfg.Download.Attempts,
		RateLimit:      cfg.Download.RateLimit,
		ArtworkTimeout: cfg.Download.ArtworkTimeout(),
		Logger:         shared.WithLogger(logger, "component", "downloads"),
	})

	dispatcher := channel.NewDispatcher(svc.engine, svc.downloads, shared.WithLogger(logger, "component", "dispatcher"))
	svc.listener, err = channel.Listen(channel.ListenerOpts{
		Addr:    cfg.CommandAddr(),
		Handler: dispatcher,
		Logger:  shared.WithLogger(logger, "component", "listener"),
	})
	if err != nil {
		svc.close(r)
		return nil, err
	}

	if cfg.Server.Port > 0 {
		svc.status = server.New(server.ServerOpts{
			Addr:    cfg.ServerAddr(),
			Source:  svc.engine,
			Version: version,
			Logger:  shared.WithLogger(logger, "component", "server"),
		})
	}

	return svc, nil
}

// close releases what newService opened, in reverse order.
func (s *service) close(r *Runner) {
	var errs []error
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.emitter != nil {
		errs = append(errs, s.emitter.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}

	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("failed to release service resources", "error", err)
	}
}
