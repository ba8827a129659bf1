package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/playback"
	"github.com/desertthunder/ytmp/internal/remote"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	store      *repositories.PlaylistStore
	client     *remote.Client
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Store      *repositories.PlaylistStore // optional; opened from the config on first use
	Client     *remote.Client              // optional; dialed from the config on first use
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		client:     opts.Client,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, playlistCommand, remoteCommand, downloadsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// playlists returns the loaded playlist store, opening it on first use.
func (r *Runner) playlists() (*repositories.PlaylistStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	store := repositories.NewPlaylistStore(repositories.PlaylistStoreOpts{
		Path:      r.config.PlaylistPath(),
		Root:      r.config.MediaRoot(),
		ExportDir: shared.ExpandHome(r.config.Media.ExportDir),
		Probe:     playback.ProbeDuration,
		Logger:    r.logger,
	})
	if err := store.Load(); err != nil {
		r.logger.Warn("playlist collection not persisted", "error", err)
	}

	r.store = store
	return store, nil
}

// remote returns the channel client, dialing it on first use.
func (r *Runner) remote() (*remote.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	client, err := remote.NewClient(remote.ClientOpts{
		CommandAddr: r.config.CommandAddr(),
		EventAddr:   r.config.EventAddr(),
		Logger:      r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.client = client
	return client, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", styles.title.Render(title))
	r.writePlain("═══════════════════════════════════════\n")
}
