// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/ytmp/internal/formatter"
	"github.com/urfave/cli/v3"
)

// serveCommand runs the background playback service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playback service until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Usage: "Audio output: speaker or null (overrides playback.output)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Status endpoint port, 0 disables (overrides server.port)",
				Value: -1,
			},
		},
		Action: r.Serve,
	}
}

// playlistCommand handles the stored playlist collection
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage stored playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist's tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Render as " + strings.Join(formatter.Formats, ", ") + " instead of a table",
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "activate",
						Usage: "Make the new playlist active",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
					&cli.StringArg{
						Name: "name",
					},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "activate",
				Usage: "Make a playlist the active one",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.PlaylistActivate,
			},
			{
				Name:   "deactivate",
				Usage:  "Clear the active playlist",
				Action: r.PlaylistDeactivate,
			},
			{
				Name:      "add",
				Usage:     "Append audio files to a playlist, skipping duplicates",
				ArgsUsage: "<path> [path...]",
				Flags:     []cli.Flag{playlistFlag()},
				Action:    r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove the track at a 1-based position",
				Flags: []cli.Flag{
					playlistFlag(),
					&cli.IntFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Track position",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "move",
				Usage: "Move a track between 1-based positions",
				Flags: []cli.Flag{
					playlistFlag(),
					&cli.IntFlag{
						Name:     "from",
						Usage:    "Current position",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "to",
						Usage:    "New position",
						Required: true,
					},
				},
				Action: r.PlaylistMove,
			},
			{
				Name:  "export",
				Usage: "Export a playlist to files",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: " + strings.Join(formatter.Formats, ", "),
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, base path or directory (defaults to the playlist id)",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// remoteCommand sends commands to a running service the way the UI does
func remoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "remote",
		Aliases: []string{"rc"},
		Usage:   "Control a running service over the message channel",
		Commands: []*cli.Command{
			{
				Name:  "load",
				Usage: "Load and play a track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:  "at",
						Usage: "Resume position in seconds",
						Value: -1,
					},
				},
				Action: r.RemoteLoad,
			},
			{
				Name:   "play",
				Usage:  "Resume playback",
				Action: r.RemoteSimple,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.RemoteSimple,
			},
			{
				Name:   "stop",
				Usage:  "Stop playback",
				Action: r.RemoteSimple,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Flags:  []cli.Flag{playlistModeFlag()},
				Action: r.RemoteNav,
			},
			{
				Name:   "previous",
				Usage:  "Go back to the previous track",
				Flags:  []cli.Flag{playlistModeFlag()},
				Action: r.RemoteNav,
			},
			{
				Name:  "seek",
				Usage: "Seek to an absolute position in seconds",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "seconds",
					},
				},
				Action: r.RemoteSeek,
			},
			{
				Name:  "loop",
				Usage: "Turn single-track looping on or off",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "enabled",
					},
				},
				Action: r.RemoteToggle,
			},
			{
				Name:  "shuffle",
				Usage: "Turn shuffle on or off",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "enabled",
					},
				},
				Action: r.RemoteToggle,
			},
			{
				Name:  "queue",
				Usage: "Replace the service playlist with a stored playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.RemoteQueue,
			},
			{
				Name:  "download",
				Usage: "Ask the service to download a track by remote id",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Track title used for the file name",
					},
					&cli.StringFlag{
						Name:  "artwork",
						Usage: "Artwork URL",
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "Destination directory (defaults to the played directory)",
					},
				},
				Action: r.RemoteDownload,
			},
			{
				Name:  "status",
				Usage: "Ask whether the service is playing",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for a reply",
					},
				},
				Action: r.RemoteStatus,
			},
			{
				Name:  "watch",
				Usage: "Print events from the service until interrupted",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print raw event envelopes",
					},
				},
				Action: r.RemoteWatch,
			},
		},
	}
}

// downloadsCommand inspects the download ledger
func downloadsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "downloads",
		Usage: "Inspect the download ledger",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded downloads",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show pending, completed or failed downloads",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of rows",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DownloadsList,
			},
			{
				Name:  "forget",
				Usage: "Remove a ledger row so the next request refetches",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.DownloadsForget,
			},
		},
	}
}

// setupCommand handles initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and initialization commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage: "Initialize the download ledger and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "playlist",
		Aliases: []string{"p"},
		Usage:   "Playlist id, id prefix or name (defaults to the active playlist)",
	}
}

func playlistModeFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "playlist",
		Usage: "Navigate within the playlist",
		Value: true,
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}
