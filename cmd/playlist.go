package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ytmp/internal/formatter"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// playlistRef resolves ref, or the active playlist when ref is empty.
func (r *Runner) playlistRef(ref string) (models.Playlist, error) {
	store, err := r.playlists()
	if err != nil {
		return models.Playlist{}, err
	}

	if strings.TrimSpace(ref) != "" {
		return store.Lookup(ref)
	}
	if active, ok := store.Active(); ok {
		return active, nil
	}
	return models.Playlist{}, fmt.Errorf("%w: no playlist given and none is active", shared.ErrMissingArgument)
}

// PlaylistList prints every stored playlist.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.playlists()
	if err != nil {
		return err
	}

	coll := store.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(coll, cmd.Bool("pretty"))
	}

	if len(coll.Playlists) == 0 {
		return r.writePlain("No playlists\n")
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(coll.Playlists)))
	for _, p := range coll.Playlists {
		marker := " "
		if p.ID == coll.ActivePlaylistID {
			marker = styles.ok.Render("*")
		}
		r.writePlain("%s %s  %s  %s\n", marker, styles.help.Render(p.ID[:min(8, len(p.ID))]), p.Name,
			styles.help.Render(fmt.Sprintf("%d tracks, %s", len(p.Tracks), shared.FormatDuration(p.Duration()))))
	}
	return nil
}

// PlaylistShow prints one playlist as a table, or rendered in an export format.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlistRef(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	if format := cmd.String("format"); format != "" {
		return formatter.Write(r.output, &p, format)
	}

	r.writePlainHeader(p.Name)
	r.writePlain("ID: %s\n", p.ID)
	r.writePlain("Tracks: %d (%s)\n\n", len(p.Tracks), shared.FormatDuration(p.Duration()))
	for i, t := range p.Tracks {
		line := fmt.Sprintf("%3d. %s [%s]", i+1, t.Title, shared.FormatDuration(t.Duration))
		if !shared.FileExists(t.Path) {
			line = styles.warn.Render(line + " (missing)")
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// PlaylistCreate adds an empty playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	store, err := r.playlists()
	if err != nil {
		return err
	}

	id, err := store.Create(cmd.StringArg("name"))
	if err != nil {
		return err
	}
	if cmd.Bool("activate") {
		if err := store.SetActive(id); err != nil {
			return err
		}
	}

	p, err := store.Get(id)
	if err != nil {
		return err
	}
	return r.writePlain("%s Created %q (%s)\n", styles.ok.Render("✓"), p.Name, p.ID)
}

// PlaylistRename renames a playlist.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlistRef(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if err := r.store.Rename(p.ID, name); err != nil {
		return err
	}
	return r.writePlain("%s Renamed %q to %q\n", styles.ok.Render("✓"), p.Name, name)
}

// PlaylistDelete removes a playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	p, err := r.playlistRef(ref)
	if err != nil {
		return err
	}

	if err := r.store.Delete(p.ID); err != nil {
		return err
	}
	return r.writePlain("%s Deleted %q\n", styles.ok.Render("✓"), p.Name)
}

// PlaylistActivate makes a playlist the active one.
func (r *Runner) PlaylistActivate(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	p, err := r.playlistRef(ref)
	if err != nil {
		return err
	}

	if err := r.store.SetActive(p.ID); err != nil {
		return err
	}
	return r.writePlain("%s Active playlist is %q\n", styles.ok.Render("✓"), p.Name)
}

// PlaylistDeactivate clears the active playlist.
func (r *Runner) PlaylistDeactivate(ctx context.Context, cmd *cli.Command) error {
	store, err := r.playlists()
	if err != nil {
		return err
	}

	if err := store.ClearActive(); err != nil {
		return err
	}
	return r.writePlain("%s No playlist is active\n", styles.ok.Render("✓"))
}

// PlaylistAdd appends files to a playlist. Paths already present are skipped.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one path", shared.ErrMissingArgument)
	}

	p, err := r.playlistRef(cmd.String("playlist"))
	if err != nil {
		return err
	}

	abs := make([]string, 0, len(paths))
	for _, path := range paths {
		path = shared.ExpandHome(path)
		if resolved, err := filepath.Abs(path); err == nil {
			path = resolved
		}
		if !shared.FileExists(path) {
			r.logger.Warn("skipping missing file", "path", path)
			continue
		}
		abs = append(abs, path)
	}

	added, err := r.store.AddTracks(p.ID, abs)
	if err != nil {
		return err
	}
	return r.writePlain("%s Added %d of %d tracks to %q\n", styles.ok.Render("✓"), added, len(paths), p.Name)
}

// PlaylistRemove removes the track at a 1-based position.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlistRef(cmd.String("playlist"))
	if err != nil {
		return err
	}

	index := cmd.Int("index")
	if index < 1 || index > len(p.Tracks) {
		return fmt.Errorf("%w: position %d out of range 1-%d", shared.ErrInvalidArgument, index, len(p.Tracks))
	}

	title := p.Tracks[index-1].Title
	if err := r.store.RemoveTrack(p.ID, index-1); err != nil {
		return err
	}
	return r.writePlain("%s Removed %q from %q\n", styles.ok.Render("✓"), title, p.Name)
}

// PlaylistMove reorders a playlist.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlistRef(cmd.String("playlist"))
	if err != nil {
		return err
	}

	from, to := cmd.Int("from"), cmd.Int("to")
	if err := r.store.MoveTrack(p.ID, from-1, to-1); err != nil {
		return err
	}
	return r.writePlain("%s Moved track %d to %d in %q\n", styles.ok.Render("✓"), from, to, p.Name)
}

// PlaylistExport writes a playlist to files in the chosen format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	p, err := r.playlistRef(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	switch format := strings.ToLower(cmd.String("format")); format {
	case "json", "":
		path, err := formatter.WriteJSONExport(&p, output)
		if err != nil {
			return err
		}
		r.writePlain("%s Exported to %s\n", styles.ok.Render("✓"), path)
	case "csv":
		result, err := formatter.WriteCSVExport(&p, output)
		if err != nil {
			return err
		}
		r.writePlain("%s Exported tracks to %s\n", styles.ok.Render("✓"), result.TracksFile)
		r.writePlain("%s Exported metadata to %s\n", styles.ok.Render("✓"), result.MetadataFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(&p, output)
		if err != nil {
			return err
		}
		for _, file := range result.Files {
			r.writePlain("%s Exported %s\n", styles.ok.Render("✓"), file)
		}
	case "txt", "text":
		path, err := formatter.WriteTextExport(&p, output)
		if err != nil {
			return err
		}
		r.writePlain("%s Exported to %s\n", styles.ok.Render("✓"), path)
	default:
		return fmt.Errorf("%w: unsupported format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(formatter.Formats, ", "))
	}
	return nil
}
