package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// ledger opens the download ledger. The caller closes the returned database.
func (r *Runner) ledger() (*repositories.DownloadRepository, *sql.DB, error) {
	db, err := shared.OpenDatabase(r.config)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewDownloadRepository(db), db, nil
}

// DownloadsList prints ledger rows, newest first.
func (r *Runner) DownloadsList(ctx context.Context, cmd *cli.Command) error {
	status := models.DownloadStatus(strings.ToLower(cmd.String("status")))
	switch status {
	case "", models.DownloadPending, models.DownloadCompleted, models.DownloadFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
	}

	repo, db, err := r.ledger()
	if err != nil {
		return err
	}
	defer db.Close()

	downloads, err := repo.List(status, cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(downloads, true)
	}
	if len(downloads) == 0 {
		return r.writePlain("No downloads recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("Downloads (%d)", len(downloads)))
	for _, d := range downloads {
		state := styles.warn.Render(string(d.Status))
		switch d.Status {
		case models.DownloadCompleted:
			state = styles.ok.Render(string(d.Status))
		case models.DownloadFailed:
			state = styles.err.Render(string(d.Status) + ": " + d.Reason)
		}
		r.writePlain("%-12s %s  %s\n", d.RemoteID, d.Title, state)
		if d.Path != "" {
			r.writePlain("             %s\n", styles.help.Render(d.Path))
		}
	}
	return nil
}

// DownloadsForget drops a ledger row so the next request for it is fetched again.
func (r *Runner) DownloadsForget(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: remote id", shared.ErrMissingArgument)
	}

	repo, db, err := r.ledger()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Delete(id); err != nil {
		return err
	}
	return r.writePlain("%s Forgot %s\n", styles.ok.Render("✓"), id)
}
