package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
)

// ErrDownloadNotFound is returned when the ledger has no row for a remote id.
var ErrDownloadNotFound = errors.New("download not found")

// DownloadRepository persists the download ledger in SQLite, one row per remote id.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record inserts or updates the row for d.RemoteID and fills in the generated id and timestamps.
func (r *DownloadRepository) Record(d *models.Download) error {
	if d.RemoteID == "" {
		return fmt.Errorf("%w: remote id is required", shared.ErrInvalidInput)
	}
	if d.Status == "" {
		d.Status = models.DownloadPending
	}

	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = shared.GenerateID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	query := `
		INSERT INTO downloads (id, remote_id, title, path, artwork_path, status, reason, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_id) DO UPDATE SET
			title = excluded.title,
			path = excluded.path,
			artwork_path = excluded.artwork_path,
			status = excluded.status,
			reason = excluded.reason,
			attempts = excluded.attempts,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		d.ID,
		d.RemoteID,
		d.Title,
		d.Path,
		d.ArtworkPath,
		string(d.Status),
		d.Reason,
		d.Attempts,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	stored, err := r.Get(d.RemoteID)
	if err != nil {
		return err
	}
	d.ID, d.CreatedAt = stored.ID, stored.CreatedAt
	return nil
}

// Get retrieves the ledger row for a remote id.
func (r *DownloadRepository) Get(remoteID string) (*models.Download, error) {
	query := `
		SELECT id, remote_id, title, path, artwork_path, status, reason, attempts, created_at, updated_at
		FROM downloads
		WHERE remote_id = ?
	`

	d, err := scanDownload(r.db.QueryRow(query, remoteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDownloadNotFound, remoteID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}
	return d, nil
}

// List returns ledger rows, newest first, optionally filtered by status.
func (r *DownloadRepository) List(status models.DownloadStatus, limit int) ([]*models.Download, error) {
	query := `
		SELECT id, remote_id, title, path, artwork_path, status, reason, attempts, created_at, updated_at
		FROM downloads
	`
	args := []any{}

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY updated_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return downloads, nil
}

// Delete removes the row for a remote id.
func (r *DownloadRepository) Delete(remoteID string) error {
	result, err := r.db.Exec("DELETE FROM downloads WHERE remote_id = ?", remoteID)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrDownloadNotFound, remoteID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(row scanner) (*models.Download, error) {
	var (
		d      models.Download
		status string
	)

	err := row.Scan(&d.ID, &d.RemoteID, &d.Title, &d.Path, &d.ArtworkPath, &status, &d.Reason, &d.Attempts, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = models.DownloadStatus(status)
	return &d, nil
}
