package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestDownloadRepository(t *testing.T) {
	t.Run("Record inserts and Get retrieves", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))

		d := &models.Download{RemoteID: "dQw4w9WgXcQ", Title: "Never Gonna"}
		if err := repo.Record(d); err != nil {
			t.Fatalf("failed to record download: %v", err)
		}
		if d.ID == "" {
			t.Error("ID should be set after Record")
		}
		if d.Status != models.DownloadPending {
			t.Errorf("expected pending status, got %s", d.Status)
		}

		got, err := repo.Get("dQw4w9WgXcQ")
		if err != nil {
			t.Fatalf("failed to get download: %v", err)
		}
		if got.ID != d.ID || got.Title != "Never Gonna" {
			t.Errorf("unexpected row: %+v", got)
		}
	})

	t.Run("Record upserts by remote id", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))

		first := &models.Download{RemoteID: "abc", Title: "Song"}
		if err := repo.Record(first); err != nil {
			t.Fatalf("failed to record download: %v", err)
		}

		time.Sleep(5 * time.Millisecond)
		second := &models.Download{
			RemoteID:    "abc",
			Title:       "Song",
			Path:        "/media/Song.mp3",
			ArtworkPath: "/media/Song.jpg",
			Status:      models.DownloadCompleted,
			Attempts:    2,
		}
		if err := repo.Record(second); err != nil {
			t.Fatalf("failed to update download: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("expected upsert to keep id %s, got %s", first.ID, second.ID)
		}

		got, err := repo.Get("abc")
		if err != nil {
			t.Fatalf("failed to get download: %v", err)
		}
		if got.Status != models.DownloadCompleted || got.Path != "/media/Song.mp3" || got.Attempts != 2 {
			t.Errorf("update not applied: %+v", got)
		}
		if !got.UpdatedAt.After(got.CreatedAt) {
			t.Errorf("expected updated_at after created_at, got %v / %v", got.UpdatedAt, got.CreatedAt)
		}
	})

	t.Run("Record requires a remote id", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if err := repo.Record(&models.Download{Title: "x"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get unknown remote id", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if _, err := repo.Get("missing"); !errors.Is(err, ErrDownloadNotFound) {
			t.Errorf("expected ErrDownloadNotFound, got %v", err)
		}
	})

	t.Run("List filters by status", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))

		for _, d := range []*models.Download{
			{RemoteID: "1", Title: "one", Status: models.DownloadCompleted},
			{RemoteID: "2", Title: "two", Status: models.DownloadFailed, Reason: "format_unavailable"},
			{RemoteID: "3", Title: "three", Status: models.DownloadCompleted},
		} {
			if err := repo.Record(d); err != nil {
				t.Fatalf("failed to record %s: %v", d.RemoteID, err)
			}
		}

		all, err := repo.List("", 0)
		if err != nil {
			t.Fatalf("failed to list downloads: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 downloads, got %d", len(all))
		}

		failed, err := repo.List(models.DownloadFailed, 10)
		if err != nil {
			t.Fatalf("failed to list failed downloads: %v", err)
		}
		if len(failed) != 1 || failed[0].Reason != "format_unavailable" {
			t.Errorf("unexpected failed downloads: %+v", failed)
		}

		limited, err := repo.List("", 2)
		if err != nil {
			t.Fatalf("failed to list with limit: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 downloads with limit, got %d", len(limited))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if err := repo.Record(&models.Download{RemoteID: "gone", Title: "x"}); err != nil {
			t.Fatalf("failed to record download: %v", err)
		}

		if err := repo.Delete("gone"); err != nil {
			t.Fatalf("failed to delete download: %v", err)
		}
		if err := repo.Delete("gone"); !errors.Is(err, ErrDownloadNotFound) {
			t.Errorf("expected ErrDownloadNotFound on second delete, got %v", err)
		}
	})
}
