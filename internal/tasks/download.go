package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"golang.org/x/time/rate"
)

const (
	ReasonFormatUnavailable = "format_unavailable"
	ReasonFailed            = "failed"

	// ControlEnablePlay asks the UI to re-enable its play controls.
	ControlEnablePlay = "enable_play"

	defaultAttempts = 2
	defaultBackoff  = 2 * time.Second
)

// DownloadRequest is one "downloadyt" command.
type DownloadRequest struct {
	RemoteID   string
	Title      string
	ArtworkURL string
	Root       string // destination directory; empty uses the engine default
}

// DownloadResult describes a finished download.
type DownloadResult struct {
	RemoteID    string
	Path        string
	ArtworkPath string
	Attempts    int
	Cached      bool
}

// Notifier receives the events the orchestrator reports to the UI.
type Notifier interface {
	DataInfo(text string)
	Controls(action string)
	FileDownloaded(ok bool, path, reason string)
}

// Ledger remembers what has been downloaded.
type Ledger interface {
	Get(remoteID string) (*models.Download, error)
	Record(d *models.Download) error
}

type DownloadEngineOpts struct {
	Fetcher        services.Fetcher
	Artwork        services.Artwork
	Tagger         services.Tagger
	Ledger         Ledger // optional
	Notifier       Notifier
	Root           string
	Attempts       int
	Backoff        time.Duration
	RateLimit      float64 // download starts per second
	ArtworkTimeout time.Duration
	Logger         *log.Logger
}

// DownloadEngine runs downloads in worker goroutines, one per request.
type DownloadEngine struct {
	fetcher        services.Fetcher
	artwork        services.Artwork
	tagger         services.Tagger
	ledger         Ledger
	notifier       Notifier
	root           string
	attempts       int
	backoff        time.Duration
	artworkTimeout time.Duration
	limiter        *rate.Limiter
	logger         *log.Logger
	wg             sync.WaitGroup
}

func NewDownloadEngine(opts DownloadEngineOpts) *DownloadEngine {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.ArtworkTimeout <= 0 {
		opts.ArtworkTimeout = services.DefaultArtworkTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &DownloadEngine{
		fetcher:        opts.Fetcher,
		artwork:        opts.Artwork,
		tagger:         opts.Tagger,
		ledger:         opts.Ledger,
		notifier:       opts.Notifier,
		root:           opts.Root,
		attempts:       opts.Attempts,
		backoff:        opts.Backoff,
		artworkTimeout: opts.ArtworkTimeout,
		limiter:        rate.NewLimiter(limit, 1),
		logger:         opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *DownloadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Start runs req in its own goroutine and returns immediately. Progress is logged at debug level.
func (e *DownloadEngine) Start(ctx context.Context, req DownloadRequest) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		progress := make(chan ProgressUpdate, 16)
		logged := make(chan struct{})
		go func() {
			defer close(logged)
			for update := range progress {
				e.logger.Debug(update.Message, "phase", update.Phase, "remote_id", req.RemoteID)
			}
		}()
		defer func() {
			close(progress)
			<-logged
		}()

		if err := e.runSafe(ctx, req, progress); err != nil {
			e.logger.Warn("download failed", "remote_id", req.RemoteID, "error", err)
		}
	}()
}

// runSafe is [DownloadEngine.Run] with panics turned into a failed download, so a single bad
// file cannot take the service down.
func (e *DownloadEngine) runSafe(ctx context.Context, req DownloadRequest, progress chan<- ProgressUpdate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.fail(progress, req, ReasonFailed, 0, fmt.Errorf("%w: panic: %v", shared.ErrDownloadFailed, r))
		}
	}()

	_, err = e.Run(ctx, req, progress)
	return err
}

// Wait blocks until every download started with [DownloadEngine.Start] has finished.
func (e *DownloadEngine) Wait() {
	e.wg.Wait()
}

// Run performs one download synchronously.
//
// The audio fetch is retried with backoff, except when the format is unavailable. Artwork is
// best-effort: failures to fetch, store or embed it are logged and never fail the download.
func (e *DownloadEngine) Run(ctx context.Context, req DownloadRequest, progress chan<- ProgressUpdate) (*DownloadResult, error) {
	if req.RemoteID == "" {
		err := fmt.Errorf("%w: remote id", shared.ErrMissingArgument)
		return nil, e.fail(progress, req, ReasonFailed, 0, err)
	}
	if req.Title == "" {
		req.Title = req.RemoteID
	}
	if req.Root == "" {
		req.Root = e.root
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, e.fail(progress, req, ReasonFailed, 0, err)
	}

	metrics.DownloadsInFlight.Inc()
	defer metrics.DownloadsInFlight.Dec()
	started := time.Now()

	e.sendProgress(progress, lookupUpdate(req.RemoteID))
	if result, ok := e.cached(req); ok {
		e.logger.Info("serving download from disk", "remote_id", req.RemoteID, "path", result.Path)
		e.notifier.FileDownloaded(true, result.Path, "")
		metrics.DownloadsTotal.WithLabelValues("cached").Inc()
		e.sendProgress(progress, completeUpdate(result))
		return result, nil
	}

	e.record(&models.Download{RemoteID: req.RemoteID, Title: req.Title, Status: models.DownloadPending})

	base := filepath.Join(req.Root, shared.SafeFilename(req.Title))
	path, attempts, err := e.fetch(ctx, req, base, progress)
	if err != nil {
		reason := ReasonFailed
		if errors.Is(err, services.ErrFormatUnavailable) {
			reason = ReasonFormatUnavailable
		}
		return nil, e.fail(progress, req, reason, attempts, err)
	}
	if !shared.FileExists(path) {
		err := fmt.Errorf("downloaded file not found: %s", path)
		return nil, e.fail(progress, req, ReasonFailed, attempts, err)
	}

	result := &DownloadResult{RemoteID: req.RemoteID, Path: path, Attempts: attempts}
	result.ArtworkPath = e.attachArtwork(ctx, req, path, progress)

	e.record(&models.Download{
		RemoteID:    req.RemoteID,
		Title:       req.Title,
		Path:        path,
		ArtworkPath: result.ArtworkPath,
		Status:      models.DownloadCompleted,
		Attempts:    attempts,
	})

	e.logger.Info("download complete", "remote_id", req.RemoteID, "path", path, "attempts", attempts)
	e.notifier.FileDownloaded(true, path, "")
	metrics.DownloadsTotal.WithLabelValues("completed").Inc()
	metrics.DownloadDuration.Observe(time.Since(started).Seconds())
	e.sendProgress(progress, completeUpdate(result))
	return result, nil
}

func (e *DownloadEngine) fetch(ctx context.Context, req DownloadRequest, base string, progress chan<- ProgressUpdate) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(e.backoff):
			case <-ctx.Done():
				return "", attempt - 1, ctx.Err()
			}
			e.logger.Info("retrying download", "remote_id", req.RemoteID, "attempt", attempt)
		}

		e.sendProgress(progress, attemptUpdate(attempt, e.attempts, req.Title))
		path, err := e.fetcher.Fetch(ctx, services.FetchRequest{
			RemoteID:   req.RemoteID,
			OutputBase: base,
			Progress: func(percent float64) {
				e.notifier.DataInfo(progressText(percent))
				e.sendProgress(progress, percentUpdate(attempt, e.attempts, percent))
			},
		})
		if err == nil {
			return path, attempt, nil
		}

		lastErr = err
		e.logger.Warn("download attempt failed", "remote_id", req.RemoteID, "attempt", attempt, "error", err)
		if errors.Is(err, services.ErrFormatUnavailable) || ctx.Err() != nil {
			return "", attempt, err
		}
	}
	return "", e.attempts, lastErr
}

// attachArtwork stores the cover beside the audio as "<stem>.jpg" and embeds it. It returns the
// cover path, or "" when there is none.
func (e *DownloadEngine) attachArtwork(ctx context.Context, req DownloadRequest, audioPath string, progress chan<- ProgressUpdate) string {
	if req.ArtworkURL == "" || e.artwork == nil {
		return ""
	}

	e.sendProgress(progress, artworkUpdate(req.ArtworkURL))
	actx, cancel := context.WithTimeout(ctx, e.artworkTimeout)
	defer cancel()

	cover, err := e.artwork.Fetch(actx, req.ArtworkURL)
	if err != nil {
		e.logger.Warn("artwork fetch failed", "remote_id", req.RemoteID, "error", err)
		return ""
	}

	coverPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".jpg"
	if err := os.WriteFile(coverPath, cover, 0644); err != nil {
		e.logger.Warn("artwork save failed", "path", coverPath, "error", err)
		coverPath = ""
	}

	if e.tagger == nil {
		return coverPath
	}
	e.sendProgress(progress, embedUpdate(audioPath))
	switch err := e.tagger.Embed(audioPath, cover, req.Title); {
	case err == nil:
		e.notifier.DataInfo("Embedded album art")
	case errors.Is(err, services.ErrUnsupportedContainer):
		e.logger.Debug("skipping artwork embedding", "path", audioPath, "error", err)
	default:
		e.logger.Warn("artwork embedding failed", "path", audioPath, "error", err)
	}
	return coverPath
}

func (e *DownloadEngine) cached(req DownloadRequest) (*DownloadResult, bool) {
	if e.ledger == nil {
		return nil, false
	}
	d, err := e.ledger.Get(req.RemoteID)
	if err != nil || d.Status != models.DownloadCompleted || !shared.FileExists(d.Path) {
		return nil, false
	}
	return &DownloadResult{RemoteID: d.RemoteID, Path: d.Path, ArtworkPath: d.ArtworkPath, Cached: true}, true
}

func (e *DownloadEngine) fail(progress chan<- ProgressUpdate, req DownloadRequest, reason string, attempts int, cause error) error {
	text := fmt.Sprintf("Download failed: %v", cause)
	if reason == ReasonFormatUnavailable {
		text = "Requested format is not available right now. Tap Play to retry."
	}

	e.notifier.DataInfo(text)
	e.notifier.FileDownloaded(false, "", reason)
	e.notifier.Controls(ControlEnablePlay)
	metrics.DownloadsTotal.WithLabelValues(reason).Inc()
	e.sendProgress(progress, failedUpdate(reason, cause))

	if req.RemoteID != "" {
		e.record(&models.Download{
			RemoteID: req.RemoteID,
			Title:    req.Title,
			Status:   models.DownloadFailed,
			Reason:   reason,
			Attempts: attempts,
		})
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrDownloadFailed, req.RemoteID, cause)
}

func (e *DownloadEngine) record(d *models.Download) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.Record(d); err != nil {
		e.logger.Warn("failed to update download ledger", "remote_id", d.RemoteID, "error", err)
	}
}
