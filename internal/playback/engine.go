package playback

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/shared"
)

const (
	DefaultTick         = time.Second
	DefaultEndThreshold = time.Second
	DefaultJoinTimeout  = 1500 * time.Millisecond

	// seekMargin keeps seeks short of the very end so the monitor still sees the track finish.
	seekMargin = 100 * time.Millisecond
)

// Notifier receives the events the engine reports to the UI.
type Notifier interface {
	SetSlider(duration float64)
	SongPosition(pos float64)
	UpdateImage(path string)
	SongNotFound(name string)
	ResetGUI()
	AreWe(reply string)
	Normalize()
}

type EngineOpts struct {
	Output       Output
	Notifier     Notifier
	Sequencer    *Sequencer
	MediaDir     string // directory searched by basename when a path does not resolve
	Tick         time.Duration
	EndThreshold time.Duration
	JoinTimeout  time.Duration
	Logger       *log.Logger
}

type monitor struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine owns the playback session and the monitor loop.
//
// opMu serialises operations, including auto-advances started by the monitor. mu guards the
// session state, the audio handle and the generation counter; the monitor takes only mu.
type Engine struct {
	opMu sync.Mutex
	mon  *monitor

	mu     sync.Mutex
	state  State
	handle Handle
	gen    uint64
	closed bool

	wg sync.WaitGroup

	output       Output
	notifier     Notifier
	seq          *Sequencer
	mediaDir     string
	tick         time.Duration
	endThreshold time.Duration
	joinTimeout  time.Duration
	logger       *log.Logger
}

func NewEngine(opts EngineOpts) *Engine {
	e := &Engine{
		output:       opts.Output,
		notifier:     opts.Notifier,
		seq:          opts.Sequencer,
		mediaDir:     opts.MediaDir,
		tick:         opts.Tick,
		endThreshold: opts.EndThreshold,
		joinTimeout:  opts.JoinTimeout,
		logger:       opts.Logger,
	}
	if e.seq == nil {
		e.seq = NewSequencer(nil, DefaultRestartThreshold)
	}
	if e.tick <= 0 {
		e.tick = DefaultTick
	}
	if e.endThreshold <= 0 {
		e.endThreshold = DefaultEndThreshold
	}
	if e.joinTimeout <= 0 {
		e.joinTimeout = DefaultJoinTimeout
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(io.Discard)
	}
	metrics.PlaybackState.Set(float64(Idle))
	return e
}

// Load stops whatever is playing and opens path. With resumeAt set the track is left paused at
// that position; otherwise it starts immediately.
func (e *Engine) Load(path string, resumeAt *float64) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.load(path, resumeAt, false)
}

// Play starts or resumes the loaded track, reloading it when it was stopped.
func (e *Engine) Play() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.handle == nil {
		current, fromService := e.state.Current, e.state.FromService
		e.mu.Unlock()
		if current == "" {
			return shared.ErrNothingLoaded
		}
		return e.load(current, nil, fromService)
	}
	defer e.mu.Unlock()

	if e.state.Status == Playing {
		return nil
	}
	return e.startLocked()
}

// Pause remembers the position, joins the monitor and pauses output.
func (e *Engine) Pause() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.stopMonitor()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == nil || e.state.Status != Playing {
		return nil
	}

	pos, err := e.handle.Position()
	if err != nil {
		e.logger.Warn("position unavailable, using last slider value", "error", err)
		pos = time.Duration(e.state.LastRatio * float64(e.state.Duration))
		e.notifier.Normalize()
	}
	if err := e.handle.Pause(); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	e.state.ResumeAt = pos
	e.state.HasResume = true
	e.setStatusLocked(Paused)
	return nil
}

// Stop releases the audio handle. The current track is remembered so Play can reload it.
func (e *Engine) Stop() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.stopMonitor()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	e.setStatusLocked(Idle)
	return nil
}

// Seek moves to seconds, clamped to the playable range, starting output if needed.
func (e *Engine) Seek(seconds float64) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.seek(fromSeconds(seconds))
}

// Next advances to the following track. Outside playlist mode, or when there is nothing to
// advance to, the UI is reset to idle.
func (e *Engine) Next(playlistMode bool) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.state.PlaylistMode = playlistMode
	e.mu.Unlock()

	if playlistMode {
		e.mu.Lock()
		target, ok := e.seq.Next(&e.state)
		e.mu.Unlock()
		if ok {
			return e.load(target, nil, true)
		}
		e.logger.Info("no next track in playlist")
	}

	e.reset()
	return nil
}

// Previous restarts the current track or goes back to the one before it.
func (e *Engine) Previous(playlistMode bool) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.state.Previous = true
	e.state.PlaylistMode = playlistMode
	var elapsed time.Duration
	if e.handle != nil {
		elapsed, _ = e.handle.Position()
	}
	decision := Decision{Move: MoveRestart}
	if playlistMode {
		decision = e.seq.Previous(&e.state, elapsed)
	}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state.Previous = false
		e.mu.Unlock()
	}()

	switch decision.Move {
	case MoveTo:
		return e.load(decision.Target, nil, true)
	case MoveRestart:
		e.mu.Lock()
		loaded, current := e.handle != nil, e.state.Current
		e.mu.Unlock()
		if !loaded {
			if current == "" {
				return nil
			}
			return e.load(current, nil, true)
		}
		return e.seek(0)
	default:
		return nil
	}
}

func (e *Engine) SetLoop(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Loop = loop
	if e.handle != nil {
		e.handle.SetLoop(loop)
	}
}

func (e *Engine) SetShuffle(shuffle bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if shuffle == e.state.Shuffle {
		return
	}
	e.state.Shuffle = shuffle
	if shuffle {
		e.seq.Rebuild(&e.state, true)
	} else {
		e.state.Bag = nil
		e.state.BagSource = 0
	}
}

// SetPlaylist replaces the playlist snapshot sent by the UI and puts the engine in playlist mode
// when it is not empty. A different snapshot resets history and the shuffle bag.
func (e *Engine) SetPlaylist(entries []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PlaylistMode = len(entries) > 0
	e.replacePlaylistLocked(entries)
}

// SeedPlaylist replaces the snapshot without touching playlist mode, so tracks the UI starts on
// its own are not auto-advanced through it.
func (e *Engine) SeedPlaylist(entries []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replacePlaylistLocked(entries)
}

func (e *Engine) replacePlaylistLocked(entries []string) {
	if e.state.ReplacePlaylist(entries) && e.state.Shuffle {
		e.seq.Rebuild(&e.state, true)
	}
}

// Awake answers the UI's resume handshake and resends what it needs to redraw.
func (e *Engine) Awake() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Detached = false
	if e.state.FromService && e.state.Current != "" {
		if cover, ok := ResolveCover(e.state.Current, e.mediaDir); ok {
			e.notifier.UpdateImage(cover)
		}
	}
	if e.handle != nil {
		e.notifier.SetSlider(e.state.Duration.Seconds())
	}
	e.notifier.AreWe(e.state.Status.Reply())
	return e.state.Status
}

// Detach suppresses position updates until the next [Engine.Awake].
func (e *Engine) Detach() {
	e.mu.Lock()
	e.state.Detached = true
	e.mu.Unlock()
}

// ReportPosition sends the current position once.
func (e *Engine) ReportPosition() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == nil {
		return
	}
	pos, err := e.handle.Position()
	if err != nil {
		e.logger.Warn("position unavailable", "error", err)
		return
	}
	e.notifier.SongPosition(pos.Seconds())
}

// ClearServiceFlag marks the current track as chosen by the UI.
func (e *Engine) ClearServiceFlag() {
	e.mu.Lock()
	e.state.FromService = false
	e.mu.Unlock()
}

// Status returns a snapshot of the session.
func (e *Engine) Status() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	var pos time.Duration
	switch {
	case e.state.HasResume:
		pos = e.state.ResumeAt
	case e.handle != nil:
		pos, _ = e.handle.Position()
	}
	return e.state.snapshot(pos)
}

// Close stops playback and waits for pending auto-advances to finish.
func (e *Engine) Close() error {
	e.opMu.Lock()
	e.stopMonitor()
	e.mu.Lock()
	e.closed = true
	e.releaseLocked()
	e.setStatusLocked(Idle)
	e.mu.Unlock()
	e.opMu.Unlock()

	e.wg.Wait()
	return nil
}

// load must be called with opMu held.
func (e *Engine) load(path string, resumeAt *float64, fromService bool) error {
	e.stopMonitor()

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.state.Current
	e.releaseLocked()
	e.setStatusLocked(Loading)

	resolved, ok := ResolveTrack(path, e.mediaDir)
	if !ok {
		e.logger.Warn("track not found", "path", path)
		e.notifier.SongNotFound(filepath.Base(path))
		e.notifier.ResetGUI()
		e.state.Current = path
		e.state.Duration = 0
		e.setStatusLocked(Idle)
		metrics.TracksLoaded.WithLabelValues("not_found").Inc()
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, path)
	}

	h, err := e.output.Open(resolved)
	if err != nil {
		e.logger.Error("failed to open track", "path", resolved, "error", err)
		e.notifier.ResetGUI()
		e.state.Current = resolved
		e.state.Duration = 0
		e.setStatusLocked(Idle)
		metrics.TracksLoaded.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to open track: %w", err)
	}
	metrics.TracksLoaded.WithLabelValues("ok").Inc()

	h.SetLoop(e.state.Loop)
	e.handle = h
	e.state.Current = resolved
	e.state.Duration = h.Duration()
	e.state.FromService = fromService
	e.state.LastRatio = 0

	e.notifier.SetSlider(e.state.Duration.Seconds())
	if fromService {
		if cover, ok := ResolveCover(resolved, e.mediaDir); ok {
			e.notifier.UpdateImage(cover)
		}
	}
	if !e.state.Previous && previous != "" && identity(previous) != identity(resolved) {
		e.state.PushHistory(previous)
	}

	e.logger.Info("loaded track", "track", filepath.Base(resolved), "duration", shared.FormatDuration(e.state.Duration.Seconds()))

	if resumeAt != nil {
		e.state.ResumeAt = e.clampLocked(fromSeconds(*resumeAt))
		e.state.HasResume = true
		e.setStatusLocked(Paused)
		return nil
	}
	return e.startLocked()
}

// seek must be called with opMu held.
func (e *Engine) seek(target time.Duration) error {
	e.stopMonitor()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == nil {
		return shared.ErrNothingLoaded
	}

	target = e.clampLocked(target)
	if e.state.Status != Playing {
		if err := e.handle.Play(); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
		e.setStatusLocked(Playing)
	}
	if err := e.handle.Seek(target); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	e.state.HasResume = false
	e.state.ResumeAt = 0
	e.state.Previous = false
	e.startMonitorLocked()
	e.notifier.SongPosition(target.Seconds())
	return nil
}

// reset must be called with opMu held.
func (e *Engine) reset() {
	e.stopMonitor()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
	e.setStatusLocked(Idle)
	e.notifier.ResetGUI()
}

func (e *Engine) startLocked() error {
	if e.handle == nil {
		return shared.ErrNothingLoaded
	}
	if e.state.HasResume {
		if err := e.handle.Seek(e.state.ResumeAt); err != nil {
			e.logger.Warn("failed to restore position", "error", err)
			e.notifier.Normalize()
		}
		e.state.HasResume = false
		e.state.ResumeAt = 0
	}
	if err := e.handle.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	e.setStatusLocked(Playing)
	e.state.Previous = false
	e.startMonitorLocked()
	return nil
}

func (e *Engine) clampLocked(pos time.Duration) time.Duration {
	limit := max(e.state.Duration-seekMargin, 0)
	return min(max(pos, 0), limit)
}

func (e *Engine) releaseLocked() {
	e.gen++
	if e.handle != nil {
		if err := e.handle.Close(); err != nil {
			e.logger.Warn("failed to close track", "error", err)
		}
		e.handle = nil
	}
	e.state.HasResume = false
	e.state.ResumeAt = 0
}

func (e *Engine) setStatusLocked(s Status) {
	e.state.Status = s
	metrics.PlaybackState.Set(float64(s))
}

// stopMonitor signals the running monitor and waits up to the join timeout for it to exit.
// It must be called with opMu held and mu released.
func (e *Engine) stopMonitor() {
	e.mu.Lock()
	e.gen++
	e.mu.Unlock()

	m := e.mon
	e.mon = nil
	if m == nil {
		return
	}
	m.cancel()
	select {
	case <-m.done:
	case <-time.After(e.joinTimeout):
		e.logger.Warn("monitor did not stop in time", "timeout", e.joinTimeout)
	}
}

// startMonitorLocked must be called with opMu and mu held.
func (e *Engine) startMonitorLocked() {
	if e.mon != nil {
		select {
		case <-e.mon.done:
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &monitor{cancel: cancel, done: make(chan struct{})}
	e.mon = m
	go e.runMonitor(ctx, e.gen, m.done)
}

func (e *Engine) runMonitor(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.tickOnce(ctx, gen) {
				return
			}
		}
	}
}

// tickOnce reports the position and hands off to an auto-advance near the end of the track.
// It returns false when the monitor should exit.
func (e *Engine) tickOnce(ctx context.Context, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil || gen != e.gen || e.handle == nil || e.closed {
		return false
	}
	if e.state.Status != Playing {
		return true
	}

	pos, err := e.handle.Position()
	if err != nil {
		e.logger.Warn("position unavailable", "error", err)
		return true
	}
	if !e.state.Detached {
		e.notifier.SongPosition(pos.Seconds())
	}
	if e.state.Duration > 0 {
		e.state.LastRatio = float64(pos) / float64(e.state.Duration)
	}

	if e.state.Loop || e.state.Previous {
		return true
	}
	if e.state.Duration-pos > e.endThreshold {
		return true
	}

	e.wg.Add(1)
	go e.autoAdvance(gen)
	return false
}

func (e *Engine) autoAdvance(gen uint64) {
	defer e.wg.Done()

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	var (
		target string
		ok     bool
	)
	if e.state.PlaylistMode {
		target, ok = e.seq.Next(&e.state)
	}
	e.mu.Unlock()

	metrics.AutoAdvances.Inc()
	if !ok {
		e.reset()
		return
	}
	if err := e.load(target, nil, true); err != nil {
		e.logger.Warn("auto-advance failed", "target", target, "error", err)
	}
}
