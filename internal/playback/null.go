package playback

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// NullOutput keeps time without producing sound. Track length comes from Probe when set,
// otherwise every track lasts Default.
type NullOutput struct {
	Default time.Duration
	Probe   func(path string) (float64, error)
}

func (o *NullOutput) Open(path string) (Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dur := o.Default
	if o.Probe != nil {
		if secs, err := o.Probe(path); err == nil && secs > 0 {
			dur = fromSeconds(secs)
		}
	}
	return &nullHandle{duration: dur, now: time.Now}, nil
}

type nullHandle struct {
	mu       sync.Mutex
	duration time.Duration
	offset   time.Duration
	started  time.Time
	playing  bool
	loop     bool
	closed   bool
	now      func() time.Time
}

func (h *nullHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("handle closed")
	}
	if !h.playing {
		h.started = h.now()
		h.playing = true
	}
	return nil
}

func (h *nullHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.offset = h.positionLocked()
	h.playing = false
	return nil
}

func (h *nullHandle) Seek(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.offset = min(max(pos, 0), h.duration)
	h.started = h.now()
	return nil
}

func (h *nullHandle) Position() (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked(), nil
}

func (h *nullHandle) positionLocked() time.Duration {
	pos := h.offset
	if h.playing {
		pos += h.now().Sub(h.started)
	}
	if h.loop && h.duration > 0 {
		return pos % h.duration
	}
	return min(pos, h.duration)
}

func (h *nullHandle) Duration() time.Duration {
	return h.duration
}

func (h *nullHandle) SetLoop(loop bool) {
	h.mu.Lock()
	h.loop = loop
	h.mu.Unlock()
}

func (h *nullHandle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.playing = false
	h.mu.Unlock()
	return nil
}
