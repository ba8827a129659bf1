package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	DefaultSampleRate = beep.SampleRate(44100)
	speakerBuffer     = 100 * time.Millisecond
	resampleQuality   = 4
)

// BeepOutput plays tracks through the default audio device.
type BeepOutput struct {
	sampleRate beep.SampleRate
	once       sync.Once
	initErr    error
}

// NewBeepOutput returns an output mixing at sampleRate. The speaker is initialised on first use.
func NewBeepOutput(sampleRate int) *BeepOutput {
	sr := DefaultSampleRate
	if sampleRate > 0 {
		sr = beep.SampleRate(sampleRate)
	}
	return &BeepOutput{sampleRate: sr}
}

func (o *BeepOutput) init() error {
	o.once.Do(func() {
		if err := speaker.Init(o.sampleRate, o.sampleRate.N(speakerBuffer)); err != nil {
			o.initErr = fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
		}
	})
	return o.initErr
}

func (o *BeepOutput) Open(path string) (Handle, error) {
	if err := o.init(); err != nil {
		return nil, err
	}

	f, source, format, err := decode(path)
	if err != nil {
		return nil, err
	}

	looped := &loopStreamer{source: source}
	var stream beep.Streamer = looped
	if format.SampleRate != o.sampleRate {
		stream = beep.Resample(resampleQuality, format.SampleRate, o.sampleRate, looped)
	}

	return &beepHandle{
		file:   f,
		source: source,
		format: format,
		loop:   looped,
		ctrl:   &beep.Ctrl{Streamer: stream, Paused: true},
	}, nil
}

// ProbeDuration decodes just enough of path to report its length in seconds.
func ProbeDuration(path string) (float64, error) {
	f, source, format, err := decode(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer source.Close()
	return format.SampleRate.D(source.Len()).Seconds(), nil
}

func decode(path string) (*os.File, beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".flac", ".ogg", ".oga", ".wav":
	default:
		return nil, nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, beep.Format{}, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var (
		source beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		source, format, err = mp3.Decode(f)
	case ".flac":
		source, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		source, format, err = vorbis.Decode(f)
	case ".wav":
		source, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return f, source, format, nil
}

// loopStreamer rewinds its source when exhausted while looping is on.
type loopStreamer struct {
	source beep.StreamSeekCloser
	loop   atomic.Bool
}

func (l *loopStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		n, ok := l.source.Stream(samples[filled:])
		filled += n
		if ok && n > 0 {
			continue
		}
		if !l.loop.Load() || l.source.Len() == 0 {
			break
		}
		if err := l.source.Seek(0); err != nil {
			break
		}
	}
	return filled, filled > 0
}

func (l *loopStreamer) Err() error {
	return l.source.Err()
}

type beepHandle struct {
	file    *os.File
	source  beep.StreamSeekCloser
	format  beep.Format
	loop    *loopStreamer
	ctrl    *beep.Ctrl
	started bool
}

func (h *beepHandle) Play() error {
	speaker.Lock()
	h.ctrl.Paused = false
	started := h.started
	h.started = true
	speaker.Unlock()

	if !started {
		speaker.Play(h.ctrl)
	}
	return nil
}

func (h *beepHandle) Pause() error {
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (h *beepHandle) Seek(pos time.Duration) error {
	n := h.format.SampleRate.N(pos)
	speaker.Lock()
	defer speaker.Unlock()
	if last := h.source.Len() - 1; n > last {
		n = max(last, 0)
	}
	return h.source.Seek(max(n, 0))
}

func (h *beepHandle) Position() (time.Duration, error) {
	speaker.Lock()
	defer speaker.Unlock()
	if err := h.source.Err(); err != nil {
		return 0, err
	}
	return h.format.SampleRate.D(h.source.Position()), nil
}

func (h *beepHandle) Duration() time.Duration {
	return h.format.SampleRate.D(h.source.Len())
}

func (h *beepHandle) SetLoop(loop bool) {
	h.loop.loop.Store(loop)
}

func (h *beepHandle) Close() error {
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()

	err := h.source.Close()
	h.file.Close()
	return err
}
