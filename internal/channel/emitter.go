package channel

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/shared"
)

const DefaultQueueSize = 256

type EmitterOpts struct {
	Addr      string // UI event address, e.g. localhost:3002
	QueueSize int
	Logger    *log.Logger
}

// Emitter sends events to the UI from a single writer goroutine.
//
// Enqueueing never blocks: when the queue is full the event is dropped and counted. It satisfies
// both the playback and the download notifier interfaces.
type Emitter struct {
	conn   net.Conn
	queue  chan outbound
	logger *log.Logger
	once   sync.Once
}

type outbound struct {
	kind Kind
	data []byte
}

// NewEmitter dials the UI's event address. UDP dialing never waits for a peer, so the UI may
// start later.
func NewEmitter(opts EmitterOpts) (*Emitter, error) {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	conn, err := net.Dial("udp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial event address %s: %w", opts.Addr, err)
	}

	return &Emitter{
		conn:   conn,
		queue:  make(chan outbound, opts.QueueSize),
		logger: opts.Logger,
	}, nil
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.flush()
			return nil
		case msg := <-e.queue:
			e.write(msg)
		}
	}
}

func (e *Emitter) flush() {
	for {
		select {
		case msg := <-e.queue:
			e.write(msg)
		default:
			return
		}
	}
}

func (e *Emitter) write(msg outbound) {
	if _, err := e.conn.Write(msg.data); err != nil {
		// Nobody listening yet is normal while the UI is in the background.
		e.logger.Debug("event not delivered", "kind", msg.kind, "error", err)
		return
	}
	metrics.EventsEmitted.WithLabelValues(string(msg.kind)).Inc()
}

// Emit queues one event.
func (e *Emitter) Emit(kind Kind, payload any) {
	data, err := Encode(kind, payload)
	if err != nil {
		e.logger.Error("failed to encode event", "kind", kind, "error", err)
		return
	}

	select {
	case e.queue <- outbound{kind: kind, data: data}:
	default:
		metrics.EventsDropped.Inc()
		e.logger.Warn("event queue full, dropping event", "kind", kind)
	}
}

// Close releases the socket. Events still queued are discarded.
func (e *Emitter) Close() error {
	var err error
	e.once.Do(func() { err = e.conn.Close() })
	return err
}

func (e *Emitter) SetSlider(duration float64) { e.Emit(KindSetSlider, ValuePayload{Value: duration}) }
func (e *Emitter) SongPosition(pos float64) { e.Emit(KindSongPosition, ValuePayload{Value: pos}) }
func (e *Emitter) UpdateImage(path string) { e.Emit(KindUpdateImage, TextPayload{Text: path}) }
func (e *Emitter) SongNotFound(name string) { e.Emit(KindSongNotFound, TextPayload{Text: name}) }
func (e *Emitter) ResetGUI() { e.Emit(KindResetGUI, nil) }
func (e *Emitter) AreWe(reply string) { e.Emit(KindAreWe, TextPayload{Text: reply}) }
func (e *Emitter) Normalize() { e.Emit(KindNormalize, nil) }
func (e *Emitter) DataInfo(text string) { e.Emit(KindDataInfo, TextPayload{Text: text}) }
func (e *Emitter) Controls(action string) { e.Emit(KindControls, TextPayload{Text: action}) }

func (e *Emitter) FileDownloaded(ok bool, path, reason string) {
	e.Emit(KindFileDownloaded, DownloadedPayload{OK: ok, Path: path, Reason: reason})
}
