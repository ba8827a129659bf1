package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/metrics"
	"github.com/desertthunder/ytmp/internal/shared"
)

const maxDatagram = 64 * 1024

// Handler runs one decoded command.
type Handler interface {
	Dispatch(ctx context.Context, msg Message) error
}

type ListenerOpts struct {
	Addr    string // command address, e.g. localhost:3000
	Handler Handler
	Logger  *log.Logger
}

// Listener receives commands and hands them to its [Handler] one at a time, in arrival order.
type Listener struct {
	conn    net.PacketConn
	handler Handler
	logger  *log.Logger
}

// Listen binds the command address.
func Listen(opts ListenerOpts) (*Listener, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	conn, err := net.ListenPacket("udp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
	}

	return &Listener{conn: conn, handler: opts.Handler, logger: opts.Logger}, nil
}

// Addr is the bound address, useful when listening on port 0.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled. Malformed messages and handler failures are
// logged and counted; they never stop the loop.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.conn.Close() })
	defer stop()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}

		msg, err := Decode(buf[:n])
		if err != nil {
			metrics.MessagesRejected.WithLabelValues("malformed").Inc()
			l.logger.Warn("dropping malformed message", "from", from, "error", err)
			continue
		}

		l.handle(ctx, msg)
	}
}

func (l *Listener) handle(ctx context.Context, msg Message) {
	err := l.handler.Dispatch(ctx, msg)
	switch {
	case errors.Is(err, ErrUnknownKind):
		metrics.MessagesRejected.WithLabelValues("unknown_kind").Inc()
		l.logger.Warn("dropping message", "error", err)
		return
	case errors.Is(err, shared.ErrProtocolMalformed):
		metrics.MessagesRejected.WithLabelValues("malformed").Inc()
		l.logger.Warn("dropping malformed message", "kind", msg.Kind, "error", err)
		return
	}

	metrics.MessagesReceived.WithLabelValues(string(msg.Kind)).Inc()
	if err != nil {
		metrics.MessagesRejected.WithLabelValues("handler_error").Inc()
		l.logger.Warn("command failed", "kind", msg.Kind, "error", err)
	}
}

// Close releases the socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}
