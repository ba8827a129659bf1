package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/channel"
	"github.com/desertthunder/ytmp/internal/playback"
	"github.com/desertthunder/ytmp/internal/shared"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultPollInterval     = 250 * time.Millisecond
)

type ClientOpts struct {
	CommandAddr  string // service command address, e.g. localhost:3000
	EventAddr    string // address events are received on, e.g. localhost:3002
	PollInterval time.Duration
	Logger       *log.Logger
}

// Client speaks to the service the way the UI does: commands out, events in.
type Client struct {
	conn         net.Conn
	eventAddr    string
	pollInterval time.Duration
	logger       *log.Logger

	mu     sync.Mutex
	events net.PacketConn
}

// NewClient dials the command address. The event address is bound on first use so that
// send-only commands never compete with a running UI for its port.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	conn, err := net.Dial("udp", opts.CommandAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", opts.CommandAddr, err)
	}

	return &Client{
		conn:         conn,
		eventAddr:    opts.EventAddr,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
	}, nil
}

// Send writes one command.
func (c *Client) Send(kind channel.Kind, payload any) error {
	data, err := channel.Encode(kind, payload)
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}
	c.logger.Debug("sent", "kind", kind)
	return nil
}

// Bind starts receiving events and returns the bound address.
func (c *Client) Bind() (net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events == nil {
		pc, err := net.ListenPacket("udp", c.eventAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen for events on %s: %w", c.eventAddr, err)
		}
		c.events = pc
	}
	return c.events.LocalAddr(), nil
}

// next waits up to wait for one event. It returns false on timeout.
func (c *Client) next(buf []byte, wait time.Duration) (channel.Message, bool, error) {
	if err := c.events.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return channel.Message{}, false, err
	}

	n, _, err := c.events.ReadFrom(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return channel.Message{}, false, nil
		}
		return channel.Message{}, false, fmt.Errorf("failed to read event: %w", err)
	}

	msg, err := channel.Decode(buf[:n])
	if err != nil {
		c.logger.Warn("ignoring malformed event", "error", err)
		return channel.Message{}, false, nil
	}
	return msg, true, nil
}

// Watch calls fn for every event until ctx is cancelled or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(channel.Message) error) error {
	if _, err := c.Bind(); err != nil {
		return err
	}

	buf := make([]byte, 64*1024)
	for ctx.Err() == nil {
		msg, ok, err := c.next(buf, c.pollInterval)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// Handshake asks the service whether it is playing and polls for the answer.
//
// When no answer arrives within timeout the service is treated as idle; it may have crashed or
// not started yet. Other events received meanwhile are discarded.
func (c *Client) Handshake(ctx context.Context, timeout time.Duration) (playback.Status, error) {
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	if _, err := c.Bind(); err != nil {
		return playback.Idle, err
	}
	if err := c.Send(channel.KindAwake, nil); err != nil {
		return playback.Idle, err
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return playback.Idle, err
		}

		wait := min(c.pollInterval, time.Until(deadline))
		if wait <= 0 {
			c.logger.Info("no handshake reply, assuming idle", "timeout", timeout)
			return playback.Idle, nil
		}

		msg, ok, err := c.next(buf, wait)
		if err != nil {
			return playback.Idle, err
		}
		if !ok || msg.Kind != channel.KindAreWe {
			continue
		}

		var reply channel.TextPayload
		if err := msg.Into(&reply); err != nil {
			c.logger.Warn("ignoring malformed reply", "error", err)
			continue
		}
		return playback.ParseReply(reply.Text), nil
	}
}

// Close releases both sockets.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.conn.Close()
	if c.events != nil {
		err = errors.Join(err, c.events.Close())
		c.events = nil
	}
	return err
}
