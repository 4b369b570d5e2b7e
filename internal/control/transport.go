package control

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	cerrors "github.com/mir00r/airtraffic/internal/errors"
	"github.com/mir00r/airtraffic/pkg/logger"
)

// Transport sends one command line and returns everything the peer writes
// back before closing. Implementations need not be safe for concurrent use;
// Client serializes calls.
type Transport interface {
	RoundTrip(ctx context.Context, line string) (string, error)
	Close() error
}

// ConnectionPolicy controls whether a connection outlives a command
type ConnectionPolicy string

const (
	// PolicyPersistent reuses the connection opened at construction for
	// every command. A response ends only when the peer closes the stream,
	// so against HAProxy's non-interactive CLI the connection serves exactly
	// one command: the next write fails and the client is broken from then on.
	PolicyPersistent ConnectionPolicy = "persistent"
	// PolicyPerCommand closes the connection after each response and dials
	// a fresh one for the next command. HAProxy's non-interactive CLI closes
	// the socket after answering, so this is what a real peer expects.
	PolicyPerCommand ConnectionPolicy = "per_command"
)

// ParseConnectionPolicy validates a policy name
func ParseConnectionPolicy(s string) (ConnectionPolicy, error) {
	switch ConnectionPolicy(strings.ToLower(s)) {
	case PolicyPersistent:
		return PolicyPersistent, nil
	case PolicyPerCommand, "":
		return PolicyPerCommand, nil
	default:
		return "", fmt.Errorf("unknown connection policy %q", s)
	}
}

// Options configures a SocketTransport
type Options struct {
	Network        string
	Address        string
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	Policy         ConnectionPolicy
	AppendNewline  bool
}

// DefaultOptions returns options for a unix socket at address
func DefaultOptions(address string) Options {
	return Options{
		Network:        "unix",
		Address:        address,
		DialTimeout:    5 * time.Second,
		CommandTimeout: 30 * time.Second,
		Policy:         PolicyPerCommand,
	}
}

// SocketTransport talks to the control socket over a net.Conn
type SocketTransport struct {
	opts   Options
	dialer net.Dialer
	logger *logger.Logger

	mu   sync.Mutex
	conn net.Conn
}

// Dial opens the first connection. Failure is returned as a connection
// error; nothing is retried.
func Dial(ctx context.Context, opts Options, log *logger.Logger) (*SocketTransport, error) {
	if opts.Network == "" {
		opts.Network = "unix"
	}
	if opts.Policy == "" {
		opts.Policy = PolicyPerCommand
	}
	if log == nil {
		log = logger.Discard()
	}

	t := &SocketTransport{
		opts:   opts,
		dialer: net.Dialer{Timeout: opts.DialTimeout},
		logger: log.TransportLogger(opts.Network, opts.Address),
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	t.conn = conn
	return t, nil
}

func (t *SocketTransport) dial(ctx context.Context) (net.Conn, error) {
	conn, err := t.dialer.DialContext(ctx, t.opts.Network, t.opts.Address)
	if err != nil {
		t.logger.WithError(err).Error("Failed to connect to control socket")
		return nil, cerrors.NewConnectionError(t.opts.Address, err)
	}
	t.logger.Debug("Connected to control socket")
	return conn, nil
}

// RoundTrip writes line, then reads until the peer closes the stream
func (t *SocketTransport) RoundTrip(ctx context.Context, line string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn := t.conn
	if conn == nil {
		var err error
		if conn, err = t.dial(ctx); err != nil {
			return "", err
		}
		t.conn = conn
	}

	if t.opts.Policy == PolicyPerCommand {
		defer t.closeLocked()
	}

	deadline := time.Time{}
	if t.opts.CommandTimeout > 0 {
		deadline = time.Now().Add(t.opts.CommandTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	// Unblock pending I/O when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if t.opts.AppendNewline {
		line += "\n"
	}
	if _, err := io.WriteString(conn, line); err != nil {
		return "", t.ctxErr(ctx, err)
	}

	response, err := io.ReadAll(conn)
	if err != nil {
		return "", t.ctxErr(ctx, err)
	}
	return string(response), nil
}

func (t *SocketTransport) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

// Close releases the current connection, if any
func (t *SocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

func (t *SocketTransport) closeLocked() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
