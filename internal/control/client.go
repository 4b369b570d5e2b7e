// Package control is a client for HAProxy's runtime API, the text protocol
// served on a "stats socket". Each administrative command is one method on
// Client; arguments are rendered with Weight and the selector types, sent as
// a single ";"-terminated line, and the peer's answer is read until it closes
// the stream.
package control

import (
	"context"
	"errors"
	"sync"

	cerrors "github.com/mir00r/airtraffic/internal/errors"
	"github.com/mir00r/airtraffic/pkg/logger"
)

// Client executes commands on one control connection, one at a time. After a
// transport failure the client is unusable and must be rebuilt.
type Client struct {
	transport Transport
	logger    *logger.Logger

	mu     sync.Mutex
	broken error
	closed bool
}

// New dials the control socket described by opts
func New(ctx context.Context, opts Options, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	transport, err := Dial(ctx, opts, log)
	if err != nil {
		return nil, err
	}
	return &Client{
		transport: transport,
		logger:    log.ControlLogger(opts.Address),
	}, nil
}

// NewWithTransport builds a client on an already established transport
func NewWithTransport(transport Transport, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		transport: transport,
		logger:    log.WithField("component", "control"),
	}
}

// Close releases the connection. Calling Close more than once is safe.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.transport.Close()
}

// Err returns the transport failure that broke the client, if any
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

// request sends cmd terminated by ";" and returns the raw response
func (c *Client) request(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", cerrors.NewClientClosedError()
	}
	if c.broken != nil {
		return "", cerrors.NewClientBrokenError(c.broken)
	}

	log := c.logger.WithField("command", cmd)
	log.Debug("Sending command")

	response, err := c.transport.RoundTrip(ctx, cmd+";")
	if err != nil {
		var cErr *cerrors.ControlError
		if !errors.As(err, &cErr) {
			err = cerrors.NewTransportError(cmd, err)
		}
		c.broken = err
		log.WithError(err).Error("Command failed")
		return "", err
	}

	log.WithField("bytes", len(response)).Debug("Received response")
	return response, nil
}
