// Package client is the stub short-lived processes use to reach the
// daemon: dial the well-known endpoint, send one instruction, read one
// response.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/surf/pkg/protocol"
)

// ErrDaemonNotStarted reports an unreachable endpoint.
var ErrDaemonNotStarted = errors.New("daemon not started")

// DefaultTimeout bounds one full request/response exchange. Page waits on
// the daemon side can legitimately take a while, so this is generous.
const DefaultTimeout = 90 * time.Second

// Client sends instructions to a running daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// New returns a client for the daemon at socketPath.
func New(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: DefaultTimeout}
}

// SetTimeout overrides the exchange bound.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

// Send delivers one instruction and waits for the response. An unreachable
// endpoint yields ErrDaemonNotStarted; a break mid-exchange yields a
// transport error (the action may still have executed server-side).
func (c *Client) Send(text string) (protocol.Response, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("%w (socket %s)", ErrDaemonNotStarted, c.socketPath)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to set deadline: %w", err)
	}

	req := protocol.Request{ID: uuid.NewString(), Text: text}
	if err := protocol.WriteFrame(conn, req); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to send request: %w", err)
	}

	resp, err := protocol.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}
