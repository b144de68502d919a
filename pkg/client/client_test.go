package client

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surf/pkg/protocol"
)

// serveOnce answers a single exchange on a throwaway socket with resp.
func serveOnce(t *testing.T, resp protocol.Response) (socketPath string, received <-chan protocol.Request) {
	t.Helper()
	socketPath = filepath.Join(t.TempDir(), "surfd.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	reqCh := make(chan protocol.Request, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		req, err := protocol.ReadRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}
		reqCh <- req
		resp.ID = req.ID
		_ = protocol.WriteFrame(conn, resp)
	}()
	return socketPath, reqCh
}

func TestSend(t *testing.T) {
	socket, received := serveOnce(t, protocol.OKResponse("Navigated to https://example.com", nil))

	c := New(socket)
	resp, err := c.Send("go to example.com")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "Navigated to https://example.com", resp.Message)

	req := <-received
	assert.Equal(t, "go to example.com", req.Text)
	assert.NotEmpty(t, req.ID, "request carries a correlation id")
	assert.Equal(t, req.ID, resp.ID)
}

func TestSend_DaemonNotStarted(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.Send("list tabs")
	assert.ErrorIs(t, err, ErrDaemonNotStarted)
}

func TestSend_ConnectionDroppedMidExchange(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "surfd.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		// Hang up without answering.
		conn.Close()
	}()

	c := New(socketPath)
	c.SetTimeout(2 * time.Second)
	_, err = c.Send("list tabs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDaemonNotStarted)
}

func TestSetTimeout(t *testing.T) {
	c := New("ignored")
	c.SetTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.timeout)

	// Non-positive values keep the previous bound.
	c.SetTimeout(0)
	assert.Equal(t, 5*time.Second, c.timeout)
	c.SetTimeout(-time.Second)
	assert.Equal(t, 5*time.Second, c.timeout)
}

func TestRender_OK(t *testing.T) {
	out := Render(protocol.OKResponse("Navigated to https://example.com", nil))
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "Navigated to https://example.com")
}

func TestRender_Error(t *testing.T) {
	out := Render(protocol.ErrorResponse("tab not found"))
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "tab not found")
}

func TestRender_Steps(t *testing.T) {
	resp := protocol.ErrorResponse("1 of 2 steps completed; click(#go) failed: element detached")
	resp.Steps = []protocol.StepResult{
		{Action: "navigate(example.com)", Status: protocol.StatusOK, Message: "Navigated to https://example.com"},
		{Action: "click(#go)", Status: protocol.StatusError, Message: "element detached"},
	}

	out := Render(resp)
	assert.Contains(t, out, "navigate(example.com)")
	assert.Contains(t, out, "click(#go)")
	assert.Contains(t, out, "element detached")
}

func TestRender_TabListing(t *testing.T) {
	resp := protocol.OKResponse("Found 2 tabs", map[string]any{
		"tabs": []map[string]any{
			{"index": 1, "id": 1, "title": "Example", "url": "https://example.com", "active": false},
			{"index": 2, "id": 2, "title": "Go", "url": "https://golang.org", "active": true},
		},
	})

	out := Render(resp)
	assert.Contains(t, out, "1. Example")
	assert.Contains(t, out, "2. Go")
	assert.Contains(t, out, "https://golang.org")
}

func TestRender_JSONData(t *testing.T) {
	resp := protocol.OKResponse("Script executed", map[string]any{"result": 42})
	out := Render(resp)
	assert.Contains(t, out, "Script executed")
	assert.Contains(t, out, "result")
	assert.Contains(t, out, "42")
}
