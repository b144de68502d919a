package protocol

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{ID: "r-1", Text: "go to example.com"}
	require.NoError(t, WriteFrame(&buf, req))

	// One frame, one newline.
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte{'\n'}))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte{'\n'}))

	got, err := ReadRequest(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestResponseFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	resp := OKResponse("Found 2 tabs", map[string]int{"count": 2})
	resp.ID = "r-1"
	resp.Steps = []StepResult{
		{Action: "open_tab", Status: StatusOK, Message: "New tab opened (tab 1)"},
		{Action: "navigate(example.com)", Status: StatusOK},
	}
	require.NoError(t, WriteFrame(&buf, resp))

	got, err := ReadResponse(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
	assert.True(t, got.OK())
	assert.Equal(t, resp.Message, got.Message)
	assert.JSONEq(t, `{"count":2}`, string(got.Data))
	assert.Equal(t, resp.Steps, got.Steps)
}

func TestSequentialFramesOnOneReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Request{Text: "first"}))
	require.NoError(t, WriteFrame(&buf, Request{Text: "second"}))

	r := bufio.NewReader(&buf)
	first, err := ReadRequest(r)
	require.NoError(t, err)
	second, err := ReadRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, "second", second.Text)
}

func TestReadRequest_Garbage(t *testing.T) {
	_, err := ReadRequest(bufio.NewReader(strings.NewReader("not json\n")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode frame")
}

func TestReadRequest_EmptyStream(t *testing.T) {
	_, err := ReadRequest(bufio.NewReader(strings.NewReader("")))
	require.Error(t, err)
}

func TestReadResponse_TruncatedFrame(t *testing.T) {
	// A frame cut off mid-write has no terminator and broken JSON.
	_, err := ReadResponse(bufio.NewReader(strings.NewReader(`{"status":"ok","mes`)))
	require.Error(t, err)
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse("tab not found")
	assert.False(t, resp.OK())
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "tab not found", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestMarshalData(t *testing.T) {
	assert.Nil(t, MarshalData(nil))
	assert.JSONEq(t, `{"a":1}`, string(MarshalData(map[string]int{"a": 1})))
	// Unmarshalable payloads degrade to no data rather than failing the reply.
	assert.Nil(t, MarshalData(func() {}))
}
