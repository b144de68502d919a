// Package protocol defines the wire contract between the surf client and
// the daemon: one JSON request and one JSON response per connection, each
// frame terminated by a newline so partial reads reassemble unambiguously.
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request carries one raw natural-language instruction.
type Request struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// StepResult reports the outcome of one step of a compound instruction.
// Earlier steps are not rolled back when a later one fails; the client sees
// exactly which steps stood and which failed.
type StepResult struct {
	Action  string `json:"action"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the daemon's reply.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Steps   []StepResult    `json:"steps,omitempty"`
}

// OK reports whether the response carries StatusOK.
func (r Response) OK() bool {
	return r.Status == StatusOK
}

// OKResponse builds a success response. data may be nil.
func OKResponse(message string, data any) Response {
	return Response{Status: StatusOK, Message: message, Data: MarshalData(data)}
}

// ErrorResponse builds an error response.
func ErrorResponse(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// MarshalData encodes v for the Data field. A nil v or a marshal failure
// yields nil; result payloads are best-effort, the Message is authoritative.
func MarshalData(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// WriteFrame writes v as one newline-terminated JSON frame.
func WriteFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadRequest reads one request frame.
func ReadRequest(r *bufio.Reader) (Request, error) {
	var req Request
	if err := readFrame(r, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// ReadResponse reads one response frame.
func ReadResponse(r *bufio.Reader) (Response, error) {
	var resp Response
	if err := readFrame(r, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func readFrame(r *bufio.Reader, v any) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			// A frame truncated mid-write; fall through and let decoding
			// report it.
		} else {
			return fmt.Errorf("failed to read frame: %w", err)
		}
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return nil
}
