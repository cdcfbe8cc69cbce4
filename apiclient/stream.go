package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	apitypes "github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/panel"
)

// ErrStreamClosed is returned by Stream methods after Close.
var ErrStreamClosed = errors.New("stream closed")

// Stream is an attached host connection: commands go out, reports come in.
type Stream struct {
	conn   net.Conn
	r      *bufio.Reader
	closed bool
}

// OpenStream attaches to the device as its USB host.
func (c *Client) OpenStream(ctx context.Context) (*Stream, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write([]byte("stream\x00")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Time{})
	return &Stream{conn: conn, r: bufio.NewReader(conn)}, nil
}

// WriteCommand sends one 8-byte host command.
func (s *Stream) WriteCommand(cmd []byte) error {
	if s.closed {
		return ErrStreamClosed
	}
	if len(cmd) != led.CommandSize {
		return fmt.Errorf("%w: %d bytes", led.ErrCommandSize, len(cmd))
	}
	_, err := s.conn.Write(cmd)
	return err
}

// ReadRaw blocks for the next report and returns its bytes, report id first.
// A problem response from the server, such as a second host being refused,
// is returned as *apitypes.ApiError.
func (s *Stream) ReadRaw() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	n, err := s.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if n == '{' {
		line, _ := s.r.ReadString('\n')
		var problem apitypes.ApiError
		if err := json.Unmarshal([]byte("{"+strings.TrimSpace(line)), &problem); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return nil, &problem
	}
	if n == 0 || int(n) > panel.MaxReportSize {
		return nil, fmt.Errorf("invalid report length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadReport is ReadRaw decoded into a typed report.
func (s *Stream) ReadReport() (panel.Report, error) {
	b, err := s.ReadRaw()
	if err != nil {
		return nil, err
	}
	return panel.ParseReport(b)
}

// SetReadDeadline sets the read deadline for the underlying connection.
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline for the underlying connection.
func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// Close detaches the host.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
