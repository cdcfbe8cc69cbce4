package link

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Alia5/lwclone/queue"
)

// CharWriter is the transmit half of a 9-bit serial line.
type CharWriter interface {
	WriteChar(c Char) error
}

// CharReader is the receive half of a 9-bit serial line. ReadChar returns an
// error wrapping ErrLine for a character received with a line error, and
// io.EOF once the line is closed.
type CharReader interface {
	ReadChar() (Char, error)
}

// Pump drains t into w whenever its queue becomes readable. It plays the role
// of the transmit-ready interrupt and returns when ctx is done or w fails.
func Pump(ctx context.Context, t *Transmitter, w CharWriter) error {
	for {
		for {
			c, ok := t.Next()
			if !ok {
				break
			}
			if err := w.WriteChar(c); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					return nil
				}
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.q.Readable():
		}
	}
}

// WriteFrames synchronously frames msgs onto w. It is meant for one-shot
// senders that have no transmit goroutine of their own.
func WriteFrames(w CharWriter, msgs [][]byte, opts ...Option) error {
	q := queue.NewDefault()
	t := NewTransmitter(q, opts...)
	for i, m := range msgs {
		if !q.Push(m) {
			return fmt.Errorf("message %d (%d bytes): %w", i, len(m), ErrInvalidLength)
		}
		for {
			c, ok := t.Next()
			if !ok {
				break
			}
			if err := w.WriteChar(c); err != nil {
				return fmt.Errorf("write message %d: %w", i, err)
			}
		}
	}
	return nil
}

// Listen feeds every character read from src into r. It plays the role of the
// receive interrupt and returns nil once src reports io.EOF. ReadChar is not
// interruptible, so callers stop Listen by closing src.
func Listen(ctx context.Context, r *Receiver, src CharReader) error {
	for ctx.Err() == nil {
		c, err := src.ReadChar()
		if err != nil {
			if errors.Is(err, ErrLine) {
				r.LineError()
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		_ = r.Receive(c)
	}
	return ctx.Err()
}
