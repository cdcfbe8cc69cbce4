// Package uart drives a host serial port as the transmit half of a 9-bit link.
//
// Common USB serial adapters have no 9-bit mode, so the ninth bit is sent as
// the parity bit: mark parity for frame-start characters, space parity for
// payload characters. The port is drained before every parity switch so that
// no queued byte goes out with the wrong ninth bit.
package uart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.bug.st/serial"

	"github.com/Alia5/lwclone/internal/log"
	"github.com/Alia5/lwclone/link"
)

// Port is the subset of serial.Port used by Line.
type Port interface {
	SetMode(mode *serial.Mode) error
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

// Line writes link characters to a serial port.
type Line struct {
	port   Port
	mode   serial.Mode
	marked bool
	logger *slog.Logger
}

// Open opens name at baud with space parity.
func Open(name string, baud int, logger *slog.Logger) (*Line, error) {
	mode := serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.SpaceParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, &mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return New(p, mode, logger), nil
}

// New wraps an already opened port configured with mode.
func New(p Port, mode serial.Mode, logger *slog.Logger) *Line {
	return &Line{
		port:   p,
		mode:   mode,
		marked: mode.Parity == serial.MarkParity,
		logger: log.Component(logger, "uart"),
	}
}

// WriteChar implements link.CharWriter.
func (l *Line) WriteChar(c link.Char) error {
	if c.IsStart() != l.marked {
		if err := l.setMarker(c.IsStart()); err != nil {
			return err
		}
	}
	if _, err := l.port.Write([]byte{c.Byte()}); err != nil {
		return fmt.Errorf("write %v: %w", c, err)
	}
	return nil
}

func (l *Line) setMarker(on bool) error {
	if err := l.port.Drain(); err != nil {
		return fmt.Errorf("drain before parity switch: %w", err)
	}
	l.mode.Parity = serial.SpaceParity
	if on {
		l.mode.Parity = serial.MarkParity
	}
	if err := l.port.SetMode(&l.mode); err != nil {
		return fmt.Errorf("set parity: %w", err)
	}
	l.marked = on
	l.logger.Log(context.Background(), log.LevelTrace, "parity switched", "mark", on)
	return nil
}

// Close drains and closes the port.
func (l *Line) Close() error {
	return errors.Join(l.port.Drain(), l.port.Close())
}
