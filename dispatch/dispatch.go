// Package dispatch contains the main loops of the two controllers: the USB
// side, which talks to the host, and the LED side, which drives the outputs.
// In a single-controller build both roles live in one USBController wired
// directly to the engines; in a split build they are connected by queues
// carried over the serial link.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/panel"
	"github.com/Alia5/lwclone/queue"
)

const (
	// CommandSetID changes the device id: [65, id, FF x5, ^id].
	CommandSetID = 65
	// CommandBootloader requests a reboot into the bootloader.
	CommandBootloader = 66

	// MinReportSize and MaxReportSize bound reports arriving over the link.
	MinReportSize = 2
	MaxReportSize = panel.MaxReportSize
)

var (
	ErrReportSize = errors.New("dispatch: invalid report size")
	ErrSetID      = errors.New("dispatch: malformed set-id command")
	ErrNoConfig   = errors.New("dispatch: configuration commands not supported")
)

// CommandSink consumes 8-byte host commands.
type CommandSink interface {
	ApplyCommand(cmd []byte) error
}

// ReportSource produces serialized panel reports.
type ReportSource interface {
	NextReport() ([]byte, bool)
}

// ConfigHook handles the configuration commands that never reach the LEDs.
type ConfigHook interface {
	SetID(id uint8) error
	EnterBootloader() error
}

// QueueSink forwards host commands into a link transmit queue.
type QueueSink struct {
	Queue *queue.Queue
}

func (s QueueSink) ApplyCommand(cmd []byte) error {
	if len(cmd) != led.CommandSize {
		return fmt.Errorf("%w: %d bytes", led.ErrCommandSize, len(cmd))
	}
	if !s.Queue.Push(cmd) {
		return queue.ErrFull
	}
	return nil
}

// QueueSource reads reports from a link receive queue. Messages outside
// MinReportSize..MaxReportSize are dropped.
type QueueSource struct {
	Queue  *queue.Queue
	Logger *slog.Logger
	// Dropped counts discarded messages.
	Dropped atomic.Uint64
}

func (s *QueueSource) NextReport() ([]byte, bool) {
	for {
		c := s.Queue.Peek()
		if c == nil {
			return nil, false
		}
		p := c.Payload()
		if len(p) < MinReportSize || len(p) > MaxReportSize {
			s.Dropped.Add(1)
			if s.Logger != nil {
				s.Logger.Warn("invalid report size", "len", len(p))
			}
			s.Queue.Release()
			continue
		}
		out := append([]byte(nil), p...)
		s.Queue.Release()
		return out, true
	}
}

// Readable forwards the queue notification so a poll loop can wait on it.
func (s *QueueSource) Readable() <-chan struct{} { return s.Queue.Readable() }

// PanelSource serializes the reports of a panel engine.
type PanelSource struct {
	Panel *panel.Engine
}

func (s PanelSource) NextReport() ([]byte, bool) {
	r, ok := s.Panel.NextReport()
	if !ok {
		return nil, false
	}
	return r.BuildReport(), true
}

// ParseSetID validates a set-id command and returns the requested id.
func ParseSetID(cmd []byte) (uint8, error) {
	if len(cmd) != led.CommandSize || cmd[0] != CommandSetID {
		return 0, ErrSetID
	}
	for _, b := range cmd[2:7] {
		if b != 0xFF {
			return 0, fmt.Errorf("%w: filler % x", ErrSetID, cmd[2:7])
		}
	}
	if cmd[7] != ^cmd[1] {
		return 0, fmt.Errorf("%w: checksum %#02x for id %d", ErrSetID, cmd[7], cmd[1])
	}
	return cmd[1], nil
}

// Stats counts controller activity.
type Stats struct {
	Commands       atomic.Uint64
	BadCommands    atomic.Uint64
	ConfigCommands atomic.Uint64
	Reports        atomic.Uint64
	TxOverflows    atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Commands       uint64 `json:"commands"`
	BadCommands    uint64 `json:"badCommands"`
	ConfigCommands uint64 `json:"configCommands"`
	Reports        uint64 `json:"reports"`
	TxOverflows    uint64 `json:"txOverflows"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Commands:       s.Commands.Load(),
		BadCommands:    s.BadCommands.Load(),
		ConfigCommands: s.ConfigCommands.Load(),
		Reports:        s.Reports.Load(),
		TxOverflows:    s.TxOverflows.Load(),
	}
}
