package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Alia5/lwclone/clock"
	"github.com/Alia5/lwclone/internal/log"
	"github.com/Alia5/lwclone/led"
)

// USBController is the host-facing side. SetReport is the host's OUT
// transfer; NextReport feeds the IN endpoint.
type USBController struct {
	mu      sync.Mutex
	leds    CommandSink
	sources []ReportSource
	config  ConfigHook
	logger  *slog.Logger
	stats   Stats
}

// NewUSBController wires a controller. Report sources are polled in order;
// config may be nil.
func NewUSBController(leds CommandSink, config ConfigHook, logger *slog.Logger, sources ...ReportSource) *USBController {
	return &USBController{
		leds:    leds,
		sources: sources,
		config:  config,
		logger:  log.Component(logger, "dispatch").With("side", "usb"),
	}
}

func (c *USBController) Stats() *Stats { return &c.stats }

// SetReport delivers one host command. Configuration commands go to the
// config hook; everything else goes to the LED sink.
func (c *USBController) SetReport(cmd []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(cmd) != led.CommandSize {
		c.stats.BadCommands.Add(1)
		return fmt.Errorf("%w: %d bytes", led.ErrCommandSize, len(cmd))
	}
	switch cmd[0] {
	case CommandSetID:
		c.stats.ConfigCommands.Add(1)
		id, err := ParseSetID(cmd)
		if err != nil {
			return err
		}
		if c.config == nil {
			return ErrNoConfig
		}
		c.logger.Info("set id", "id", id)
		return c.config.SetID(id)
	case CommandBootloader:
		c.stats.ConfigCommands.Add(1)
		if c.config == nil {
			return ErrNoConfig
		}
		c.logger.Info("bootloader requested")
		return c.config.EnterBootloader()
	}

	if err := c.leds.ApplyCommand(cmd); err != nil {
		c.stats.TxOverflows.Add(1)
		c.logger.Warn("command dropped", "error", err)
		return err
	}
	c.stats.Commands.Add(1)
	return nil
}

// NextReport returns the next report of the first source that has one.
func (c *USBController) NextReport() ([]byte, bool) {
	for _, s := range c.sources {
		if r, ok := s.NextReport(); ok {
			c.stats.Reports.Add(1)
			return r, true
		}
	}
	return nil, false
}

// Poll hands every report to emit until ctx is done or emit fails.
func (c *USBController) Poll(ctx context.Context, clk *clock.Clock, emit func(report []byte) error) error {
	var wake []<-chan struct{}
	for _, s := range c.sources {
		if r, ok := s.(interface{ Readable() <-chan struct{} }); ok {
			wake = append(wake, r.Readable())
		}
	}
	for {
		if r, ok := c.NextReport(); ok {
			if err := emit(r); err != nil {
				return err
			}
			continue
		}
		if err := clk.Idle(ctx, wake...); err != nil {
			return err
		}
	}
}
