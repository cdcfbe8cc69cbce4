package dispatch

import (
	"context"
	"log/slog"

	"github.com/Alia5/lwclone/clock"
	"github.com/Alia5/lwclone/internal/log"
	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/queue"
)

// LEDController is the main loop of the LED side of a split build. It applies
// commands received over the link and, when it owns the panel, sends panel
// reports back.
type LEDController struct {
	rx      *queue.Queue
	tx      *queue.Queue
	leds    CommandSink
	reports ReportSource
	logger  *slog.Logger
	stats   Stats
}

// NewLEDController wires a controller. tx and reports may both be nil when
// the panel lives on the USB side.
func NewLEDController(rx, tx *queue.Queue, leds CommandSink, reports ReportSource, logger *slog.Logger) *LEDController {
	return &LEDController{
		rx:      rx,
		tx:      tx,
		leds:    leds,
		reports: reports,
		logger:  log.Component(logger, "dispatch").With("side", "led"),
	}
}

func (c *LEDController) Stats() *Stats { return &c.stats }

// Step runs one iteration of the loop and reports whether it did any work.
// A pending command always goes first; otherwise one panel report is queued.
func (c *LEDController) Step() bool {
	if msg := c.rx.Peek(); msg != nil {
		switch p := msg.Payload(); {
		case len(p) != led.CommandSize:
			c.stats.BadCommands.Add(1)
			c.logger.Warn("invalid framesize", "len", len(p))
		default:
			if err := c.leds.ApplyCommand(p); err != nil {
				c.stats.BadCommands.Add(1)
				c.logger.Warn("command rejected", "error", err)
				break
			}
			c.stats.Commands.Add(1)
		}
		c.rx.Release()
		return true
	}
	if c.reports == nil || c.tx == nil {
		return false
	}
	r, ok := c.reports.NextReport()
	if !ok {
		return false
	}
	if !c.tx.Push(r) {
		c.stats.TxOverflows.Add(1)
		c.logger.Warn("tx buffer overflow", "report", r)
		return true
	}
	c.stats.Reports.Add(1)
	return true
}

// Run loops Step until ctx is done, idling on the clock when there is
// nothing to do.
func (c *LEDController) Run(ctx context.Context, clk *clock.Clock) error {
	for {
		if c.Step() {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		if err := clk.Idle(ctx, c.rx.Readable()); err != nil {
			return err
		}
	}
}
