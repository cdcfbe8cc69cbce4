package link

import (
	"log/slog"

	"github.com/Alia5/lwclone/internal/log"
)

// Tracer receives a copy of every complete frame (length byte included).
// in is true for received frames.
type Tracer interface {
	Log(in bool, data []byte)
}

type config struct {
	logger *slog.Logger
	trace  Tracer
	stats  *Stats
}

// Option configures a Transmitter or Receiver.
type Option func(*config)

// WithLogger sets the diagnostic sink.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithTracer sets the frame tracer.
func WithTracer(t Tracer) Option { return func(c *config) { c.trace = t } }

// WithStats shares a counter set, typically between both ends of one controller.
func WithStats(s *Stats) Option { return func(c *config) { c.stats = s } }

func buildConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		o(&c)
	}
	c.logger = log.Component(c.logger, "link")
	if c.stats == nil {
		c.stats = &Stats{}
	}
	return c
}
