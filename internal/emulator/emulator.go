// Package emulator assembles a complete controller from a board description:
// LED and panel engines, the dispatch loops and, for split builds, the serial
// link between the USB and LED controllers.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/lwclone/clock"
	"github.com/Alia5/lwclone/dispatch"
	"github.com/Alia5/lwclone/internal/board"
	"github.com/Alia5/lwclone/internal/log"
	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/link"
	"github.com/Alia5/lwclone/panel"
	"github.com/Alia5/lwclone/queue"
)

const (
	BuildSingle = "single"
	BuildSplit  = "split"

	PanelOnUSB = "usb"
	PanelOnLED = "led"

	DefaultPWMPeriod  = time.Millisecond
	DefaultScanPeriod = 5
	DefaultLinkDepth  = queue.DefaultDepthLog2
)

// Options selects the build and its timing.
type Options struct {
	Build   string
	PanelOn string
	// PWMPeriod is the LED tick period.
	PWMPeriod time.Duration
	// ScanPeriod is the panel scan period in milliseconds.
	ScanPeriod uint32
	// LinkDepth is the log2 depth of every link queue.
	LinkDepth uint
	// ErrorRate is the probability of a line error per character on the
	// in-process link.
	ErrorRate float64

	Config dispatch.ConfigHook
	Logger *slog.Logger
	Raw    log.RawLogger
}

func (o *Options) defaults() error {
	if o.Build == "" {
		o.Build = BuildSingle
	}
	if o.PanelOn == "" {
		o.PanelOn = PanelOnUSB
	}
	if o.PWMPeriod <= 0 {
		o.PWMPeriod = DefaultPWMPeriod
	}
	if o.ScanPeriod == 0 {
		o.ScanPeriod = DefaultScanPeriod
	}
	if o.LinkDepth == 0 {
		o.LinkDepth = DefaultLinkDepth
	}
	switch {
	case o.Build != BuildSingle && o.Build != BuildSplit:
		return fmt.Errorf("unknown build %q", o.Build)
	case o.PanelOn != PanelOnUSB && o.PanelOn != PanelOnLED:
		return fmt.Errorf("unknown panel side %q", o.PanelOn)
	case o.Build == BuildSingle && o.PanelOn == PanelOnLED:
		return errors.New("a single build has no LED controller to own the panel")
	case o.ErrorRate < 0 || o.ErrorRate >= 1:
		return fmt.Errorf("error rate %v out of range [0, 1)", o.ErrorRate)
	}
	return nil
}

// splitLink is the serial link of a split build. down carries host commands
// to the LED controller, up carries panel reports back.
type splitLink struct {
	down, up     *link.Pipe
	usbTx, ledRx *queue.Queue
	ledTx, usbRx *queue.Queue
	txDown       *link.Transmitter
	rxDown       *link.Receiver
	txUp         *link.Transmitter
	rxUp         *link.Receiver
	stats        link.Stats
}

// Device is an emulated controller.
type Device struct {
	Board   *board.Board
	Pins    *Pins
	Outputs *Recorder
	LEDs    *led.Engine
	Panel   *panel.Engine
	USB     *dispatch.USBController
	// LEDSide is nil in a single build.
	LEDSide *dispatch.LEDController

	opts     Options
	logger   *slog.Logger
	usbClock *clock.Clock
	ledClock *clock.Clock
	link     *splitLink
	upSource *dispatch.QueueSource
}

// New builds a device. It does not start any goroutine.
func New(b *board.Board, opts Options) (*Device, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	pcfg, err := b.PanelConfig()
	if err != nil {
		return nil, err
	}

	d := &Device{
		Board:    b,
		Pins:     NewPins(len(pcfg.Inputs)),
		Outputs:  &Recorder{},
		opts:     opts,
		logger:   log.Component(opts.Logger, "emulator"),
		usbClock: clock.New(),
	}
	if d.LEDs, err = led.New(b.LEDConfig(), d.Outputs, opts.Logger); err != nil {
		return nil, err
	}
	if d.Panel, err = panel.New(pcfg, opts.Logger); err != nil {
		return nil, err
	}
	panelSrc := dispatch.PanelSource{Panel: d.Panel}

	if opts.Build == BuildSingle {
		d.USB = dispatch.NewUSBController(d.LEDs, opts.Config, opts.Logger, panelSrc)
		return d, nil
	}

	d.link = d.newLink()
	d.ledClock = clock.New()
	if opts.PanelOn == PanelOnLED {
		d.LEDSide = dispatch.NewLEDController(d.link.ledRx, d.link.ledTx, d.LEDs, panelSrc, opts.Logger)
		d.upSource = &dispatch.QueueSource{Queue: d.link.usbRx, Logger: log.Component(opts.Logger, "dispatch")}
		d.USB = dispatch.NewUSBController(dispatch.QueueSink{Queue: d.link.usbTx}, opts.Config, opts.Logger, d.upSource)
	} else {
		d.LEDSide = dispatch.NewLEDController(d.link.ledRx, nil, d.LEDs, nil, opts.Logger)
		d.USB = dispatch.NewUSBController(dispatch.QueueSink{Queue: d.link.usbTx}, opts.Config, opts.Logger, panelSrc)
	}
	return d, nil
}

func (d *Device) newLink() *splitLink {
	depth := d.opts.LinkDepth
	l := &splitLink{
		down:  link.NewPipe(64),
		up:    link.NewPipe(64),
		usbTx: queue.New(depth, queue.DefaultChunkSizeLog2),
		ledRx: queue.New(depth, queue.DefaultChunkSizeLog2),
		ledTx: queue.New(depth, queue.DefaultChunkSizeLog2),
		usbRx: queue.New(depth, queue.DefaultChunkSizeLog2),
	}
	if d.opts.ErrorRate > 0 {
		l.down.SetErrorRate(d.opts.ErrorRate, nil)
		l.up.SetErrorRate(d.opts.ErrorRate, nil)
	}

	opts := func(name string) []link.Option {
		o := []link.Option{link.WithLogger(d.opts.Logger), link.WithStats(&l.stats)}
		if d.opts.Raw != nil {
			o = append(o, link.WithTracer(log.Named(d.opts.Raw, name)))
		}
		return o
	}
	l.txDown = link.NewTransmitter(l.usbTx, opts("usb")...)
	l.rxUp = link.NewReceiver(l.usbRx, opts("usb")...)
	l.txUp = link.NewTransmitter(l.ledTx, opts("led")...)
	l.rxDown = link.NewReceiver(l.ledRx, opts("led")...)
	return l
}

// Build returns the build kind.
func (d *Device) Build() string { return d.opts.Build }

// PanelOn returns the controller owning the panel.
func (d *Device) PanelOn() string { return d.opts.PanelOn }

// Clock returns the USB controller clock, used to pace report polling.
func (d *Device) Clock() *clock.Clock { return d.usbClock }

func (d *Device) scanHook() func(ms uint32) {
	return clock.Every(d.opts.ScanPeriod, func() { d.Panel.Scan(d.Pins) })
}

// Run starts every tick and main-loop goroutine and blocks until ctx is done.
func (d *Device) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(name string, f func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("loop stopped", "loop", name, "error", err)
				cancel()
			}
		}()
	}
	tick := func(c *clock.Clock, hooks ...func(uint32)) func(context.Context) error {
		return func(ctx context.Context) error {
			c.Run(ctx, time.Millisecond, hooks...)
			return nil
		}
	}

	spawn("pwm", func(ctx context.Context) error {
		d.LEDs.Run(ctx, d.opts.PWMPeriod)
		return nil
	})

	if d.link == nil || d.opts.PanelOn == PanelOnUSB {
		spawn("usb clock", tick(d.usbClock, d.scanHook()))
	} else {
		spawn("usb clock", tick(d.usbClock))
	}

	if l := d.link; l != nil {
		if d.opts.PanelOn == PanelOnLED {
			spawn("led clock", tick(d.ledClock, d.scanHook()))
			spawn("uplink tx", func(ctx context.Context) error { return link.Pump(ctx, l.txUp, l.up) })
			spawn("uplink rx", func(ctx context.Context) error { return link.Listen(ctx, l.rxUp, l.up) })
		} else {
			spawn("led clock", tick(d.ledClock))
		}
		spawn("downlink tx", func(ctx context.Context) error { return link.Pump(ctx, l.txDown, l.down) })
		spawn("downlink rx", func(ctx context.Context) error { return link.Listen(ctx, l.rxDown, l.down) })
		spawn("led main", func(ctx context.Context) error { return d.LEDSide.Run(ctx, d.ledClock) })
	}

	d.logger.Info("controller running", "build", d.opts.Build, "panelOn", d.opts.PanelOn,
		"inputs", d.Pins.Len(), "leds", d.LEDs.Channels())
	<-ctx.Done()
	if d.link != nil {
		// Listen only returns once its line is closed
		_ = d.link.down.Close()
		_ = d.link.up.Close()
	}
	wg.Wait()
	return nil
}

// Stats is a snapshot of every counter of the device.
type Stats struct {
	Build    string                  `json:"build"`
	USB      dispatch.StatsSnapshot  `json:"usb"`
	LED      *dispatch.StatsSnapshot `json:"led,omitempty"`
	Link     *link.StatsSnapshot     `json:"link,omitempty"`
	Queues   map[string]QueueStats   `json:"queues,omitempty"`
	Dropped  uint64                  `json:"droppedReports"`
	Scans    uint64                  `json:"scans"`
	PWMTicks uint64                  `json:"pwmTicks"`
	Millis   uint32                  `json:"millis"`
}

type QueueStats struct {
	Level int `json:"level"`
	Depth int `json:"depth"`
}

func (d *Device) Stats() Stats {
	s := Stats{
		Build:    d.opts.Build,
		USB:      d.USB.Stats().Snapshot(),
		Scans:    d.Panel.Scans(),
		PWMTicks: d.LEDs.Snapshot().Ticks,
		Millis:   d.usbClock.Millis(),
	}
	if d.LEDSide != nil {
		ls := d.LEDSide.Stats().Snapshot()
		s.LED = &ls
	}
	if l := d.link; l != nil {
		ks := l.stats.Snapshot()
		s.Link = &ks
		s.Queues = map[string]QueueStats{}
		for name, q := range map[string]*queue.Queue{"usbTx": l.usbTx, "ledRx": l.ledRx, "ledTx": l.ledTx, "usbRx": l.usbRx} {
			s.Queues[name] = QueueStats{Level: q.Level(), Depth: q.Depth()}
		}
	}
	if d.upSource != nil {
		s.Dropped = d.upSource.Dropped.Load()
	}
	return s
}
