// Package led implements the soft-PWM animation engine.
//
// Host commands arrive on the main loop through Apply. Tick is called from the
// PWM timer goroutine; it owns the PWM counter, the animation phase and the
// per-channel levels. Command state crosses between the two through atomic
// words only: the enable mask, one packed word of mode bytes per bank and the
// phase step.
package led

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Alia5/lwclone/internal/log"
)

const (
	MaxChannels = 32
	BankSize    = 8
	NumBanks    = MaxChannels / BankSize

	// CommandSize is the length of every host command.
	CommandSize = 8
	// StateCommand is the first byte of a state update; any other value
	// starts a profile update.
	StateCommand = 64

	DefaultMaxBrightness uint8 = 49
	DefaultPulseSpeed    uint8 = 2

	// PhaseStepUnit is the phase increment per PWM cycle for pulse speed 1.
	PhaseStepUnit = 128
)

// ErrCommandSize is returned for host commands that are not CommandSize bytes.
var ErrCommandSize = errors.New("led: invalid command size")

// Output receives the pin level mask after every tick. Bit i is the level of
// the pin driven by channel i, inversion already applied.
type Output interface {
	WriteLevels(levels uint32)
}

// OutputFunc adapts a function to Output.
type OutputFunc func(levels uint32)

func (f OutputFunc) WriteLevels(levels uint32) { f(levels) }

// Config describes the LED hardware of a board.
type Config struct {
	// Channels is the number of wired LEDs, at most MaxChannels.
	Channels int
	// MaxBrightness is the PWM resolution; a constant mode of MaxBrightness
	// is always on. Zero selects DefaultMaxBrightness.
	MaxBrightness uint8
	// Inverted has bit i set when channel i is active low.
	Inverted uint32
}

// Engine is the soft-PWM engine for up to 32 channels.
type Engine struct {
	channels int
	banks    int
	full     uint8
	inverted uint32
	out      Output
	logger   *slog.Logger

	enabled atomic.Uint32
	modes   [NumBanks]atomic.Uint64
	step    atomic.Uint32
	phase   atomic.Uint32
	ticks   atomic.Uint64

	cursor int // next profile bank, main loop only

	// PWM tick state
	counter int
	t       uint16
	levels  [MaxChannels]uint8
}

// New returns an engine with all channels disabled.
func New(cfg Config, out Output, logger *slog.Logger) (*Engine, error) {
	if cfg.Channels < 1 || cfg.Channels > MaxChannels {
		return nil, fmt.Errorf("led: channel count %d out of range 1..%d", cfg.Channels, MaxChannels)
	}
	full := cfg.MaxBrightness
	if full == 0 {
		full = DefaultMaxBrightness
	}
	if full >= ModeTriangle {
		return nil, fmt.Errorf("led: max brightness %d overlaps animated modes", full)
	}
	e := &Engine{
		channels: cfg.Channels,
		banks:    (cfg.Channels + BankSize - 1) / BankSize,
		full:     full,
		inverted: cfg.Inverted & channelMask(cfg.Channels),
		out:      out,
		logger:   log.Component(logger, "led"),
	}
	e.step.Store(uint32(DefaultPulseSpeed) * PhaseStepUnit)
	return e, nil
}

func channelMask(n int) uint32 {
	if n >= 32 {
		return ^uint32(0)
	}
	return uint32(1)<<n - 1
}

// Channels returns the number of configured channels.
func (e *Engine) Channels() int { return e.channels }

// MaxBrightness returns the PWM resolution.
func (e *Engine) MaxBrightness() uint8 { return e.full }

// ApplyCommand validates and applies one host command.
func (e *Engine) ApplyCommand(cmd []byte) error {
	if len(cmd) != CommandSize {
		return fmt.Errorf("%w: %d bytes", ErrCommandSize, len(cmd))
	}
	e.Apply([CommandSize]byte(cmd))
	return nil
}

// Apply applies one host command. A state update sets the enable bits and the
// pulse speed and rewinds the profile cursor; any other command loads the
// modes of the bank under the cursor and advances it.
func (e *Engine) Apply(cmd [CommandSize]byte) {
	if cmd[0] == StateCommand {
		e.applyState(cmd[1:6])
		e.cursor = 0
		return
	}
	e.applyProfile(e.cursor, cmd)
	e.cursor = (e.cursor + 1) % NumBanks
}

func (e *Engine) applyState(b []byte) {
	var mask uint32
	for k := 0; k < e.banks; k++ {
		mask |= uint32(b[k]) << (8 * k)
	}
	e.enabled.Store(mask & channelMask(e.channels))

	speed := b[4]
	if speed > 7 {
		speed = 7
	}
	if speed == 0 {
		speed = 1
	}
	e.step.Store(uint32(speed) * PhaseStepUnit)
	e.logger.Debug("state update", "enabled", fmt.Sprintf("%08x", mask), "pulseSpeed", speed)
}

func (e *Engine) applyProfile(bank int, modes [CommandSize]byte) {
	if bank >= e.banks {
		return
	}
	var w uint64
	for i, m := range modes {
		w |= uint64(m) << (8 * i)
	}
	e.modes[bank].Store(w)
	e.logger.Debug("profile update", "bank", bank, "modes", modes)
}

func (e *Engine) mode(ch int) uint8 {
	return uint8(e.modes[ch/BankSize].Load() >> (8 * (ch % BankSize)))
}

// Tick advances the PWM counter by one step and writes the resulting pin
// levels to the output. When the counter wraps, the phase advances and every
// channel level is recomputed.
func (e *Engine) Tick() uint32 {
	e.counter--
	if e.counter < 0 {
		e.counter = int(e.full) - 1
		e.t += uint16(e.step.Load())
		e.phase.Store(uint32(e.t))
		enabled := e.enabled.Load()
		for i := 0; i < e.channels; i++ {
			if enabled&(1<<i) == 0 {
				e.levels[i] = 0
				continue
			}
			e.levels[i] = Level(e.mode(i), e.t, e.full)
		}
	}

	var on uint32
	for i := 0; i < e.channels; i++ {
		if int(e.levels[i]) > e.counter {
			on |= 1 << i
		}
	}
	levels := on ^ e.inverted
	e.ticks.Add(1)
	if e.out != nil {
		e.out.WriteLevels(levels)
	}
	return levels
}

// Run calls Tick every period until ctx is done.
func (e *Engine) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Tick()
		}
	}
}

// Channel is the observable state of one LED channel.
type Channel struct {
	Index   int
	Enabled bool
	Mode    uint8
	Level   uint8
}

// Snapshot is the observable state of the engine.
type Snapshot struct {
	Phase      uint16
	PulseSpeed uint8
	Ticks      uint64
	Channels   []Channel
}

// Snapshot returns the command state and the levels implied by the last
// published phase. It is safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	phase := uint16(e.phase.Load())
	enabled := e.enabled.Load()
	s := Snapshot{
		Phase:      phase,
		PulseSpeed: uint8(e.step.Load() / PhaseStepUnit),
		Ticks:      e.ticks.Load(),
		Channels:   make([]Channel, e.channels),
	}
	for i := range s.Channels {
		ch := Channel{Index: i, Enabled: enabled&(1<<i) != 0, Mode: e.mode(i)}
		if ch.Enabled {
			ch.Level = Level(ch.Mode, phase, e.full)
		}
		s.Channels[i] = ch
	}
	return s
}
