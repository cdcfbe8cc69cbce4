package panel

import (
	"errors"
	"fmt"
)

// NoInput marks an optional input index as unused.
const NoInput = -1

const (
	DefaultDebounce = 5

	DefaultMultifireCount   = 3
	DefaultMultifireLatency = 100
	DefaultMultifireOn      = 100
	DefaultMultifirePeriod  = 600

	// MaxInputs bounds the input table.
	MaxInputs = 64
)

// Input is one physical panel input and the keys it produces without and
// with the shift input held.
type Input struct {
	Name   string
	Normal KeyCode
	Shift  KeyCode
}

// Multifire turns one press of an input into a burst of synthetic presses.
// Durations are counted in scans.
type Multifire struct {
	Index int
	// Count is the number of presses generated per physical press.
	Count int
	// Latency is the dead time after a physical press before the next one
	// is accepted.
	Latency int
	// On is the pressed part of every burst cycle.
	On int
	// Period is the burst cycle length minus one.
	Period int
}

// Mouse maps two quadrature encoders onto the mouse axes.
type Mouse struct {
	XClk, XDir int
	YClk, YDir int
	DeltaX     int8
	DeltaY     int8
}

// Config describes the panel of a board.
type Config struct {
	Inputs []Input
	// Debounce is the number of consecutive samples needed to accept a level
	// change. Zero selects DefaultDebounce.
	Debounce int
	// ShiftInput is the index of the shift input, or NoInput.
	ShiftInput int
	// Joysticks is the number of joystick reports, 0..MaxJoysticks.
	Joysticks int
	Multifire *Multifire
	Mouse     *Mouse
}

var (
	ErrNoInputs     = errors.New("panel: no inputs")
	ErrInputIndex   = errors.New("panel: input index out of range")
	ErrInputReused  = errors.New("panel: input used twice")
	ErrBadParameter = errors.New("panel: invalid parameter")
)

func (c Config) inRange(i int) bool { return i >= 0 && i < len(c.Inputs) }

// Validate checks c and returns the first problem found.
func (c Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(c.Inputs) > MaxInputs {
		return fmt.Errorf("%w: %d inputs, at most %d", ErrBadParameter, len(c.Inputs), MaxInputs)
	}
	if c.Debounce < 0 || c.Debounce > 126 {
		return fmt.Errorf("%w: debounce %d out of range 0..126", ErrBadParameter, c.Debounce)
	}
	if c.Joysticks < 0 || c.Joysticks > MaxJoysticks {
		return fmt.Errorf("%w: %d joysticks, at most %d", ErrBadParameter, c.Joysticks, MaxJoysticks)
	}

	used := map[int]string{}
	claim := func(role string, i int) error {
		if !c.inRange(i) {
			return fmt.Errorf("%w: %s index %d", ErrInputIndex, role, i)
		}
		if prev, ok := used[i]; ok {
			return fmt.Errorf("%w: input %d is both %s and %s", ErrInputReused, i, prev, role)
		}
		used[i] = role
		return nil
	}
	if c.ShiftInput != NoInput {
		if err := claim("shift", c.ShiftInput); err != nil {
			return err
		}
	}
	if m := c.Multifire; m != nil {
		if err := claim("multifire", m.Index); err != nil {
			return err
		}
		if m.Count < 1 || m.Count > 255 {
			return fmt.Errorf("%w: multifire count %d out of range 1..255", ErrBadParameter, m.Count)
		}
		if m.Latency < 1 || m.On < 1 || m.On > m.Period {
			return fmt.Errorf("%w: multifire timing latency=%d on=%d period=%d", ErrBadParameter, m.Latency, m.On, m.Period)
		}
	}
	if m := c.Mouse; m != nil {
		for _, p := range []struct {
			role string
			i    int
		}{{"mouse x clock", m.XClk}, {"mouse x direction", m.XDir}, {"mouse y clock", m.YClk}, {"mouse y direction", m.YDir}} {
			if err := claim(p.role, p.i); err != nil {
				return err
			}
		}
		if m.DeltaX < 1 || m.DeltaY < 1 {
			return fmt.Errorf("%w: mouse delta must be positive", ErrBadParameter)
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	return c
}

// DefaultMultifire returns the multifire timing used when a board file only
// names the input.
func DefaultMultifire(index int) *Multifire {
	return &Multifire{
		Index:   index,
		Count:   DefaultMultifireCount,
		Latency: DefaultMultifireLatency,
		On:      DefaultMultifireOn,
		Period:  DefaultMultifirePeriod,
	}
}
