// Package panel scans the inputs of a control panel and turns their
// debounced state into keyboard, consumer, joystick and mouse reports.
//
// Scan runs in the timer context and NextReport on the USB side. Both take
// the engine lock, so every report is built from a consistent view of the
// input table.
package panel

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Alia5/lwclone/internal/log"
)

// Pins reads the physical input levels.
type Pins interface {
	// Pressed reports whether input i is active.
	Pressed(i int) bool
}

// PinsFunc adapts a function to Pins.
type PinsFunc func(i int) bool

func (f PinsFunc) Pressed(i int) bool { return f(i) }

type role uint8

const (
	roleKey role = iota
	roleShift
	roleMultifire
	roleEncoder
)

// input is the debounce integrator of one input. Encoder inputs store the
// raw level in count.
type input struct {
	count uint8
	down  bool
}

func (s input) zero() bool { return s.count == 0 && !s.down }

type cleanupStage uint8

const (
	cleanupIdle cleanupStage = iota
	cleanupRelease
	cleanupDrain
)

// Engine holds the input table and the pending report flags.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	logger *slog.Logger

	state []input
	roles []role
	shift bool
	stage cleanupStage

	dirtyKeyboard bool
	dirtyConsumer bool
	dirtyMouse    bool
	dirtyJoy      [MaxJoysticks]bool
	lastJoy       int

	mf    *multifire
	x, y  axis
	scans uint64
}

// New validates cfg and returns an engine with every input released.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:    cfg,
		logger: log.Component(logger, "panel"),
		state:  make([]input, len(cfg.Inputs)),
		roles:  make([]role, len(cfg.Inputs)),
	}
	if cfg.ShiftInput != NoInput {
		e.roles[cfg.ShiftInput] = roleShift
	}
	if m := cfg.Multifire; m != nil {
		e.roles[m.Index] = roleMultifire
		e.mf = &multifire{cfg: *m}
	}
	if m := cfg.Mouse; m != nil {
		for _, i := range []int{m.XClk, m.XDir, m.YClk, m.YDir} {
			e.roles[i] = roleEncoder
		}
	}
	return e, nil
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config { return e.cfg }

// Scan samples every input once. While a shift change is being cleaned up
// the inputs are not sampled.
func (e *Engine) Scan(pins Pins) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scans++
	if e.stage != cleanupIdle {
		return
	}
	for i := range e.state {
		switch e.roles[i] {
		case roleEncoder:
			e.state[i] = input{}
			if pins.Pressed(i) {
				e.state[i].count = 1
			}
		case roleMultifire:
			e.debounce(i, e.mf.step(pins.Pressed(i)))
		default:
			e.debounce(i, pins.Pressed(i))
		}
	}
	if e.cfg.Mouse != nil {
		e.trackMouse()
	}
}

func (e *Engine) debounce(i int, pressed bool) {
	s := &e.state[i]
	limit := uint8(e.cfg.Debounce)
	changed := false
	if pressed {
		if s.count <= limit {
			if s.count == limit && !s.down {
				s.down = true
				changed = true
			}
			s.count++
		}
	} else if s.count > 0 {
		if s.count == 1 && s.down {
			s.down = false
			changed = true
		}
		s.count--
	}
	if !changed {
		return
	}
	if e.roles[i] == roleShift {
		e.stage = cleanupRelease
		e.logger.Debug("shift changed", "pressed", s.down)
		return
	}
	e.markDirty(e.key(i))
}

// key returns the code input i produces under the active table.
func (e *Engine) key(i int) KeyCode {
	if e.shift {
		return e.cfg.Inputs[i].Shift
	}
	return e.cfg.Inputs[i].Normal
}

func (e *Engine) markDirty(k KeyCode) {
	switch {
	case k.IsKeyboard():
		e.dirtyKeyboard = true
	case k.IsConsumer():
		e.dirtyConsumer = true
	case k.IsMouseButton():
		e.dirtyMouse = e.dirtyMouse || e.cfg.Mouse != nil
	default:
		if joy, _, ok := k.Joystick(); ok && joy < e.cfg.Joysticks {
			e.dirtyJoy[joy] = true
		}
	}
}

func (e *Engine) anyDirty() bool {
	if e.dirtyKeyboard || e.dirtyConsumer || e.dirtyMouse {
		return true
	}
	for _, d := range e.dirtyJoy {
		if d {
			return true
		}
	}
	return false
}

// cleanup releases every held input whose code differs between the two
// tables, then switches tables once the resulting reports are sent. With
// nothing to release the switch happens in the same call.
func (e *Engine) cleanup() {
	switch e.stage {
	case cleanupRelease:
		for i, in := range e.cfg.Inputs {
			if e.roles[i] == roleShift || e.state[i].zero() || in.Normal == in.Shift {
				continue
			}
			e.markDirty(e.key(i))
			e.state[i] = input{}
		}
		e.stage = cleanupDrain
		fallthrough
	case cleanupDrain:
		if e.anyDirty() {
			return
		}
		e.stage = cleanupIdle
		e.shift = e.state[e.cfg.ShiftInput].down
		e.logger.Debug("shift table switched", "shift", e.shift)
	}
}

// NextReport returns the next pending report, if any. Joysticks are served
// round robin ahead of the mouse, the keyboard and consumer controls.
func (e *Engine) NextReport() (Report, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cleanup()
	if n := e.cfg.Joysticks; n > 0 {
		j := e.lastJoy
		for range n {
			j = (j + 1) % n
			if e.dirtyJoy[j] {
				e.dirtyJoy[j] = false
				e.lastJoy = j
				return e.joystickReport(j), true
			}
		}
	}
	if e.dirtyMouse {
		e.dirtyMouse = false
		return e.mouseReport(), true
	}
	if e.dirtyKeyboard {
		e.dirtyKeyboard = false
		return e.keyboardReport(), true
	}
	if e.dirtyConsumer {
		e.dirtyConsumer = false
		return e.consumerReport(), true
	}
	return nil, false
}

func (e *Engine) keyboardReport() KeyboardReport {
	var r KeyboardReport
	n := 0
	for i, s := range e.state {
		k := e.key(i)
		if !s.down || !k.IsKeyboard() {
			continue
		}
		if k.IsModifier() {
			r.Modifiers |= modifierBit(k)
			continue
		}
		if n == len(r.Keys) {
			continue
		}
		switch k {
		case KeyAltF4:
			r.Modifiers |= modifierBit(ModLeftAlt)
			k = KeyF4
		case KeyShiftF7:
			r.Modifiers |= modifierBit(ModLeftShift)
			k = KeyF7
		}
		r.Keys[n] = uint8(k)
		n++
	}
	return r
}

func modifierBit(k KeyCode) uint8 { return 1 << (k - ModLeftControl) }

func (e *Engine) consumerReport() ConsumerReport {
	var r ConsumerReport
	for i, s := range e.state {
		if k := e.key(i); s.down && k.IsConsumer() {
			r.Controls |= 1 << (k - ConsumerVolumeUp)
		}
	}
	return r
}

func (e *Engine) joystickReport(joy int) JoystickReport {
	r := JoystickReport{Joystick: joy}
	for i, s := range e.state {
		if !s.down {
			continue
		}
		j, event, ok := e.key(i).Joystick()
		if !ok || j != joy {
			continue
		}
		switch event {
		case 0:
			r.X = -1
		case 1:
			r.X = 1
		case 2:
			r.Y = -1
		case 3:
			r.Y = 1
		default:
			r.Buttons |= 1 << (event - 4)
		}
	}
	return r
}

func (e *Engine) mouseReport() MouseReport {
	r := MouseReport{DX: e.x.pos, DY: e.y.pos}
	for i, s := range e.state {
		if k := e.key(i); s.down && k.IsMouseButton() {
			r.Buttons |= 1 << (k - MouseLeft)
		}
	}
	e.x.pos, e.y.pos = 0, 0
	return r
}

// InputState is the observable state of one input.
type InputState struct {
	Index   int
	Name    string
	Pressed bool
	Key     KeyCode
	Role    string
}

func (r role) String() string {
	switch r {
	case roleShift:
		return "shift"
	case roleMultifire:
		return "multifire"
	case roleEncoder:
		return "encoder"
	default:
		return "key"
	}
}

// Inputs returns the debounced state of every input. Encoder inputs report
// their raw level.
func (e *Engine) Inputs() []InputState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]InputState, len(e.state))
	for i, s := range e.state {
		pressed := s.down
		if e.roles[i] == roleEncoder {
			pressed = s.count != 0
		}
		out[i] = InputState{
			Index:   i,
			Name:    e.cfg.Inputs[i].Name,
			Pressed: pressed,
			Key:     e.key(i),
			Role:    e.roles[i].String(),
		}
	}
	return out
}

// ShiftActive reports whether the shift table is in use.
func (e *Engine) ShiftActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shift
}

// Scans returns the number of Scan calls so far.
func (e *Engine) Scans() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scans
}

// InputIndex resolves an input by name, ignoring case.
func (e *Engine) InputIndex(name string) (int, error) {
	for i, in := range e.cfg.Inputs {
		if strings.EqualFold(in.Name, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no input named %q", ErrInputIndex, name)
}
