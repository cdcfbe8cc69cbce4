package panel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/panel"
)

// pins is a set of pressed inputs.
type pins map[int]bool

func (p pins) Pressed(i int) bool { return p[i] }

func scan(e *panel.Engine, p pins, n int) {
	for range n {
		e.Scan(p)
	}
}

func drain(e *panel.Engine) []panel.Report {
	var out []panel.Report
	for {
		r, ok := e.NextReport()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

const (
	inK1 = iota
	inShift
	inLeft
	inFire
	inVol
	inP2Up
)

func testConfig() panel.Config {
	return panel.Config{
		Inputs: []panel.Input{
			{Name: "k1", Normal: panel.KeyA, Shift: panel.KeyB},
			{Name: "shift"},
			{Name: "left", Normal: panel.J1Left, Shift: panel.J1Left},
			{Name: "fire", Normal: panel.J1Button1, Shift: panel.J1Button1},
			{Name: "vol", Normal: panel.ConsumerMute, Shift: panel.ConsumerVolumeUp},
			{Name: "p2up", Normal: panel.J2Up, Shift: panel.J2Up},
		},
		ShiftInput: inShift,
		Joysticks:  2,
	}
}

func newEngine(t *testing.T, cfg panel.Config) *panel.Engine {
	t.Helper()
	e, err := panel.New(cfg, nil)
	require.NoError(t, err)
	return e
}

func TestDebounce(t *testing.T) {
	e := newEngine(t, testConfig())
	p := pins{inK1: true}

	scan(e, p, panel.DefaultDebounce)
	assert.Empty(t, drain(e), "not yet stable")

	scan(e, p, 1)
	reports := drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, []byte{1, 0, 0x04, 0, 0, 0, 0, 0}, reports[0].BuildReport())

	scan(e, p, 50)
	assert.Empty(t, drain(e), "holding produces nothing new")

	// bouncing contacts never reach the release threshold
	for range 20 {
		e.Scan(pins{})
		e.Scan(p)
	}
	assert.Empty(t, drain(e))

	scan(e, pins{}, panel.DefaultDebounce+1)
	reports = drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, panel.KeyboardReport{}, reports[0])
}

func TestJoystickReport(t *testing.T) {
	e := newEngine(t, testConfig())
	scan(e, pins{inLeft: true, inFire: true}, 6)

	reports := drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, panel.JoystickReport{Joystick: 0, X: -1, Buttons: 0x01}, reports[0])
	assert.Equal(t, []byte{3, 0x0F, 0x01}, reports[0].BuildReport())
}

func TestArbitrationOrder(t *testing.T) {
	e := newEngine(t, testConfig())
	scan(e, pins{inK1: true, inLeft: true, inVol: true, inP2Up: true}, 6)

	var ids []panel.ReportID
	for _, r := range drain(e) {
		ids = append(ids, r.ID())
	}
	// round robin starts after joystick 1
	assert.Equal(t, []panel.ReportID{panel.IDJoystick2, panel.IDJoystick1, panel.IDKeyboard, panel.IDConsumer}, ids)

	scan(e, pins{}, 6)
	ids = ids[:0]
	for _, r := range drain(e) {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []panel.ReportID{panel.IDJoystick2, panel.IDJoystick1, panel.IDKeyboard, panel.IDConsumer}, ids)
}

func TestShiftOverlay(t *testing.T) {
	e := newEngine(t, testConfig())
	held := pins{inK1: true}
	scan(e, held, 6)
	require.Equal(t, []panel.Report{panel.KeyboardReport{Keys: [6]uint8{uint8(panel.KeyA)}}}, drain(e))

	both := pins{inK1: true, inShift: true}
	scan(e, both, 6)

	// the key of the old table is released before the table switches
	assert.Equal(t, []panel.Report{panel.KeyboardReport{}}, drain(e))
	assert.True(t, e.ShiftActive())

	scan(e, both, 6)
	assert.Equal(t, []panel.Report{panel.KeyboardReport{Keys: [6]uint8{uint8(panel.KeyB)}}}, drain(e))

	// an input that is the same in both tables is left alone
	scan(e, pins{inK1: true, inShift: true, inLeft: true}, 6)
	require.Len(t, drain(e), 1)
	scan(e, pins{inK1: true, inLeft: true}, 6)
	reports := drain(e)
	assert.Equal(t, []panel.Report{panel.KeyboardReport{}}, reports)
	assert.False(t, e.ShiftActive())
}

func TestShiftedConsumerControl(t *testing.T) {
	e := newEngine(t, testConfig())
	scan(e, pins{inShift: true}, 6)
	assert.False(t, e.ShiftActive())
	// nothing is held, so the table switches on the first poll
	_, ok := e.NextReport()
	assert.False(t, ok)
	require.True(t, e.ShiftActive())

	scan(e, pins{inShift: true, inVol: true}, 6)
	assert.Equal(t, []panel.Report{panel.ConsumerReport{Controls: 0x01}}, drain(e))
}

func TestKeyboardMacrosAndModifiers(t *testing.T) {
	cfg := panel.Config{
		Inputs: []panel.Input{
			{Normal: panel.KeyAltF4},
			{Normal: panel.ModLeftControl},
			{Normal: panel.KeyShiftF7},
		},
		ShiftInput: panel.NoInput,
	}
	e := newEngine(t, cfg)
	scan(e, pins{0: true, 1: true, 2: true}, 6)

	reports := drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, []byte{1, 0x01 | 0x02 | 0x04, 0x3D, 0x40, 0, 0, 0, 0}, reports[0].BuildReport())
}

func TestKeyboardTruncatesAtSixKeys(t *testing.T) {
	cfg := panel.Config{ShiftInput: panel.NoInput}
	p := pins{}
	for i := range 8 {
		cfg.Inputs = append(cfg.Inputs, panel.Input{Normal: panel.KeyA + panel.KeyCode(i)})
		p[i] = true
	}
	cfg.Inputs = append(cfg.Inputs, panel.Input{Normal: panel.ModRightGUI})
	p[8] = true

	e := newEngine(t, cfg)
	scan(e, p, 6)
	reports := drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, []byte{1, 0x80, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, reports[0].BuildReport())
}

func TestMultifire(t *testing.T) {
	cfg := panel.Config{
		Inputs:     []panel.Input{{Name: "fire", Normal: panel.KeyA}},
		ShiftInput: panel.NoInput,
		Multifire:  panel.DefaultMultifire(0),
	}
	e := newEngine(t, cfg)

	var presses, releases []int
	for i := range 3000 {
		e.Scan(pins{0: i < 10})
		for _, r := range drain(e) {
			kb, ok := r.(panel.KeyboardReport)
			require.True(t, ok)
			if kb.Keys[0] == uint8(panel.KeyA) {
				presses = append(presses, i)
			} else {
				releases = append(releases, i)
			}
		}
	}
	require.Len(t, presses, panel.DefaultMultifireCount)
	require.Len(t, releases, panel.DefaultMultifireCount)
	// the first press still goes through debouncing
	assert.Equal(t, panel.DefaultDebounce, presses[0])
	for k := range presses {
		assert.Equal(t, panel.DefaultMultifireOn, releases[k]-presses[k], "on time of burst %d", k)
		if k > 0 {
			assert.Equal(t, panel.DefaultMultifirePeriod+1, presses[k]-presses[k-1], "cycle before burst %d", k)
		}
	}
}

func mouseConfig(delta int8) panel.Config {
	return panel.Config{
		Inputs: []panel.Input{
			{Name: "xclk"}, {Name: "xdir"}, {Name: "yclk"}, {Name: "ydir"},
			{Name: "lmb", Normal: panel.MouseLeft, Shift: panel.MouseLeft},
		},
		ShiftInput: panel.NoInput,
		Mouse:      &panel.Mouse{XClk: 0, XDir: 1, YClk: 2, YDir: 3, DeltaX: delta, DeltaY: delta},
	}
}

func TestMouseQuadrature(t *testing.T) {
	e := newEngine(t, mouseConfig(2))

	for _, s := range []pins{{0: true}, {0: true, 1: true}, {1: true}, {}} {
		e.Scan(s)
	}
	assert.Equal(t, []panel.Report{panel.MouseReport{DX: -8}}, drain(e))

	for _, s := range []pins{{3: true}, {2: true, 3: true}, {2: true}, {}} {
		e.Scan(s)
	}
	reports := drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, []byte{7, 0, 0, 8}, reports[0].BuildReport())

	// counts reset after a report
	scan(e, pins{4: true}, 6)
	assert.Equal(t, []panel.Report{panel.MouseReport{Buttons: 0x01}}, drain(e))
}

func TestMouseSaturates(t *testing.T) {
	e := newEngine(t, mouseConfig(50))
	for range 3 {
		for _, s := range []pins{{0: true}, {0: true, 1: true}, {1: true}, {}} {
			e.Scan(s)
		}
	}
	reports := drain(e)
	require.Len(t, reports, 1)
	assert.Equal(t, int8(-100), reports[0].(panel.MouseReport).DX)
}

func TestInputs(t *testing.T) {
	e := newEngine(t, mouseConfig(1))
	scan(e, pins{0: true, 4: true}, 6)

	in := e.Inputs()
	require.Len(t, in, 5)
	assert.Equal(t, panel.InputState{Index: 0, Name: "xclk", Pressed: true, Role: "encoder"}, in[0])
	assert.Equal(t, panel.InputState{Index: 4, Name: "lmb", Pressed: true, Key: panel.MouseLeft, Role: "key"}, in[4])
	assert.Equal(t, uint64(6), e.Scans())

	i, err := e.InputIndex("lmb")
	require.NoError(t, err)
	assert.Equal(t, 4, i)
	_, err = e.InputIndex("nope")
	assert.ErrorIs(t, err, panel.ErrInputIndex)
}

func TestConfigValidate(t *testing.T) {
	base := testConfig
	tests := []struct {
		name   string
		mutate func(c *panel.Config)
		want   error
	}{
		{"ok", func(c *panel.Config) {}, nil},
		{"no inputs", func(c *panel.Config) { c.Inputs = nil }, panel.ErrNoInputs},
		{"shift out of range", func(c *panel.Config) { c.ShiftInput = 6 }, panel.ErrInputIndex},
		{"too many joysticks", func(c *panel.Config) { c.Joysticks = 5 }, panel.ErrBadParameter},
		{"multifire on shift", func(c *panel.Config) { c.Multifire = panel.DefaultMultifire(inShift) }, panel.ErrInputReused},
		{"multifire timing", func(c *panel.Config) {
			c.Multifire = panel.DefaultMultifire(0)
			c.Multifire.On = 700
		}, panel.ErrBadParameter},
		{"mouse zero delta", func(c *panel.Config) {
			c.Mouse = &panel.Mouse{XClk: 0, XDir: 2, YClk: 3, YDir: 4}
		}, panel.ErrBadParameter},
		{"debounce", func(c *panel.Config) { c.Debounce = 200 }, panel.ErrBadParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
