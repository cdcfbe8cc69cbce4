// Package board loads the pin and key tables of a controller board.
package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/panel"
)

// Board is the on-disk description of a board.
type Board struct {
	Name          string     `json:"name" yaml:"name" toml:"name"`
	Debounce      int        `json:"debounce,omitempty" yaml:"debounce,omitempty" toml:"debounce,omitempty"`
	Joysticks     int        `json:"joysticks" yaml:"joysticks" toml:"joysticks"`
	Shift         *int       `json:"shift,omitempty" yaml:"shift,omitempty" toml:"shift,omitempty"`
	Multifire     *Multifire `json:"multifire,omitempty" yaml:"multifire,omitempty" toml:"multifire,omitempty"`
	Mouse         *Mouse     `json:"mouse,omitempty" yaml:"mouse,omitempty" toml:"mouse,omitempty"`
	MaxBrightness int        `json:"max_brightness,omitempty" yaml:"max_brightness,omitempty" toml:"max_brightness,omitempty"`
	Inputs        []Input    `json:"inputs" yaml:"inputs" toml:"inputs"`
	LEDs          []LED      `json:"leds" yaml:"leds" toml:"leds"`
}

// Input maps one panel input to its normal and shifted key names.
type Input struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Normal string `json:"normal" yaml:"normal" toml:"normal"`
	Shift  string `json:"shift" yaml:"shift" toml:"shift"`
}

// Multifire timing is counted in scans. Zero fields take the panel defaults.
type Multifire struct {
	Index   int `json:"index" yaml:"index" toml:"index"`
	Count   int `json:"count,omitempty" yaml:"count,omitempty" toml:"count,omitempty"`
	Latency int `json:"latency,omitempty" yaml:"latency,omitempty" toml:"latency,omitempty"`
	On      int `json:"on,omitempty" yaml:"on,omitempty" toml:"on,omitempty"`
	Period  int `json:"period,omitempty" yaml:"period,omitempty" toml:"period,omitempty"`
}

type Mouse struct {
	XClk   int `json:"x_clk" yaml:"x_clk" toml:"x_clk"`
	XDir   int `json:"x_dir" yaml:"x_dir" toml:"x_dir"`
	YClk   int `json:"y_clk" yaml:"y_clk" toml:"y_clk"`
	YDir   int `json:"y_dir" yaml:"y_dir" toml:"y_dir"`
	DeltaX int `json:"delta_x" yaml:"delta_x" toml:"delta_x"`
	DeltaY int `json:"delta_y" yaml:"delta_y" toml:"delta_y"`
}

type LED struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Inverted bool   `json:"inverted,omitempty" yaml:"inverted,omitempty" toml:"inverted,omitempty"`
}

var ErrFormat = errors.New("board: unsupported file format")

// Load reads and validates a board file. The format is chosen by extension.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes and validates board data; ext is a file extension such as
// ".yaml".
func Parse(data []byte, ext string) (*Board, error) {
	var b Board
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Marshal encodes b in the given format ("json", "yaml" or "toml").
func (b *Board) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(b, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(b)
	case "toml":
		return toml.Marshal(*b)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// Validate reports every problem of b at once.
func (b *Board) Validate() error {
	var errs []error
	if len(b.Inputs) == 0 {
		errs = append(errs, panel.ErrNoInputs)
	}
	if len(b.LEDs) == 0 || len(b.LEDs) > led.MaxChannels {
		errs = append(errs, fmt.Errorf("board: %d leds, want 1..%d", len(b.LEDs), led.MaxChannels))
	}
	if b.Debounce != 0 && (b.Debounce < 1 || b.Debounce > 126) {
		errs = append(errs, fmt.Errorf("board: debounce %d out of range 1..126", b.Debounce))
	}
	if b.MaxBrightness < 0 || b.MaxBrightness >= int(led.ModeTriangle) {
		errs = append(errs, fmt.Errorf("board: max_brightness %d out of range 1..%d", b.MaxBrightness, led.ModeTriangle-1))
	}
	if m := b.Mouse; m != nil && (m.DeltaX < 1 || m.DeltaX > 126 || m.DeltaY < 1 || m.DeltaY > 126) {
		errs = append(errs, fmt.Errorf("board: mouse delta out of range 1..126"))
	}
	for i, in := range b.Inputs {
		for _, name := range []string{in.Normal, in.Shift} {
			if _, err := panel.ParseKeyCode(name); err != nil {
				errs = append(errs, fmt.Errorf("board: input %d: %w", i, err))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	cfg, err := b.PanelConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// PanelConfig converts the input table.
func (b *Board) PanelConfig() (panel.Config, error) {
	cfg := panel.Config{
		Debounce:   b.Debounce,
		Joysticks:  b.Joysticks,
		ShiftInput: panel.NoInput,
	}
	if b.Shift != nil {
		cfg.ShiftInput = *b.Shift
	}
	for i, in := range b.Inputs {
		normal, err := panel.ParseKeyCode(in.Normal)
		if err != nil {
			return cfg, fmt.Errorf("board: input %d: %w", i, err)
		}
		shift, err := panel.ParseKeyCode(in.Shift)
		if err != nil {
			return cfg, fmt.Errorf("board: input %d: %w", i, err)
		}
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("in%d", i)
		}
		cfg.Inputs = append(cfg.Inputs, panel.Input{Name: name, Normal: normal, Shift: shift})
	}
	if m := b.Multifire; m != nil {
		mf := panel.DefaultMultifire(m.Index)
		if m.Count != 0 {
			mf.Count = m.Count
		}
		if m.Latency != 0 {
			mf.Latency = m.Latency
		}
		if m.On != 0 {
			mf.On = m.On
		}
		if m.Period != 0 {
			mf.Period = m.Period
		}
		cfg.Multifire = mf
	}
	if m := b.Mouse; m != nil {
		cfg.Mouse = &panel.Mouse{
			XClk: m.XClk, XDir: m.XDir,
			YClk: m.YClk, YDir: m.YDir,
			DeltaX: int8(m.DeltaX), DeltaY: int8(m.DeltaY),
		}
	}
	return cfg, nil
}

// LEDConfig converts the LED table.
func (b *Board) LEDConfig() led.Config {
	cfg := led.Config{Channels: len(b.LEDs), MaxBrightness: uint8(b.MaxBrightness)}
	for i, l := range b.LEDs {
		if l.Inverted {
			cfg.Inverted |= 1 << i
		}
	}
	return cfg
}
