package cmd

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/lwclone/internal/uart"
	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/link"
)

// Target is where LED commands go: the API of a running emulator, or a
// serial port wired to an LED controller.
type Target struct {
	APIFlags `embed:""`
	Port     string `help:"Serial port of an LED controller; overrides --api" env:"LWCLONE_PORT"`
	Baud     int    `help:"Serial baud rate" default:"115200" env:"LWCLONE_BAUD"`
}

func (t Target) send(cmds [][]byte, logger *slog.Logger) error {
	if t.Port == "" {
		c, err := t.client()
		if err != nil {
			return err
		}
		for _, cmd := range cmds {
			if _, err := c.Command(cmd); err != nil {
				return err
			}
		}
		return nil
	}
	line, err := uart.Open(t.Port, t.Baud, logger)
	if err != nil {
		return err
	}
	err = link.WriteFrames(line, cmds, link.WithLogger(logger))
	return errors.Join(err, line.Close())
}

type SBA struct {
	Target `embed:""`
	Bank0  uint8 `arg:"" help:"Enable bits of channels 0-7"`
	Bank1  uint8 `arg:"" help:"Enable bits of channels 8-15"`
	Bank2  uint8 `arg:"" help:"Enable bits of channels 16-23"`
	Bank3  uint8 `arg:"" help:"Enable bits of channels 24-31"`
	Speed  uint8 `arg:"" help:"Pulse speed, 1 (slow) to 7 (fast)"`
}

func (c *SBA) Run(logger *slog.Logger) error {
	if c.Speed < 1 || c.Speed > 7 {
		return fmt.Errorf("pulse speed %d out of range 1..7", c.Speed)
	}
	cmd := []byte{led.StateCommand, c.Bank0, c.Bank1, c.Bank2, c.Bank3, c.Speed, 0, 0}
	return c.send([][]byte{cmd}, logger)
}

type PBA struct {
	Target `embed:""`
	Modes  []uint8 `arg:"" help:"Brightness (0 to max brightness) or pattern (129-132) per channel, starting at channel 0; unlisted channels get 0"`

	MaxBrightness uint8 `help:"Highest constant brightness of the target board; read from the API, or 49 on a serial port, when 0" default:"0"`
}

// limit resolves the highest brightness mode the target accepts.
func (c *PBA) limit() (uint8, error) {
	if c.MaxBrightness != 0 || c.Port != "" {
		return cmp.Or(c.MaxBrightness, led.DefaultMaxBrightness), nil
	}
	cl, err := c.client()
	if err != nil {
		return 0, err
	}
	leds, err := cl.LEDs()
	if err != nil {
		return 0, fmt.Errorf("read max brightness: %w", err)
	}
	return leds.MaxBrightness, nil
}

// Commands encodes modes as one full profile cycle: NumBanks commands, so the
// device's bank cursor ends where it started and channel 0 is always the
// first mode sent.
func (c *PBA) Commands() ([][]byte, error) {
	if len(c.Modes) == 0 || len(c.Modes) > led.MaxChannels {
		return nil, fmt.Errorf("expected 1 to %d modes, got %d", led.MaxChannels, len(c.Modes))
	}
	full := cmp.Or(c.MaxBrightness, led.DefaultMaxBrightness)
	if full >= led.ModeTriangle {
		return nil, fmt.Errorf("max brightness %d overlaps the pattern modes", full)
	}
	for ch, m := range c.Modes {
		if m > full && (m < led.ModeTriangle || m > led.ModeRise) {
			return nil, fmt.Errorf("mode %d of channel %d is neither a brightness nor a pattern", m, ch)
		}
	}
	all := make([]byte, led.MaxChannels)
	copy(all, c.Modes)
	cmds := make([][]byte, 0, led.NumBanks)
	for bank := range led.NumBanks {
		cmds = append(cmds, all[bank*led.BankSize:(bank+1)*led.BankSize])
	}
	return cmds, nil
}

func (c *PBA) Run(logger *slog.Logger) error {
	full, err := c.limit()
	if err != nil {
		return err
	}
	c.MaxBrightness = full
	cmds, err := c.Commands()
	if err != nil {
		return err
	}
	return c.send(cmds, logger)
}
