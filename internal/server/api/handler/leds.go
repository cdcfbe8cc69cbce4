package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
	"github.com/Alia5/lwclone/led"
)

// LEDs returns the command state and current level of every LED channel.
func LEDs(d *emulator.Device) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		s := d.LEDs.Snapshot()
		full := d.LEDs.MaxBrightness()
		out := apitypes.LEDsResponse{
			Phase:         s.Phase,
			PulseSpeed:    s.PulseSpeed,
			MaxBrightness: full,
			Channels:      make([]apitypes.LEDChannel, len(s.Channels)),
		}
		for i, ch := range s.Channels {
			c := apitypes.LEDChannel{
				Index:    ch.Index,
				Enabled:  ch.Enabled,
				Mode:     ch.Mode,
				ModeName: led.ModeName(ch.Mode, full),
				Level:    ch.Level,
			}
			if c.ModeName == "constant" {
				c.ModeName = fmt.Sprintf("level %d", ch.Mode)
			}
			if !ch.Enabled {
				c.ModeName = "off"
			}
			if i < len(d.Board.LEDs) {
				c.Name = d.Board.LEDs[i].Name
			}
			out.Channels[i] = c
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
