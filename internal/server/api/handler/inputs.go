package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
	"github.com/Alia5/lwclone/panel"
)

func keyName(k panel.KeyCode) string {
	if k == panel.KeyNone {
		return ""
	}
	return k.String()
}

// Inputs lists every panel input with its key tables and debounced state.
func Inputs(d *emulator.Device) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		cfg := d.Panel.Config()
		states := d.Panel.Inputs()
		out := apitypes.InputsResponse{
			ShiftActive: d.Panel.ShiftActive(),
			Inputs:      make([]apitypes.Input, len(states)),
		}
		for i, s := range states {
			out.Inputs[i] = apitypes.Input{
				Index:   s.Index,
				Name:    s.Name,
				Role:    s.Role,
				Pressed: s.Pressed,
				Pin:     d.Pins.Pressed(i),
				Normal:  keyName(cfg.Inputs[i].Normal),
				Shift:   keyName(cfg.Inputs[i].Shift),
				Active:  keyName(s.Key),
			}
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}

// resolveInput accepts an input index or name.
func resolveInput(d *emulator.Device, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= d.Pins.Len() {
			return 0, api.ErrNotFound(fmt.Sprintf("input %d not found", i))
		}
		return i, nil
	}
	i, err := d.Panel.InputIndex(ref)
	if err != nil {
		if errors.Is(err, panel.ErrInputIndex) {
			return 0, api.ErrNotFound(fmt.Sprintf("input %q not found", ref))
		}
		return 0, err
	}
	return i, nil
}

// InputSet drives the pin of input {index} (an index or a name). The change
// goes through debouncing like a real switch.
func InputSet(d *emulator.Device, pressed bool) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		ref, ok := req.Params["index"]
		if !ok || ref == "" {
			return api.ErrBadRequest("missing input index")
		}
		i, err := resolveInput(d, ref)
		if err != nil {
			return err
		}
		if err := d.Pins.Set(i, pressed); err != nil {
			return err
		}
		logger.Debug("input set", "index", i, "pressed", pressed)
		b, err := json.Marshal(apitypes.InputSetResponse{
			Index:   i,
			Name:    d.Panel.Config().Inputs[i].Name,
			Pressed: pressed,
		})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
