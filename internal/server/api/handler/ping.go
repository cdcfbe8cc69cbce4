package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
	"github.com/Alia5/lwclone/internal/version"
)

// Ping identifies the server and the device it serves.
func Ping(d *emulator.Device) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		v, err := version.Get()
		if err != nil {
			return err
		}
		b, err := json.Marshal(apitypes.PingResponse{
			Server:  "lwclone",
			Version: v,
			Board:   d.Board.Name,
			Build:   d.Build(),
			PanelOn: d.PanelOn(),
		})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
