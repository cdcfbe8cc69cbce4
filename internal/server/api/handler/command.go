package handler

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/dispatch"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/queue"
)

// commandError maps SetReport failures onto API errors.
func commandError(err error) error {
	switch {
	case errors.Is(err, led.ErrCommandSize), errors.Is(err, dispatch.ErrSetID):
		return api.ErrBadRequest(err.Error())
	case errors.Is(err, queue.ErrFull), errors.Is(err, dispatch.ErrNoConfig):
		return api.ErrUnavailable(err.Error())
	}
	return err
}

// parseCommand decodes a hex command; whitespace between bytes is ignored.
func parseCommand(payload string) ([]byte, error) {
	s := strings.Join(strings.Fields(payload), "")
	if s == "" {
		return nil, api.ErrBadRequest("missing command")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, api.ErrBadRequest("invalid command: " + err.Error())
	}
	return b, nil
}

// Command sends one host command, as if written by the USB host.
func Command(d *emulator.Device) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		cmd, err := parseCommand(req.Payload)
		if err != nil {
			return err
		}
		if err := d.USB.SetReport(cmd); err != nil {
			return commandError(err)
		}
		b, err := json.Marshal(apitypes.CommandResponse{Command: hex.EncodeToString(cmd)})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
