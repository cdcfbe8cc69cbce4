package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
	"github.com/Alia5/lwclone/led"
)

// Stream attaches a client as the USB host. The client writes raw 8-byte
// commands; every input report is written back as one length byte followed
// by the report. Only one host can be attached at a time.
func Stream(d *emulator.Device) api.StreamHandlerFunc {
	var attached atomic.Bool
	return func(conn net.Conn, req *api.Request, logger *slog.Logger) error {
		if !attached.CompareAndSwap(false, true) {
			return api.ErrConflict("a host is already attached")
		}
		defer attached.Store(false)

		ctx, cancel := context.WithCancel(req.Ctx)
		defer cancel()

		go func() {
			defer cancel()
			cmd := make([]byte, led.CommandSize)
			for {
				if _, err := io.ReadFull(conn, cmd); err != nil {
					if !errors.Is(err, io.EOF) && ctx.Err() == nil {
						logger.Debug("stream read", "error", err)
					}
					return
				}
				if err := d.USB.SetReport(cmd); err != nil {
					logger.Warn("stream command rejected", "error", err)
				}
			}
		}()

		err := d.USB.Poll(ctx, d.Clock(), func(report []byte) error {
			_, err := conn.Write(append([]byte{byte(len(report))}, report...))
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
