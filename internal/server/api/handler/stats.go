package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/dispatch"
	"github.com/Alia5/lwclone/internal/emulator"
	"github.com/Alia5/lwclone/internal/server/api"
)

func dispatchStats(s dispatch.StatsSnapshot) apitypes.DispatchStats {
	return apitypes.DispatchStats{
		Commands:       s.Commands,
		BadCommands:    s.BadCommands,
		ConfigCommands: s.ConfigCommands,
		Reports:        s.Reports,
		TxOverflows:    s.TxOverflows,
	}
}

// Stats returns every counter of the device.
func Stats(d *emulator.Device) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		s := d.Stats()
		out := apitypes.StatsResponse{
			Build:          s.Build,
			USB:            dispatchStats(s.USB),
			DroppedReports: s.Dropped,
			Scans:          s.Scans,
			PWMTicks:       s.PWMTicks,
			Millis:         s.Millis,
		}
		if s.LED != nil {
			ls := dispatchStats(*s.LED)
			out.LED = &ls
		}
		if l := s.Link; l != nil {
			out.Link = &apitypes.LinkStats{
				TxFrames:   l.TxFrames,
				TxDropped:  l.TxDropped,
				RxFrames:   l.RxFrames,
				Discarded:  l.Discarded,
				SyncErrors: l.SyncErrors,
				SizeErrors: l.SizeErrors,
				Overflows:  l.Overflows,
				LineErrors: l.LineErrors,
			}
		}
		if len(s.Queues) > 0 {
			out.Queues = make(map[string]apitypes.QueueStats, len(s.Queues))
			for name, q := range s.Queues {
				out.Queues[name] = apitypes.QueueStats{Level: q.Level, Depth: q.Depth}
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
