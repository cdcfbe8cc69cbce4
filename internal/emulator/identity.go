package emulator

import (
	"log/slog"
	"sync/atomic"
)

// Identity is the configuration hook of an emulated device. It keeps the
// device id set by the host; a bootloader request is only counted.
type Identity struct {
	id         atomic.Uint32
	bootloader atomic.Uint64
	logger     *slog.Logger
}

// NewIdentity starts with id.
func NewIdentity(id uint8, logger *slog.Logger) *Identity {
	i := &Identity{logger: logger}
	i.id.Store(uint32(id))
	return i
}

func (i *Identity) SetID(id uint8) error {
	i.id.Store(uint32(id))
	if i.logger != nil {
		i.logger.Info("device id changed", "id", id)
	}
	return nil
}

func (i *Identity) EnterBootloader() error {
	i.bootloader.Add(1)
	if i.logger != nil {
		i.logger.Warn("bootloader requested, ignored by the emulator")
	}
	return nil
}

// ID returns the current device id.
func (i *Identity) ID() uint8 { return uint8(i.id.Load()) }

// BootloaderRequests returns how many bootloader commands were received.
func (i *Identity) BootloaderRequests() uint64 { return i.bootloader.Load() }
