package testing

import "sync"

// ConfigRecorder is a dispatch.ConfigHook that records what it was asked.
type ConfigRecorder struct {
	// Err is returned from every call when set.
	Err error

	mu         sync.Mutex
	ids        []uint8
	bootloader int
}

func (c *ConfigRecorder) SetID(id uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return c.Err
}

func (c *ConfigRecorder) EnterBootloader() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bootloader++
	return c.Err
}

// IDs returns every id passed to SetID.
func (c *ConfigRecorder) IDs() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.ids...)
}

// Bootloader returns how often EnterBootloader was called.
func (c *ConfigRecorder) Bootloader() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootloader
}
