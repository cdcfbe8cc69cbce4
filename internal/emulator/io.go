package emulator

import (
	"fmt"
	"sync/atomic"
)

// Pins is a bitmask of virtual input pins driven through the API.
type Pins struct {
	n    int
	bits atomic.Uint64
}

func NewPins(n int) *Pins { return &Pins{n: n} }

// Len returns the number of pins.
func (p *Pins) Len() int { return p.n }

// Set drives pin i.
func (p *Pins) Set(i int, pressed bool) error {
	if i < 0 || i >= p.n {
		return fmt.Errorf("pin %d out of range 0..%d", i, p.n-1)
	}
	for {
		old := p.bits.Load()
		v := old &^ (1 << i)
		if pressed {
			v |= 1 << i
		}
		if p.bits.CompareAndSwap(old, v) {
			return nil
		}
	}
}

func (p *Pins) Pressed(i int) bool { return p.bits.Load()&(1<<i) != 0 }

// Recorder keeps the last output level mask written by the LED engine.
type Recorder struct {
	levels atomic.Uint32
	writes atomic.Uint64
}

func (r *Recorder) WriteLevels(levels uint32) {
	r.levels.Store(levels)
	r.writes.Add(1)
}

func (r *Recorder) Levels() uint32 { return r.levels.Load() }

func (r *Recorder) Writes() uint64 { return r.writes.Load() }
