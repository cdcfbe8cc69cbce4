// Package clock provides the millisecond time source of an emulated controller.
//
// A Clock is advanced by a periodic tick (the timer interrupt) and offers the
// main loop an idle primitive that blocks until the next tick.
package clock

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"
)

// Clock is a monotonically increasing millisecond counter with a
// sub-millisecond reading. Tick is the only writer.
type Clock struct {
	ms       atomic.Uint32
	lastTick atomic.Int64 // unix nanoseconds of the last Tick
	now      func() time.Time

	wake chan struct{}
}

// New returns a clock reading zero.
func New() *Clock { return NewWithSource(time.Now) }

// NewWithSource returns a clock whose sub-millisecond reading is taken from now.
func NewWithSource(now func() time.Time) *Clock {
	c := &Clock{now: now, wake: make(chan struct{}, 1)}
	c.lastTick.Store(now().UnixNano())
	return c
}

// Tick advances the clock by one millisecond and wakes an idle main loop.
func (c *Clock) Tick() {
	c.lastTick.Store(c.now().UnixNano())
	c.ms.Add(1)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Millis returns the number of ticks since start.
func (c *Clock) Millis() uint32 { return c.ms.Load() }

// Micros returns a microsecond reading built from the tick count and the time
// elapsed since the last tick, clamped so it never reaches the next tick.
func (c *Clock) Micros() uint64 {
	for {
		ms := c.ms.Load()
		last := c.lastTick.Load()
		if c.ms.Load() != ms {
			continue // tick raced the read, retry
		}
		sub := (c.now().UnixNano() - last) / int64(time.Microsecond)
		if sub < 0 {
			sub = 0
		}
		if sub > 999 {
			sub = 999
		}
		return uint64(ms)*1000 + uint64(sub)
	}
}

// Wake returns the channel signalled on every tick. Signals are coalesced.
func (c *Clock) Wake() <-chan struct{} { return c.wake }

// Idle blocks until the next tick, an extra wake source or cancellation.
// It returns ctx.Err() when ctx is done.
func (c *Clock) Idle(ctx context.Context, extra ...<-chan struct{}) error {
	if len(extra) > 2 {
		return c.idleAny(ctx, extra)
	}
	var a, b <-chan struct{}
	if len(extra) > 0 {
		a = extra[0]
	}
	if len(extra) > 1 {
		b = extra[1]
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.wake:
	case <-a:
	case <-b:
	}
	return nil
}

// idleAny is Idle for any number of wake sources.
func (c *Clock) idleAny(ctx context.Context, extra []<-chan struct{}) error {
	cases := make([]reflect.SelectCase, 0, len(extra)+2)
	cases = append(cases,
		reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
		reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.wake)},
	)
	for _, ch := range extra {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
	}
	if i, _, _ := reflect.Select(cases); i == 0 {
		return ctx.Err()
	}
	return nil
}

// Sleep blocks for at least ms ticks.
func (c *Clock) Sleep(ctx context.Context, ms uint32) error {
	start := c.Millis()
	for c.Millis()-start < ms {
		if err := c.Idle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Elapsed reports whether at least period ticks passed since since.
// Counter wrap is handled by modular arithmetic.
func (c *Clock) Elapsed(since, period uint32) bool { return c.Millis()-since >= period }

// Run drives Tick from a wall-clock ticker until ctx is done. Every tick also
// calls each hook in order; hooks run in the ticker goroutine.
func (c *Clock) Run(ctx context.Context, period time.Duration, hooks ...func(ms uint32)) {
	if period <= 0 {
		period = time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick()
			ms := c.Millis()
			for _, h := range hooks {
				h(ms)
			}
		}
	}
}

// Every returns a tick hook that calls f once per period ticks.
func Every(period uint32, f func()) func(ms uint32) {
	if period == 0 {
		period = 1
	}
	return func(ms uint32) {
		if ms%period == 0 {
			f()
		}
	}
}
