package link

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrFrameSync is a payload character received outside a frame.
	ErrFrameSync = errors.New("link: frame sync")
	// ErrFrameSize is a frame announcing more payload than a chunk holds.
	ErrFrameSize = errors.New("link: frame size too big")
	// ErrBufferFull is a frame dropped because the receive queue is full.
	ErrBufferFull = errors.New("link: receive buffer full")
	// ErrLine is a parity, framing or overrun error reported by the channel.
	ErrLine = errors.New("link: line error")
	// ErrInvalidLength is a queued message whose length does not fit a frame.
	ErrInvalidLength = errors.New("link: invalid message length")
)

// Stats counts link traffic and errors. All fields are safe for concurrent use.
type Stats struct {
	TxFrames   atomic.Uint64
	TxDropped  atomic.Uint64
	RxFrames   atomic.Uint64
	Discarded  atomic.Uint64
	SyncErrors atomic.Uint64
	SizeErrors atomic.Uint64
	Overflows  atomic.Uint64
	LineErrors atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TxFrames   uint64 `json:"txFrames"`
	TxDropped  uint64 `json:"txDropped"`
	RxFrames   uint64 `json:"rxFrames"`
	Discarded  uint64 `json:"discarded"`
	SyncErrors uint64 `json:"syncErrors"`
	SizeErrors uint64 `json:"sizeErrors"`
	Overflows  uint64 `json:"overflows"`
	LineErrors uint64 `json:"lineErrors"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TxFrames:   s.TxFrames.Load(),
		TxDropped:  s.TxDropped.Load(),
		RxFrames:   s.RxFrames.Load(),
		Discarded:  s.Discarded.Load(),
		SyncErrors: s.SyncErrors.Load(),
		SizeErrors: s.SizeErrors.Load(),
		Overflows:  s.Overflows.Load(),
		LineErrors: s.LineErrors.Load(),
	}
}
