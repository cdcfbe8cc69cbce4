// Package queue implements the fixed-capacity message ring shared between an
// interrupt-style producer and the main loop.
//
// The ring holds a power-of-two number of equal-size chunks. Each chunk carries
// exactly one message: a length byte followed by up to ChunkSize()-1 payload
// bytes.
//
// Semantics
//   - Exactly one producer goroutine and exactly one consumer goroutine.
//   - Counters are uint32 and may wrap; level uses modular arithmetic.
//   - 0 ≤ (write - read) ≤ depth at all times.
//   - A reserved chunk is invisible to the consumer until Commit.
//   - A peeked chunk stays owned by the consumer until Release.
//   - Readable notifications are coalesced (buffered size 1); always
//     re-check state after waking.
package queue

import (
	"errors"
	"sync/atomic"
)

const (
	// DefaultChunkSizeLog2 gives 16-byte chunks.
	DefaultChunkSizeLog2 = 4
	// DefaultDepthLog2 gives 8 chunks per ring.
	DefaultDepthLog2 = 3
)

var (
	// ErrFull is returned by Commit when no chunk is reserved because the ring is full.
	ErrFull = errors.New("queue: full")
	// ErrTooLong is returned by Commit when the message does not fit a chunk.
	ErrTooLong = errors.New("queue: message longer than chunk")
)

// Queue is a lock-free SPSC ring of fixed-size message chunks.
type Queue struct {
	buf       []byte
	chunkLog2 uint
	mask      uint32
	read      atomic.Uint32 // consumer counter
	write     atomic.Uint32 // producer counter

	readable chan struct{}
}

// New returns a ring of 1<<depthLog2 chunks of 1<<chunkLog2 bytes.
// Chunks must be at least 2 bytes (length plus one payload byte) and at most
// 256 bytes, so that every length fits the length byte.
func New(depthLog2, chunkLog2 uint) *Queue {
	if chunkLog2 < 1 || chunkLog2 > 8 {
		panic("queue: chunk size must be between 2 and 256 bytes")
	}
	if depthLog2 > 16 {
		panic("queue: depth too large")
	}
	depth := uint32(1) << depthLog2
	return &Queue{
		buf:       make([]byte, int(depth)<<chunkLog2),
		chunkLog2: chunkLog2,
		mask:      depth - 1,
		readable:  make(chan struct{}, 1),
	}
}

// NewDefault returns a ring of 8 chunks of 16 bytes.
func NewDefault() *Queue { return New(DefaultDepthLog2, DefaultChunkSizeLog2) }

// Depth returns the number of chunks in the ring.
func (q *Queue) Depth() int { return int(q.mask) + 1 }

// ChunkSize returns the chunk size in bytes, length byte included.
func (q *Queue) ChunkSize() int { return 1 << q.chunkLog2 }

// MaxPayload returns the largest message length a chunk can hold.
func (q *Queue) MaxPayload() int { return q.ChunkSize() - 1 }

// Level returns the number of committed, unreleased chunks.
func (q *Queue) Level() int {
	w := q.write.Load()
	r := q.read.Load()
	return int(w - r)
}

// Free returns the number of chunks the producer may still reserve.
func (q *Queue) Free() int { return q.Depth() - q.Level() }

// Readable returns a coalesced notification fired on every commit.
func (q *Queue) Readable() <-chan struct{} { return q.readable }

func (q *Queue) chunk(pos uint32) Chunk {
	off := int(pos&q.mask) << q.chunkLog2
	return Chunk(q.buf[off : off+q.ChunkSize() : off+q.ChunkSize()])
}

// Reserve returns the chunk at the write position, or nil when the ring is
// full. It does not advance the write counter; calling it again before Commit
// returns the same chunk.
func (q *Queue) Reserve() Chunk {
	w := q.write.Load()
	r := q.read.Load()
	if w-r > q.mask {
		return nil
	}
	return q.chunk(w)
}

// Commit stores length in the reserved chunk and publishes it to the consumer.
// The payload bytes must already have been written.
func (q *Queue) Commit(length int) error {
	if length < 0 || length > q.MaxPayload() {
		return ErrTooLong
	}
	w := q.write.Load()
	r := q.read.Load()
	if w-r > q.mask {
		return ErrFull
	}
	q.chunk(w)[0] = byte(length)
	q.write.Store(w + 1) // release to consumer

	select {
	case q.readable <- struct{}{}:
	default:
	}
	return nil
}

// Push copies payload into the next free chunk and commits it.
// It returns false when the ring is full or the payload does not fit.
func (q *Queue) Push(payload []byte) bool {
	if len(payload) > q.MaxPayload() {
		return false
	}
	c := q.Reserve()
	if c == nil {
		return false
	}
	copy(c[1:], payload)
	return q.Commit(len(payload)) == nil
}

// Peek returns the oldest committed chunk, or nil when the ring is empty.
// It does not advance the read counter.
func (q *Queue) Peek() Chunk {
	r := q.read.Load()
	w := q.write.Load()
	if w == r {
		return nil
	}
	return q.chunk(r)
}

// Release frees the chunk returned by Peek. Releasing an empty ring does nothing.
func (q *Queue) Release() {
	r := q.read.Load()
	w := q.write.Load()
	if w == r {
		return
	}
	q.read.Store(r + 1) // release to producer
}

// Pop copies the oldest message payload into dst and releases its chunk.
// It returns the number of bytes copied and false when the ring is empty.
func (q *Queue) Pop(dst []byte) (int, bool) {
	c := q.Peek()
	if c == nil {
		return 0, false
	}
	n := copy(dst, c.Payload())
	q.Release()
	return n, true
}
