package link

import (
	"github.com/Alia5/lwclone/queue"
)

// Transmitter turns queued messages into characters. Next is called once per
// "channel ready" event and is the only user of the queue's consumer side.
type Transmitter struct {
	q   *queue.Queue
	cfg config

	cur queue.Chunk
	pos int // next character; 0 is the length character
}

// NewTransmitter returns a transmitter draining q.
func NewTransmitter(q *queue.Queue, opts ...Option) *Transmitter {
	return &Transmitter{q: q, cfg: buildConfig(opts)}
}

// Stats returns the counters updated by t.
func (t *Transmitter) Stats() *Stats { return t.cfg.stats }

// Busy reports whether a frame is partially sent.
func (t *Transmitter) Busy() bool { return t.cur != nil }

// Next returns the next character to put on the line, or false when there is
// nothing to send. A message is released only after its last character has
// been returned. Messages too long for a frame are released and skipped.
func (t *Transmitter) Next() (Char, bool) {
	for t.cur == nil {
		c := t.q.Peek()
		if c == nil {
			return 0, false
		}
		if !c.Valid() {
			t.cfg.stats.TxDropped.Add(1)
			t.cfg.logger.Warn("dropping queued message", "error", ErrInvalidLength, "len", c.Len())
			t.q.Release()
			continue
		}
		t.cur = c
		t.pos = 0
	}

	n := t.cur.Len()
	var ch Char
	if t.pos == 0 {
		ch = Start(byte(n))
	} else {
		ch = Data(t.cur[t.pos])
	}
	t.pos++

	if t.pos > n {
		if t.cfg.trace != nil {
			t.cfg.trace.Log(false, t.cur[:1+n])
		}
		t.cur = nil
		t.q.Release()
		t.cfg.stats.TxFrames.Add(1)
	}
	return ch, true
}
