package link

import (
	"github.com/Alia5/lwclone/queue"
)

// Receiver reassembles frames into queue messages. Receive and LineError are
// called from the receive goroutine only; it is the queue's sole producer.
type Receiver struct {
	q   *queue.Queue
	cfg config

	cur  queue.Chunk // nil when no frame is in progress
	want int
	got  int
}

// NewReceiver returns a receiver filling q.
func NewReceiver(q *queue.Queue, opts ...Option) *Receiver {
	return &Receiver{q: q, cfg: buildConfig(opts)}
}

// Stats returns the counters updated by r.
func (r *Receiver) Stats() *Stats { return r.cfg.stats }

// InFrame reports whether a frame is partially received.
func (r *Receiver) InFrame() bool { return r.cur != nil }

// LineError aborts the frame in progress. The next marker resynchronizes.
func (r *Receiver) LineError() {
	r.cfg.stats.LineErrors.Add(1)
	if r.cur != nil {
		r.cfg.stats.Discarded.Add(1)
	}
	r.cur = nil
	r.cfg.logger.Debug("line error, frame aborted")
}

// Receive consumes one character. Errors are informational: the receiver has
// already recovered and keeps accepting characters.
func (r *Receiver) Receive(c Char) error {
	if c.IsStart() {
		return r.start(int(c.Byte()))
	}
	if r.cur == nil {
		r.cfg.stats.SyncErrors.Add(1)
		r.cfg.logger.Debug("frame sync error", "char", c)
		return ErrFrameSync
	}
	r.got++
	r.cur[r.got] = c.Byte()
	if r.got == r.want {
		r.commit()
	}
	return nil
}

func (r *Receiver) start(n int) error {
	if r.cur != nil {
		r.cfg.stats.Discarded.Add(1)
		r.cfg.logger.Debug("partial frame discarded", "got", r.got, "want", r.want)
		r.cur = nil
	}
	if n > r.q.MaxPayload() {
		r.cfg.stats.SizeErrors.Add(1)
		r.cfg.logger.Warn("frame size too big", "len", n, "max", r.q.MaxPayload())
		return ErrFrameSize
	}
	c := r.q.Reserve()
	if c == nil {
		r.cfg.stats.Overflows.Add(1)
		r.cfg.logger.Warn("receive buffer full, frame dropped", "len", n)
		return ErrBufferFull
	}
	r.cur = c
	r.want = n
	r.got = 0
	if n == 0 {
		r.commit()
	}
	return nil
}

func (r *Receiver) commit() {
	c := r.cur
	r.cur = nil
	c[0] = byte(r.want)
	if r.cfg.trace != nil {
		r.cfg.trace.Log(true, c[:1+r.want])
	}
	if err := r.q.Commit(r.want); err != nil {
		// unreachable while this receiver is the only producer
		r.cfg.logger.Error("commit failed", "error", err)
		return
	}
	r.cfg.stats.RxFrames.Add(1)
}
