package link

import (
	"io"
	"math/rand/v2"
	"sync"
)

type lineEvent struct {
	c   Char
	err bool
}

// Pipe is an in-memory one-way 9-bit serial line. It is safe for one writer
// and one reader goroutine.
type Pipe struct {
	ch     chan lineEvent
	closed chan struct{}
	once   sync.Once

	mu        sync.Mutex
	errorRate float64
	rng       *rand.Rand
}

// NewPipe returns a line buffering up to capacity characters. A full line
// blocks the writer the way a busy UART holds off the next character.
func NewPipe(capacity int) *Pipe {
	if capacity < 1 {
		capacity = 1
	}
	return &Pipe{
		ch:     make(chan lineEvent, capacity),
		closed: make(chan struct{}),
	}
}

// SetErrorRate makes each written character arrive as a line error with
// probability p, using rng (a seeded PCG source when nil).
func (p *Pipe) SetErrorRate(rate float64, rng *rand.Rand) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	p.errorRate = rate
	p.rng = rng
}

func (p *Pipe) corrupt() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorRate > 0 && p.rng.Float64() < p.errorRate
}

func (p *Pipe) send(ev lineEvent) error {
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case p.ch <- ev:
		return nil
	case <-p.closed:
		return io.ErrClosedPipe
	}
}

// WriteChar puts c on the line.
func (p *Pipe) WriteChar(c Char) error {
	return p.send(lineEvent{c: c, err: p.corrupt()})
}

// InjectLineError queues a character that arrives with a line error.
func (p *Pipe) InjectLineError() error { return p.send(lineEvent{err: true}) }

// ReadChar blocks for the next character. After Close it returns the
// characters still buffered, then io.EOF.
func (p *Pipe) ReadChar() (Char, error) {
	select {
	case ev := <-p.ch:
		return p.event(ev)
	case <-p.closed:
		select {
		case ev := <-p.ch:
			return p.event(ev)
		default:
			return 0, io.EOF
		}
	}
}

func (p *Pipe) event(ev lineEvent) (Char, error) {
	if ev.err {
		return ev.c, ErrLine
	}
	return ev.c, nil
}

// Close shuts the line down. It is safe to call more than once.
func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
