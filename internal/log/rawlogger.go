package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger handles raw frame logs with optional file output.
// It satisfies link.Tracer.
type RawLogger interface {
	Log(in bool, data []byte)
}

// rawLogger implements RawLogger with thread-safe log.
type rawLogger struct {
	w    io.Writer
	name string
	mu   *sync.Mutex
	now  func() time.Time
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, mu: &sync.Mutex{}, now: time.Now}
}

// Named returns a RawLogger sharing r's writer that prefixes every line with
// name, so several links can log into one file. r must come from NewRaw.
func Named(r RawLogger, name string) RawLogger {
	rl, ok := r.(*rawLogger)
	if !ok {
		return r
	}
	return &rawLogger{w: rl.w, name: name, mu: rl.mu, now: rl.now}
}

// Log emits a single-line raw frame log with timestamp and hex dump.
// in=true means received by this controller, in=false means transmitted.
func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 {
		return
	}
	if r.w == nil {
		return
	}

	dir := "tx"
	if in {
		dir = "rx"
	}
	if r.name != "" {
		dir = r.name + " " + dir
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s frame: %d bytes, hex: %s\n",
		r.now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
