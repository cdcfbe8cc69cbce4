package link_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/link"
	"github.com/Alia5/lwclone/queue"
)

// drainFrame pulls characters from tx until one whole frame has been sent.
func drainFrame(t *testing.T, tx *link.Transmitter) []link.Char {
	t.Helper()
	var out []link.Char
	for {
		c, ok := tx.Next()
		require.True(t, ok, "transmitter went idle mid-frame")
		out = append(out, c)
		if !tx.Busy() {
			return out
		}
	}
}

func TestFrameEncoding(t *testing.T) {
	q := queue.NewDefault()
	tx := link.NewTransmitter(q)

	_, ok := tx.Next()
	assert.False(t, ok)

	require.True(t, q.Push([]byte{1, 2, 3}))
	require.True(t, q.Push(nil))

	assert.Equal(t, []link.Char{link.Start(3), 0x01, 0x02, 0x03}, drainFrame(t, tx))
	assert.Equal(t, 1, q.Level(), "chunk released after its last character")
	assert.Equal(t, []link.Char{link.Start(0)}, drainFrame(t, tx))
	assert.Equal(t, 0, q.Level())

	_, ok = tx.Next()
	assert.False(t, ok)
	assert.Equal(t, uint64(2), tx.Stats().TxFrames.Load())
}

func TestTransmitterHoldsChunkUntilLastChar(t *testing.T) {
	q := queue.NewDefault()
	tx := link.NewTransmitter(q)
	require.True(t, q.Push([]byte{0xAA, 0xBB}))

	c, ok := tx.Next()
	require.True(t, ok)
	assert.True(t, c.IsStart())
	assert.Equal(t, 1, q.Level())
	_, _ = tx.Next()
	assert.Equal(t, 1, q.Level())
	_, _ = tx.Next()
	assert.Equal(t, 0, q.Level())
}

func TestTransmitterDropsOversizedMessage(t *testing.T) {
	q := queue.NewDefault()
	tx := link.NewTransmitter(q)
	require.True(t, q.Push([]byte{1, 2, 3}))
	require.True(t, q.Push([]byte{9}))
	q.Peek()[0] = 16

	assert.Equal(t, []link.Char{link.Start(1), 0x09}, drainFrame(t, tx))
	assert.Equal(t, uint64(1), tx.Stats().TxDropped.Load())
}

func TestRoundTripWithLineErrors(t *testing.T) {
	txq := queue.NewDefault()
	rxq := queue.NewDefault()
	stats := &link.Stats{}
	tx := link.NewTransmitter(txq, link.WithStats(stats))
	rx := link.NewReceiver(rxq, link.WithStats(stats))

	var sent [][]byte
	for n := 0; n < 16; n++ {
		m := make([]byte, n)
		for i := range m {
			m[i] = byte(n*16 + i)
		}
		sent = append(sent, m)
	}

	var got [][]byte
	for i, m := range sent {
		require.True(t, txq.Push(m))
		for _, c := range drainFrame(t, tx) {
			require.NoError(t, rx.Receive(c))
		}
		if i%2 == 0 {
			rx.LineError()
		}
		c := rxq.Peek()
		require.NotNil(t, c, "frame %d not received", i)
		got = append(got, append([]byte{}, c.Payload()...))
		rxq.Release()
	}

	assert.Equal(t, sent, got)
	s := stats.Snapshot()
	assert.Equal(t, uint64(16), s.TxFrames)
	assert.Equal(t, uint64(16), s.RxFrames)
	assert.Equal(t, uint64(8), s.LineErrors)
	assert.Zero(t, s.Discarded)
}

func TestReceiverErrors(t *testing.T) {
	tests := []struct {
		name      string
		chars     []link.Char
		lineErrAt int // index before which a line error is injected, -1 for none
		want      [][]byte
		errs      []error
	}{
		{
			name:      "data without frame",
			chars:     []link.Char{0x01, 0x02, link.Start(1), 0x05},
			lineErrAt: -1,
			want:      [][]byte{{0x05}},
			errs:      []error{link.ErrFrameSync, link.ErrFrameSync, nil, nil},
		},
		{
			name:      "marker discards partial frame",
			chars:     []link.Char{link.Start(4), 0x01, 0x02, link.Start(2), 0x0A, 0x0B},
			lineErrAt: -1,
			want:      [][]byte{{0x0A, 0x0B}},
			errs:      []error{nil, nil, nil, nil, nil, nil},
		},
		{
			name:      "oversized frame then resync",
			chars:     []link.Char{link.Start(16), 0x01, link.Start(1), 0x07},
			lineErrAt: -1,
			want:      [][]byte{{0x07}},
			errs:      []error{link.ErrFrameSize, link.ErrFrameSync, nil, nil},
		},
		{
			name:      "line error aborts frame",
			chars:     []link.Char{link.Start(3), 0x01, 0x02, 0x03, link.Start(0)},
			lineErrAt: 2,
			want:      [][]byte{{}},
			errs:      []error{nil, nil, link.ErrFrameSync, link.ErrFrameSync, nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rxq := queue.NewDefault()
			rx := link.NewReceiver(rxq)
			for i, c := range tt.chars {
				if i == tt.lineErrAt {
					rx.LineError()
				}
				err := rx.Receive(c)
				if tt.errs[i] == nil {
					assert.NoError(t, err, "char %d", i)
				} else {
					assert.ErrorIs(t, err, tt.errs[i], "char %d", i)
				}
			}
			var got [][]byte
			for c := rxq.Peek(); c != nil; c = rxq.Peek() {
				got = append(got, append([]byte{}, c.Payload()...))
				rxq.Release()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReceiverBufferFull(t *testing.T) {
	rxq := queue.NewDefault()
	rx := link.NewReceiver(rxq)
	for i := 0; i < rxq.Depth(); i++ {
		require.NoError(t, rx.Receive(link.Start(1)))
		require.NoError(t, rx.Receive(link.Data(byte(i))))
	}
	assert.ErrorIs(t, rx.Receive(link.Start(1)), link.ErrBufferFull)
	assert.ErrorIs(t, rx.Receive(link.Data(0xEE)), link.ErrFrameSync)
	assert.Equal(t, uint64(1), rx.Stats().Overflows.Load())

	rxq.Release()
	require.NoError(t, rx.Receive(link.Start(1)))
	require.NoError(t, rx.Receive(link.Data(0x42)))
	assert.Equal(t, rxq.Depth(), rxq.Level())
}

type recordingTracer struct {
	mu     sync.Mutex
	frames [][]byte
	in     []bool
}

func (r *recordingTracer) Log(in bool, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte{}, data...))
	r.in = append(r.in, in)
}

func TestTracerSeesFrames(t *testing.T) {
	txq := queue.NewDefault()
	rxq := queue.NewDefault()
	tr := &recordingTracer{}
	tx := link.NewTransmitter(txq, link.WithTracer(tr))
	rx := link.NewReceiver(rxq, link.WithTracer(tr))

	require.True(t, txq.Push([]byte{5, 6}))
	for _, c := range drainFrame(t, tx) {
		require.NoError(t, rx.Receive(c))
	}
	assert.Equal(t, [][]byte{{2, 5, 6}, {2, 5, 6}}, tr.frames)
	assert.Equal(t, []bool{false, true}, tr.in)
}

func TestPumpListenOverPipe(t *testing.T) {
	txq := queue.NewDefault()
	rxq := queue.New(7, queue.DefaultChunkSizeLog2)
	tx := link.NewTransmitter(txq)
	rx := link.NewReceiver(rxq)
	line := link.NewPipe(4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pumpDone := make(chan error, 1)
	listenDone := make(chan error, 1)
	go func() { pumpDone <- link.Pump(ctx, tx, line) }()
	go func() { listenDone <- link.Listen(ctx, rx, line) }()

	const total = 100
	for i := 0; i < total; {
		if txq.Push([]byte{byte(i), byte(i % 7)}) {
			i++
			continue
		}
		time.Sleep(time.Millisecond)
	}

	require.Eventually(t, func() bool { return rxq.Level() == total }, 5*time.Second, time.Millisecond)
	for i := 0; i < total; i++ {
		c := rxq.Peek()
		require.NotNil(t, c)
		assert.Equal(t, []byte{byte(i), byte(i % 7)}, []byte(c.Payload()))
		rxq.Release()
	}

	cancel()
	assert.ErrorIs(t, <-pumpDone, context.Canceled)
	require.NoError(t, line.Close())
	assert.NoError(t, <-listenDone)
}

func TestPipe(t *testing.T) {
	p := link.NewPipe(4)
	require.NoError(t, p.WriteChar(link.Start(1)))
	require.NoError(t, p.InjectLineError())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	c, err := p.ReadChar()
	require.NoError(t, err)
	assert.Equal(t, link.Start(1), c)
	_, err = p.ReadChar()
	assert.ErrorIs(t, err, link.ErrLine)
	_, err = p.ReadChar()
	assert.ErrorIs(t, err, io.EOF)

	assert.True(t, errors.Is(p.WriteChar(0x01), io.ErrClosedPipe))
}

func TestPipeErrorRate(t *testing.T) {
	p := link.NewPipe(8)
	p.SetErrorRate(1, nil)
	for i := 0; i < 4; i++ {
		require.NoError(t, p.WriteChar(link.Data(byte(i))))
	}
	for i := 0; i < 4; i++ {
		_, err := p.ReadChar()
		assert.ErrorIs(t, err, link.ErrLine)
	}
}

type charSink struct{ chars []link.Char }

func (s *charSink) WriteChar(c link.Char) error {
	s.chars = append(s.chars, c)
	return nil
}

func TestWriteFrames(t *testing.T) {
	sink := &charSink{}
	msgs := [][]byte{{0x40, 0xFF, 0, 0, 0, 2, 0, 0}, {1}}
	require.NoError(t, link.WriteFrames(sink, msgs))
	assert.Equal(t, []link.Char{
		link.Start(8), 0x40, 0xFF, 0, 0, 0, 2, 0, 0,
		link.Start(1), 0x01,
	}, sink.chars)

	err := link.WriteFrames(sink, [][]byte{make([]byte, 16)})
	assert.ErrorIs(t, err, link.ErrInvalidLength)
}
