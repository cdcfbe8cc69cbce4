package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/clock"
	"github.com/Alia5/lwclone/dispatch"
	"github.com/Alia5/lwclone/led"
	"github.com/Alia5/lwclone/panel"
	"github.com/Alia5/lwclone/queue"
)

type recorder struct {
	cmds [][]byte
	err  error
}

func (r *recorder) ApplyCommand(cmd []byte) error {
	if r.err != nil {
		return r.err
	}
	r.cmds = append(r.cmds, append([]byte(nil), cmd...))
	return nil
}

type reports [][]byte

func (r *reports) NextReport() ([]byte, bool) {
	if len(*r) == 0 {
		return nil, false
	}
	out := (*r)[0]
	*r = (*r)[1:]
	return out, true
}

type hook struct {
	id   int
	boot bool
}

func (h *hook) SetID(id uint8) error   { h.id = int(id); return nil }
func (h *hook) EnterBootloader() error { h.boot = true; return nil }

func TestLEDControllerCommandsFirst(t *testing.T) {
	rx, tx := queue.NewDefault(), queue.NewDefault()
	sink := &recorder{}
	src := &reports{{2, 1}}
	c := dispatch.NewLEDController(rx, tx, sink, src, nil)

	cmd := []byte{64, 1, 0, 0, 0, 1, 0, 0}
	require.True(t, rx.Push(cmd))
	require.True(t, rx.Push([]byte{1, 2, 3}))

	assert.True(t, c.Step())
	assert.Equal(t, [][]byte{cmd}, sink.cmds)
	assert.Equal(t, 0, tx.Level(), "report waits while commands are pending")

	assert.True(t, c.Step())
	assert.Len(t, sink.cmds, 1, "short frame dropped")

	assert.True(t, c.Step())
	buf := make([]byte, 16)
	n, ok := tx.Pop(buf)
	require.True(t, ok)
	assert.Equal(t, []byte{2, 1}, buf[:n])

	assert.False(t, c.Step())
	s := c.Stats().Snapshot()
	assert.Equal(t, dispatch.StatsSnapshot{Commands: 1, BadCommands: 1, Reports: 1}, s)
}

func TestLEDControllerTxOverflow(t *testing.T) {
	rx, tx := queue.NewDefault(), queue.New(1, 4)
	src := &reports{{2, 1}, {2, 2}, {2, 4}}
	c := dispatch.NewLEDController(rx, tx, &recorder{}, src, nil)

	for c.Step() {
	}
	assert.Equal(t, 2, tx.Level())
	assert.Equal(t, uint64(1), c.Stats().TxOverflows.Load())
}

func TestLEDControllerWithoutPanel(t *testing.T) {
	c := dispatch.NewLEDController(queue.NewDefault(), nil, &recorder{}, nil, nil)
	assert.False(t, c.Step())
}

func TestLEDControllerRun(t *testing.T) {
	rx := queue.NewDefault()
	sink := &recorder{}
	c := dispatch.NewLEDController(rx, nil, sink, nil, nil)
	require.True(t, rx.Push(make([]byte, 8)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx, clock.New())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.cmds, 1)
}

func TestSetReport(t *testing.T) {
	tests := []struct {
		name     string
		cmd      []byte
		hook     bool
		wantErr  error
		wantCmds int
		wantID   int
		wantBoot bool
	}{
		{"state", []byte{64, 1, 0, 0, 0, 1, 0, 0}, true, nil, 1, 0, false},
		{"profile", []byte{1, 2, 3, 4, 5, 6, 7, 8}, true, nil, 1, 0, false},
		{"short", []byte{64, 1}, true, led.ErrCommandSize, 0, 0, false},
		{"set id", []byte{65, 3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC}, true, nil, 0, 3, false},
		{"set id checksum", []byte{65, 3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}, true, dispatch.ErrSetID, 0, 0, false},
		{"set id filler", []byte{65, 3, 0xFF, 0, 0xFF, 0xFF, 0xFF, 0xFC}, true, dispatch.ErrSetID, 0, 0, false},
		{"set id no hook", []byte{65, 3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC}, false, dispatch.ErrNoConfig, 0, 0, false},
		{"bootloader", []byte{66, 0, 0, 0, 0, 0, 0, 0}, true, nil, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recorder{}
			h := &hook{}
			var cfg dispatch.ConfigHook
			if tt.hook {
				cfg = h
			}
			c := dispatch.NewUSBController(sink, cfg, nil)
			err := c.SetReport(tt.cmd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, sink.cmds, tt.wantCmds)
			assert.Equal(t, tt.wantID, h.id)
			assert.Equal(t, tt.wantBoot, h.boot)
		})
	}
}

func TestSetReportIntoQueue(t *testing.T) {
	tx := queue.New(0, 4)
	c := dispatch.NewUSBController(dispatch.QueueSink{Queue: tx}, nil, nil)
	cmd := []byte{64, 1, 0, 0, 0, 1, 0, 0}
	require.NoError(t, c.SetReport(cmd))
	assert.ErrorIs(t, c.SetReport(cmd), queue.ErrFull)
	assert.Equal(t, uint64(1), c.Stats().TxOverflows.Load())
}

func TestQueueSourceDropsBadSizes(t *testing.T) {
	q := queue.NewDefault()
	src := &dispatch.QueueSource{Queue: q}
	require.True(t, q.Push([]byte{1}))
	require.True(t, q.Push(make([]byte, 9)))
	require.True(t, q.Push([]byte{3, 0x0F, 1}))

	r, ok := src.NextReport()
	require.True(t, ok)
	assert.Equal(t, []byte{3, 0x0F, 1}, r)
	assert.Equal(t, uint64(2), src.Dropped.Load())

	_, ok = src.NextReport()
	assert.False(t, ok)
}

func TestUSBControllerSourcesInOrder(t *testing.T) {
	p, err := panel.New(panel.Config{
		Inputs:     []panel.Input{{Normal: panel.KeyA}},
		ShiftInput: panel.NoInput,
	}, nil)
	require.NoError(t, err)
	for range 6 {
		p.Scan(panel.PinsFunc(func(int) bool { return true }))
	}

	link := &reports{{2, 4}}
	c := dispatch.NewUSBController(&recorder{}, nil, nil, link, dispatch.PanelSource{Panel: p})

	r, ok := c.NextReport()
	require.True(t, ok)
	assert.Equal(t, []byte{2, 4}, r)
	r, ok = c.NextReport()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 0, 0x04, 0, 0, 0, 0, 0}, r)
	_, ok = c.NextReport()
	assert.False(t, ok)
}

func TestPoll(t *testing.T) {
	q := queue.NewDefault()
	c := dispatch.NewUSBController(&recorder{}, nil, nil, &dispatch.QueueSource{Queue: q})
	require.True(t, q.Push([]byte{2, 1}))
	require.True(t, q.Push([]byte{2, 2}))

	stop := errors.New("stop")
	var got [][]byte
	err := c.Poll(context.Background(), clock.New(), func(r []byte) error {
		got = append(got, r)
		if len(got) == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, [][]byte{{2, 1}, {2, 2}}, got)
}

func TestParseSetID(t *testing.T) {
	id, err := dispatch.ParseSetID([]byte{65, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), id)
	_, err = dispatch.ParseSetID([]byte{64, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	assert.ErrorIs(t, err, dispatch.ErrSetID)
}
