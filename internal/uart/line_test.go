package uart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/Alia5/lwclone/link"
)

type write struct {
	b      byte
	parity serial.Parity
}

type fakePort struct {
	parity  serial.Parity
	writes  []write
	drains  int
	modeErr error
	closed  bool
}

func (f *fakePort) SetMode(m *serial.Mode) error {
	if f.modeErr != nil {
		return f.modeErr
	}
	f.parity = m.Parity
	return nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	for _, b := range p {
		f.writes = append(f.writes, write{b: b, parity: f.parity})
	}
	return len(p), nil
}

func (f *fakePort) Drain() error { f.drains++; return nil }
func (f *fakePort) Close() error { f.closed = true; return nil }

func TestLineParityCarriesMarker(t *testing.T) {
	p := &fakePort{parity: serial.SpaceParity}
	l := New(p, serial.Mode{BaudRate: 115200, Parity: serial.SpaceParity}, nil)

	msgs := [][]byte{{0x40, 0x01, 0, 0, 0, 1, 0, 0}, {30, 0, 0, 0, 0, 0, 0, 0}}
	require.NoError(t, link.WriteFrames(l, msgs))

	require.Len(t, p.writes, 18)
	for i, w := range p.writes {
		if i == 0 || i == 9 {
			assert.Equal(t, serial.MarkParity, w.parity, "byte %d", i)
			assert.Equal(t, byte(8), w.b)
			continue
		}
		assert.Equal(t, serial.SpaceParity, w.parity, "byte %d", i)
	}
	assert.Equal(t, byte(30), p.writes[10].b)
	assert.Equal(t, 4, p.drains, "one drain per parity switch")

	require.NoError(t, l.Close())
	assert.True(t, p.closed)
}

func TestLineModeError(t *testing.T) {
	p := &fakePort{modeErr: errors.New("unsupported")}
	l := New(p, serial.Mode{Parity: serial.SpaceParity}, nil)

	assert.NoError(t, l.WriteChar(link.Data(1)))
	err := l.WriteChar(link.Start(1))
	assert.ErrorContains(t, err, "set parity")
	assert.Len(t, p.writes, 1)
}
