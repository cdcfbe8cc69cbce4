package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/led"
)

func TestPBACommands(t *testing.T) {
	zero := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	tests := []struct {
		name    string
		pba     PBA
		want    [][]byte
		wantErr bool
	}{
		{
			name: "single partial bank",
			pba:  PBA{Modes: []uint8{49, 129}},
			want: [][]byte{{49, 129, 0, 0, 0, 0, 0, 0}, zero, zero, zero},
		},
		{
			name: "two banks",
			pba:  PBA{Modes: []uint8{1, 2, 3, 4, 5, 6, 7, 8, 132}},
			want: [][]byte{{1, 2, 3, 4, 5, 6, 7, 8}, {132, 0, 0, 0, 0, 0, 0, 0}, zero, zero},
		},
		{
			name: "board with higher resolution",
			pba:  PBA{Modes: []uint8{100}, MaxBrightness: 100},
			want: [][]byte{{100, 0, 0, 0, 0, 0, 0, 0}, zero, zero, zero},
		},
		{name: "above board resolution", pba: PBA{Modes: []uint8{21}, MaxBrightness: 20}, wantErr: true},
		{name: "resolution overlaps patterns", pba: PBA{Modes: []uint8{1}, MaxBrightness: 129}, wantErr: true},
		{name: "none", pba: PBA{}, wantErr: true},
		{name: "too many", pba: PBA{Modes: make([]uint8, 33)}, wantErr: true},
		{name: "state command value", pba: PBA{Modes: []uint8{64}}, wantErr: true},
		{name: "unknown pattern", pba: PBA{Modes: []uint8{0, 133}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pba.Commands()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPBARunsStartAtChannelZero(t *testing.T) {
	e, err := led.New(led.Config{Channels: led.MaxChannels}, nil, nil)
	require.NoError(t, err)
	e.Apply([8]byte{led.StateCommand, 0xff, 0xff, 0xff, 0xff, 1})

	apply := func(modes ...uint8) {
		cmds, err := (&PBA{Modes: modes}).Commands()
		require.NoError(t, err)
		for _, cmd := range cmds {
			require.NoError(t, e.ApplyCommand(cmd))
		}
	}
	apply(30)
	apply(10)

	chans := e.Snapshot().Channels
	assert.Equal(t, uint8(10), chans[0].Mode)
	assert.Equal(t, uint8(0), chans[8].Mode)
}
