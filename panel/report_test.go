package panel_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/panel"
)

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    panel.Report
		wantErr error
	}{
		{"keyboard", []byte{1, 0x02, 0x04, 0x05, 0, 0, 0, 0}, panel.KeyboardReport{Modifiers: 0x02, Keys: [6]uint8{0x04, 0x05}}, nil},
		{"consumer", []byte{2, 0x04}, panel.ConsumerReport{Controls: 0x04}, nil},
		{"joystick 2", []byte{4, 0x1F, 0x02}, panel.JoystickReport{Joystick: 1, X: -1, Y: 1, Buttons: 0x02}, nil},
		{"joystick 4 centered", []byte{6, 0, 0}, panel.JoystickReport{Joystick: 3}, nil},
		{"mouse", []byte{7, 0x01, 0xFE, 0x03}, panel.MouseReport{Buttons: 0x01, DX: -2, DY: 3}, nil},
		{"empty", nil, nil, io.ErrUnexpectedEOF},
		{"short keyboard", []byte{1, 0, 4}, nil, io.ErrUnexpectedEOF},
		{"short joystick", []byte{3, 0x0F}, nil, io.ErrUnexpectedEOF},
		{"unknown", []byte{9, 0, 0}, nil, panel.ErrUnknownReport},
		{"id zero", []byte{0}, nil, panel.ErrUnknownReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := panel.ParseReport(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.BuildReport())
		})
	}
}

func TestKeyCodeNames(t *testing.T) {
	tests := []struct {
		in   string
		want panel.KeyCode
	}{
		{"KEY_Esc", panel.KeyEsc},
		{"key_esc", panel.KeyEsc},
		{"KM_ALT_F4", panel.KeyAltF4},
		{"AC_Mute", panel.ConsumerMute},
		{"J1_Button1", panel.J1Button1},
		{"MB_Left", panel.MouseLeft},
		{"0x29", panel.KeyEsc},
		{"", panel.KeyNone},
		{"none", panel.KeyNone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := panel.ParseKeyCode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := panel.ParseKeyCode("KEY_Nope")
	assert.Error(t, err)
	assert.Equal(t, "J2_Up", panel.J2Up.String())

	joy, event, ok := panel.J3Button2.Joystick()
	assert.True(t, ok)
	assert.Equal(t, 2, joy)
	assert.Equal(t, 5, event)
	_, _, ok = panel.KeyA.Joystick()
	assert.False(t, ok)
}
