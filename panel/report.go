package panel

import (
	"errors"
	"fmt"
	"io"
)

// ReportID is the first byte of every panel report.
type ReportID uint8

const (
	IDUnknown ReportID = iota
	IDKeyboard
	IDConsumer
	IDJoystick1
	IDJoystick2
	IDJoystick3
	IDJoystick4
	IDMouse
)

// MaxReportSize is the largest serialized report.
const MaxReportSize = 8

// ErrUnknownReport is returned by ParseReport for an unrecognized report id.
var ErrUnknownReport = errors.New("panel: unknown report id")

// Report is one HID input report produced by the panel.
type Report interface {
	ID() ReportID
	// BuildReport encodes the report, id byte first.
	BuildReport() []byte
}

// KeyboardReport carries modifier bits and up to six key usages.
//
// Report layout (8 bytes):
//
//	Byte 0: IDKeyboard
//	Byte 1: Modifiers
//	Bytes 2-7: Key usages, zero padded
type KeyboardReport struct {
	Modifiers uint8
	Keys      [6]uint8
}

func (KeyboardReport) ID() ReportID { return IDKeyboard }

func (r KeyboardReport) BuildReport() []byte {
	b := make([]byte, 8)
	b[0] = byte(IDKeyboard)
	b[1] = r.Modifiers
	copy(b[2:], r.Keys[:])
	return b
}

// ConsumerReport carries one bit per consumer control.
type ConsumerReport struct {
	Controls uint8
}

func (ConsumerReport) ID() ReportID { return IDConsumer }

func (r ConsumerReport) BuildReport() []byte { return []byte{byte(IDConsumer), r.Controls} }

// Joystick axis nibbles.
const (
	joyLeft  = 0x0F
	joyRight = 0x01
	joyUp    = 0xF0
	joyDown  = 0x10
)

// JoystickReport is one digital joystick. X and Y are -1, 0 or 1 (left/up
// negative); bit k of Buttons is button k+1.
//
// Report layout (3 bytes):
//
//	Byte 0: IDJoystick1 + Joystick
//	Byte 1: X nibble (0x0F left, 0x01 right) | Y nibble (0xF0 up, 0x10 down)
//	Byte 2: Buttons
type JoystickReport struct {
	Joystick int
	X, Y     int8
	Buttons  uint8
}

func (r JoystickReport) ID() ReportID { return IDJoystick1 + ReportID(r.Joystick) }

func (r JoystickReport) BuildReport() []byte {
	var axes uint8
	switch {
	case r.X < 0:
		axes |= joyLeft
	case r.X > 0:
		axes |= joyRight
	}
	switch {
	case r.Y < 0:
		axes |= joyUp
	case r.Y > 0:
		axes |= joyDown
	}
	return []byte{byte(r.ID()), axes, r.Buttons}
}

// MouseReport carries button bits and the relative motion since the last
// mouse report.
type MouseReport struct {
	Buttons uint8
	DX, DY  int8
}

func (MouseReport) ID() ReportID { return IDMouse }

func (r MouseReport) BuildReport() []byte {
	return []byte{byte(IDMouse), r.Buttons, byte(r.DX), byte(r.DY)}
}

// ParseReport decodes a serialized report.
func ParseReport(b []byte) (Report, error) {
	if len(b) < 1 {
		return nil, io.ErrUnexpectedEOF
	}
	need := map[ReportID]int{IDKeyboard: 8, IDConsumer: 2, IDMouse: 4}
	id := ReportID(b[0])
	n, ok := need[id]
	if id >= IDJoystick1 && id <= IDJoystick4 {
		n, ok = 3, true
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReport, b[0])
	}
	if len(b) < n {
		return nil, io.ErrUnexpectedEOF
	}

	switch {
	case id == IDKeyboard:
		r := KeyboardReport{Modifiers: b[1]}
		copy(r.Keys[:], b[2:8])
		return r, nil
	case id == IDConsumer:
		return ConsumerReport{Controls: b[1]}, nil
	case id == IDMouse:
		return MouseReport{Buttons: b[1], DX: int8(b[2]), DY: int8(b[3])}, nil
	default:
		r := JoystickReport{Joystick: int(id - IDJoystick1), Buttons: b[2]}
		switch b[1] & 0x0F {
		case joyLeft:
			r.X = -1
		case joyRight:
			r.X = 1
		}
		switch b[1] & 0xF0 {
		case joyUp:
			r.Y = -1
		case joyDown:
			r.Y = 1
		}
		return r, nil
	}
}
