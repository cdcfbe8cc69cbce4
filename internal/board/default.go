package board

func intp(v int) *int { return &v }

// Default returns the built-in Pro Micro board: fourteen panel inputs on
// ports B to E, two quadrature encoders on the last four unmapped inputs
// and the two active-low RX/TX LEDs.
func Default() *Board {
	return &Board{
		Name:      "promicro",
		Joysticks: 2,
		Shift:     intp(13),
		Mouse:     &Mouse{XClk: 9, XDir: 10, YClk: 11, YDir: 12, DeltaX: 2, DeltaY: 2},
		Inputs: []Input{
			{Name: "D0", Normal: "KEY_Esc"},
			{Name: "D1", Normal: "KEY_1", Shift: "KEY_P"},
			{Name: "D2", Normal: "KEY_2", Shift: "AC_Mute"},
			{Name: "D3", Normal: "KEY_5", Shift: "KEY_5"},
			{Name: "D4", Normal: "J1_Up", Shift: "KEY_UpArrow"},
			{Name: "D5", Normal: "J1_Left", Shift: "KEY_LeftArrow"},
			{Name: "D6", Normal: "J1_Right", Shift: "KEY_RightArrow"},
			{Name: "D7", Normal: "J1_Down", Shift: "KEY_DownArrow"},
			{Name: "D8", Normal: "J1_Button1", Shift: "KEY_Enter"},
			{Name: "D9"},
			{Name: "D10"},
			{Name: "D14"},
			{Name: "D15"},
			{Name: "D16"},
		},
		LEDs: []LED{
			{Name: "RX", Inverted: true},
			{Name: "TX", Inverted: true},
		},
	}
}
