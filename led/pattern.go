package led

// Animated modes. Mode values up to the maximum brightness are constant
// levels; every other value not listed here switches the channel off.
const (
	ModeTriangle  uint8 = 129
	ModeRectangle uint8 = 130
	ModeFall      uint8 = 131
	ModeRise      uint8 = 132
)

// Level returns the PWM level of a channel in mode at animation phase.
// The result is in [0, full].
func Level(mode uint8, phase uint16, full uint8) uint8 {
	if mode <= full {
		return mode
	}
	m := uint32(full)
	switch mode {
	case ModeTriangle:
		x := uint32(phase >> 8)
		if x&0x80 != 0 {
			x = 255 - x
		}
		return uint8((m * x) >> 7)
	case ModeRectangle:
		if phase&0x8000 != 0 {
			return full
		}
		return 0
	case ModeFall:
		x := 255 - uint32(phase>>8)
		return uint8((m * x) >> 8)
	case ModeRise:
		x := uint32(phase >> 8)
		return uint8((m * x) >> 8)
	default:
		return 0
	}
}

// ModeName returns a short description of mode for diagnostics.
func ModeName(mode uint8, full uint8) string {
	switch {
	case mode <= full:
		return "constant"
	case mode == ModeTriangle:
		return "triangle"
	case mode == ModeRectangle:
		return "rectangle"
	case mode == ModeFall:
		return "fall"
	case mode == ModeRise:
		return "rise"
	default:
		return "off"
	}
}
