package panel

import (
	"fmt"
	"strings"
)

// KeyCode is the logical event an input is mapped to. The code space covers
// keyboard usages, two keyboard macros, modifiers, consumer controls, mouse
// buttons and the events of four digital joysticks.
type KeyCode uint8

// KeyNone leaves an input unmapped.
const KeyNone KeyCode = 0

// Keyboard usage codes.
const (
	KeyA KeyCode = 0x04 + iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyEnter
	KeyEsc
	KeyBackSpace
	KeyTab
	KeySpace
	KeyMinus
	KeyEqual
	KeyLeftBr
	KeyRightBr
	KeyBackSlash
	KeyHash
	KeySemicolon
	KeyQuotation
	KeyTilde
	KeyComma
	KeyDot
	KeySlash
	KeyCapsLock
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyPrtScr
	KeyScrLck
	KeyPause
	KeyIns
	KeyHome
	KeyPageUp
	KeyDel
	KeyEnd
	KeyPageDown
	KeyRightArrow
	KeyLeftArrow
	KeyDownArrow
	KeyUpArrow
	KeyNumLock
	KeyKPSlash
	KeyKPAst
	KeyKPMinus
	KeyKPPlus
	KeyKPEnter
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKP0
	KeyKPComma
	KeyEuro
	KeyApplication
)

// Keyboard macros expanding to a modifier plus a key.
const (
	KeyAltF4   KeyCode = 0x70 // Left Alt + F4
	KeyShiftF7 KeyCode = 0x71 // Left Shift + F7
)

// Modifier codes.
const (
	ModLeftControl KeyCode = 0x80 + iota
	ModLeftShift
	ModLeftAlt
	ModLeftGUI
	ModRightControl
	ModRightShift
	ModRightAlt
	ModRightGUI
)

// Consumer control codes.
const (
	ConsumerVolumeUp KeyCode = 0x90 + iota
	ConsumerVolumeDown
	ConsumerMute
)

// Mouse button codes.
const (
	MouseLeft KeyCode = 0x98 + iota
	MouseRight
	MouseMiddle
)

// EventsPerJoystick is the size of each joystick's block of codes.
const EventsPerJoystick = 12

// MaxJoysticks is the number of joystick code blocks.
const MaxJoysticks = 4

// Joystick codes. Joystick n (0-based) uses J1Left+n*EventsPerJoystick onwards.
const (
	J1Left KeyCode = 0xA0 + iota
	J1Right
	J1Up
	J1Down
	J1Button1
	J1Button2
	J1Button3
	J1Button4
	J1Button5
	J1Button6
	J1Button7
	J1Button8
	J2Left
	J2Right
	J2Up
	J2Down
	J2Button1
	J2Button2
	J2Button3
	J2Button4
	J2Button5
	J2Button6
	J2Button7
	J2Button8
	J3Left
	J3Right
	J3Up
	J3Down
	J3Button1
	J3Button2
	J3Button3
	J3Button4
	J3Button5
	J3Button6
	J3Button7
	J3Button8
	J4Left
	J4Right
	J4Up
	J4Down
	J4Button1
	J4Button2
	J4Button3
	J4Button4
	J4Button5
	J4Button6
	J4Button7
	J4Button8
)

var keyNames = map[KeyCode]string{
	KeyA:               "KEY_A",
	KeyB:               "KEY_B",
	KeyC:               "KEY_C",
	KeyD:               "KEY_D",
	KeyE:               "KEY_E",
	KeyF:               "KEY_F",
	KeyG:               "KEY_G",
	KeyH:               "KEY_H",
	KeyI:               "KEY_I",
	KeyJ:               "KEY_J",
	KeyK:               "KEY_K",
	KeyL:               "KEY_L",
	KeyM:               "KEY_M",
	KeyN:               "KEY_N",
	KeyO:               "KEY_O",
	KeyP:               "KEY_P",
	KeyQ:               "KEY_Q",
	KeyR:               "KEY_R",
	KeyS:               "KEY_S",
	KeyT:               "KEY_T",
	KeyU:               "KEY_U",
	KeyV:               "KEY_V",
	KeyW:               "KEY_W",
	KeyX:               "KEY_X",
	KeyY:               "KEY_Y",
	KeyZ:               "KEY_Z",
	Key1:               "KEY_1",
	Key2:               "KEY_2",
	Key3:               "KEY_3",
	Key4:               "KEY_4",
	Key5:               "KEY_5",
	Key6:               "KEY_6",
	Key7:               "KEY_7",
	Key8:               "KEY_8",
	Key9:               "KEY_9",
	Key0:               "KEY_0",
	KeyEnter:           "KEY_Enter",
	KeyEsc:             "KEY_Esc",
	KeyBackSpace:       "KEY_BackSpace",
	KeyTab:             "KEY_Tab",
	KeySpace:           "KEY_Space",
	KeyMinus:           "KEY_Minus",
	KeyEqual:           "KEY_Equal",
	KeyLeftBr:          "KEY_LeftBr",
	KeyRightBr:         "KEY_RightBr",
	KeyBackSlash:       "KEY_BackSlash",
	KeyHash:            "KEY_Hash",
	KeySemicolon:       "KEY_Semicolon",
	KeyQuotation:       "KEY_Quotation",
	KeyTilde:           "KEY_Tilde",
	KeyComma:           "KEY_Comma",
	KeyDot:             "KEY_Dot",
	KeySlash:           "KEY_Slash",
	KeyCapsLock:        "KEY_CapsLock",
	KeyF1:              "KEY_F1",
	KeyF2:              "KEY_F2",
	KeyF3:              "KEY_F3",
	KeyF4:              "KEY_F4",
	KeyF5:              "KEY_F5",
	KeyF6:              "KEY_F6",
	KeyF7:              "KEY_F7",
	KeyF8:              "KEY_F8",
	KeyF9:              "KEY_F9",
	KeyF10:             "KEY_F10",
	KeyF11:             "KEY_F11",
	KeyF12:             "KEY_F12",
	KeyPrtScr:          "KEY_PrtScr",
	KeyScrLck:          "KEY_ScrLck",
	KeyPause:           "KEY_Pause",
	KeyIns:             "KEY_Ins",
	KeyHome:            "KEY_Home",
	KeyPageUp:          "KEY_PageUp",
	KeyDel:             "KEY_Del",
	KeyEnd:             "KEY_End",
	KeyPageDown:        "KEY_PageDown",
	KeyRightArrow:      "KEY_RightArrow",
	KeyLeftArrow:       "KEY_LeftArrow",
	KeyDownArrow:       "KEY_DownArrow",
	KeyUpArrow:         "KEY_UpArrow",
	KeyNumLock:         "KEY_NumLock",
	KeyKPSlash:         "KEY_KP_Slash",
	KeyKPAst:           "KEY_KP_Ast",
	KeyKPMinus:         "KEY_KP_Minus",
	KeyKPPlus:          "KEY_KP_Plus",
	KeyKPEnter:         "KEY_KP_Enter",
	KeyKP1:             "KEY_KP_1",
	KeyKP2:             "KEY_KP_2",
	KeyKP3:             "KEY_KP_3",
	KeyKP4:             "KEY_KP_4",
	KeyKP5:             "KEY_KP_5",
	KeyKP6:             "KEY_KP_6",
	KeyKP7:             "KEY_KP_7",
	KeyKP8:             "KEY_KP_8",
	KeyKP9:             "KEY_KP_9",
	KeyKP0:             "KEY_KP_0",
	KeyKPComma:         "KEY_KP_Comma",
	KeyEuro:            "KEY_Euro",
	KeyApplication:     "KEY_Application",
	KeyAltF4:           "KM_ALT_F4",
	KeyShiftF7:         "KM_SHIFT_F7",
	ModLeftControl:     "MOD_LeftControl",
	ModLeftShift:       "MOD_LeftShift",
	ModLeftAlt:         "MOD_LeftAlt",
	ModLeftGUI:         "MOD_LeftGUI",
	ModRightControl:    "MOD_RightControl",
	ModRightShift:      "MOD_RightShift",
	ModRightAlt:        "MOD_RightAlt",
	ModRightGUI:        "MOD_RightGUI",
	ConsumerVolumeUp:   "AC_VolumeUp",
	ConsumerVolumeDown: "AC_VolumeDown",
	ConsumerMute:       "AC_Mute",
	MouseLeft:          "MB_Left",
	MouseRight:         "MB_Right",
	MouseMiddle:        "MB_Middle",
	J1Left:             "J1_Left",
	J1Right:            "J1_Right",
	J1Up:               "J1_Up",
	J1Down:             "J1_Down",
	J1Button1:          "J1_Button1",
	J1Button2:          "J1_Button2",
	J1Button3:          "J1_Button3",
	J1Button4:          "J1_Button4",
	J1Button5:          "J1_Button5",
	J1Button6:          "J1_Button6",
	J1Button7:          "J1_Button7",
	J1Button8:          "J1_Button8",
	J2Left:             "J2_Left",
	J2Right:            "J2_Right",
	J2Up:               "J2_Up",
	J2Down:             "J2_Down",
	J2Button1:          "J2_Button1",
	J2Button2:          "J2_Button2",
	J2Button3:          "J2_Button3",
	J2Button4:          "J2_Button4",
	J2Button5:          "J2_Button5",
	J2Button6:          "J2_Button6",
	J2Button7:          "J2_Button7",
	J2Button8:          "J2_Button8",
	J3Left:             "J3_Left",
	J3Right:            "J3_Right",
	J3Up:               "J3_Up",
	J3Down:             "J3_Down",
	J3Button1:          "J3_Button1",
	J3Button2:          "J3_Button2",
	J3Button3:          "J3_Button3",
	J3Button4:          "J3_Button4",
	J3Button5:          "J3_Button5",
	J3Button6:          "J3_Button6",
	J3Button7:          "J3_Button7",
	J3Button8:          "J3_Button8",
	J4Left:             "J4_Left",
	J4Right:            "J4_Right",
	J4Up:               "J4_Up",
	J4Down:             "J4_Down",
	J4Button1:          "J4_Button1",
	J4Button2:          "J4_Button2",
	J4Button3:          "J4_Button3",
	J4Button4:          "J4_Button4",
	J4Button5:          "J4_Button5",
	J4Button6:          "J4_Button6",
	J4Button7:          "J4_Button7",
	J4Button8:          "J4_Button8",
}

var keysByName = func() map[string]KeyCode {
	m := make(map[string]KeyCode, len(keyNames))
	for k, n := range keyNames {
		m[strings.ToLower(n)] = k
	}
	return m
}()

func (k KeyCode) String() string {
	if k == KeyNone {
		return ""
	}
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("0x%02x", uint8(k))
}

// ParseKeyCode resolves a key name such as "KEY_Esc", "MOD_LeftShift" or
// "J2_Button3" (case-insensitive). The empty string and "none" map to KeyNone;
// a numeric value such as "0x29" is accepted for codes without a name.
func ParseKeyCode(s string) (KeyCode, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return KeyNone, nil
	}
	if k, ok := keysByName[strings.ToLower(s)]; ok {
		return k, nil
	}
	var v uint8
	if _, err := fmt.Sscanf(s, "0x%x", &v); err == nil {
		return KeyCode(v), nil
	}
	return KeyNone, fmt.Errorf("unknown key %q", s)
}

// IsKeyboard reports whether k is carried by the keyboard report. Modifiers
// and the macros count as keyboard codes.
func (k KeyCode) IsKeyboard() bool { return k >= KeyA && k <= ModRightGUI }

// IsModifier reports whether k is a modifier.
func (k KeyCode) IsModifier() bool { return k >= ModLeftControl && k <= ModRightGUI }

// IsConsumer reports whether k is a consumer control.
func (k KeyCode) IsConsumer() bool { return k >= ConsumerVolumeUp && k <= ConsumerMute }

// IsMouseButton reports whether k is a mouse button.
func (k KeyCode) IsMouseButton() bool { return k >= MouseLeft && k <= MouseMiddle }

// Joystick returns the 0-based joystick k belongs to and the event offset
// within its block (0 left, 1 right, 2 up, 3 down, 4.. buttons).
func (k KeyCode) Joystick() (joy, event int, ok bool) {
	d := int(k) - int(J1Left)
	if d < 0 || d >= MaxJoysticks*EventsPerJoystick {
		return 0, 0, false
	}
	return d / EventsPerJoystick, d % EventsPerJoystick, true
}
