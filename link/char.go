// Package link frames queue messages onto a 9-bit serial character stream.
//
// Wire format: a frame is a length character with the marker bit (bit 8) set,
// followed by length payload characters with the marker clear. The marker lets
// a receiver resynchronize after any line error by waiting for the next frame
// start.
package link

import "fmt"

// Char is one 9-bit serial character.
type Char uint16

// Marker is the frame-start bit.
const Marker Char = 0x100

// Start returns the frame-start character announcing a payload of n bytes.
func Start(n byte) Char { return Marker | Char(n) }

// Data returns a payload character.
func Data(b byte) Char { return Char(b) }

// IsStart reports whether c carries the marker bit.
func (c Char) IsStart() bool { return c&Marker != 0 }

// Byte returns the low 8 bits of c.
func (c Char) Byte() byte { return byte(c) }

func (c Char) String() string {
	if c.IsStart() {
		return fmt.Sprintf("S%02x", c.Byte())
	}
	return fmt.Sprintf("%02x", c.Byte())
}
