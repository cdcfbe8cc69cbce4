package queue

// Chunk is one ring slot: byte 0 is the message length, the rest is payload
// storage. A Chunk aliases ring memory and is only valid between Reserve and
// Commit (producer) or Peek and Release (consumer).
type Chunk []byte

// Len returns the stored message length. The value is not bounds checked and
// may exceed the chunk when the producer stored a corrupt length.
func (c Chunk) Len() int {
	if len(c) == 0 {
		return 0
	}
	return int(c[0])
}

// Valid reports whether the stored length fits the chunk.
func (c Chunk) Valid() bool { return len(c) > 0 && c.Len() < len(c) }

// Payload returns the message payload, truncated to the chunk when the stored
// length is out of range.
func (c Chunk) Payload() []byte {
	if len(c) == 0 {
		return nil
	}
	n := c.Len()
	if n >= len(c) {
		n = len(c) - 1
	}
	return c[1 : 1+n]
}

// Data returns the writable payload area of the chunk.
func (c Chunk) Data() []byte {
	if len(c) == 0 {
		return nil
	}
	return c[1:]
}
