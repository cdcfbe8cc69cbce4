package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const maxFrame = 1 << 20

var ErrFrameTooLarge = errors.New("auth: frame too large")

// Conn seals every Write into one frame: a big-endian uint32 length followed
// by the ciphertext. Nonces are per-direction counters, never sent.
type Conn struct {
	net.Conn
	r io.Reader

	wmu     sync.Mutex
	send    cipher.AEAD
	sendCtr uint64

	recv    cipher.AEAD
	recvCtr uint64
	pending bytes.Buffer
}

func newConn(conn net.Conn, r io.Reader, sendKey, recvKey []byte) (*Conn, error) {
	send, err := chacha20poly1305.New(sendKey)
	if err != nil {
		return nil, err
	}
	recv, err := chacha20poly1305.New(recvKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, r: r, send: send, recv: recv}, nil
}

func counterNonce(ctr uint64) []byte {
	n := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(n[4:], ctr)
	return n
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	ct := c.send.Seal(nil, counterNonce(c.sendCtr), p, nil)
	c.sendCtr++
	frame := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(ct)), uint32(len(ct)))
	if _, err := c.Conn.Write(append(frame, ct...)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) Read(p []byte) (int, error) {
	if c.pending.Len() == 0 {
		var hdr [4]byte
		if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
			return 0, err
		}
		n := binary.BigEndian.Uint32(hdr[:])
		if n > maxFrame {
			return 0, ErrFrameTooLarge
		}
		ct := make([]byte, n)
		if _, err := io.ReadFull(c.r, ct); err != nil {
			return 0, err
		}
		pt, err := c.recv.Open(nil, counterNonce(c.recvCtr), ct, nil)
		if err != nil {
			return 0, err
		}
		c.recvCtr++
		c.pending.Write(pt)
	}
	return c.pending.Read(p)
}
