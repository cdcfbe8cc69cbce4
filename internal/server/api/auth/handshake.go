package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"net"
)

const okPrefix = "OK\x00"

// IsHandshake reports whether r starts with Magic. It only waits for more
// bytes while the prefix read so far still matches.
func IsHandshake(r *bufio.Reader) bool {
	for n := 1; n <= len(Magic); n++ {
		b, err := r.Peek(n)
		if err != nil || b[n-1] != Magic[n-1] {
			return false
		}
	}
	return true
}

// Discard consumes a client handshake the server will not answer.
func Discard(r *bufio.Reader) error {
	_, err := r.Discard(len(Magic) + NonceSize + sha256.Size)
	return err
}

// Client authenticates conn with key and returns the encrypted connection.
// When the server rejects the password it answers with a problem line, which
// is returned as raw text in the error.
func Client(conn net.Conn, key []byte) (net.Conn, error) {
	cn, err := nonce()
	if err != nil {
		return nil, fmt.Errorf("client nonce: %w", err)
	}
	msg := append([]byte(Magic), cn...)
	msg = append(msg, proof(key, cn)...)
	if _, err := conn.Write(msg); err != nil {
		return nil, fmt.Errorf("write handshake: %w", err)
	}

	r := bufio.NewReader(conn)
	prefix := make([]byte, len(okPrefix))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if string(prefix) != okPrefix {
		rest, _ := io.ReadAll(r)
		return nil, &RejectedError{Line: string(append(prefix, rest...))}
	}
	sn := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, sn); err != nil {
		return nil, fmt.Errorf("read server nonce: %w", err)
	}
	c2s, s2c, err := sessionKeys(key, cn, sn)
	if err != nil {
		return nil, err
	}
	return newConn(conn, r, c2s, s2c)
}

// Server completes a handshake whose magic is waiting in r. On a bad
// password nothing is written and ErrUnauthorized is returned, so the caller
// can answer with its own error format.
func Server(conn net.Conn, r *bufio.Reader, key []byte) (net.Conn, error) {
	if _, err := r.Discard(len(Magic)); err != nil {
		return nil, fmt.Errorf("discard magic: %w", err)
	}
	cn := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, cn); err != nil {
		return nil, fmt.Errorf("read client nonce: %w", err)
	}
	got := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, got); err != nil {
		return nil, fmt.Errorf("read client proof: %w", err)
	}
	if !hmac.Equal(got, proof(key, cn)) {
		return nil, ErrUnauthorized
	}

	sn, err := nonce()
	if err != nil {
		return nil, fmt.Errorf("server nonce: %w", err)
	}
	if _, err := conn.Write(append([]byte(okPrefix), sn...)); err != nil {
		return nil, fmt.Errorf("write handshake: %w", err)
	}
	c2s, s2c, err := sessionKeys(key, cn, sn)
	if err != nil {
		return nil, err
	}
	return newConn(conn, r, s2c, c2s)
}

// RejectedError carries the server's answer to a failed handshake.
type RejectedError struct {
	Line string
}

func (e *RejectedError) Error() string { return "auth: handshake rejected: " + e.Line }

func (e *RejectedError) Unwrap() error { return ErrUnauthorized }
