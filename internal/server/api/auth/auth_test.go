package auth_test

import (
	"bufio"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/lwclone/internal/server/api/auth"
)

func TestDeriveKey(t *testing.T) {
	k1, err := auth.DeriveKey("secret")
	require.NoError(t, err)
	assert.Len(t, k1, auth.KeySize)

	k2, err := auth.DeriveKey("secret")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := auth.DeriveKey("other")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	_, err = auth.DeriveKey("")
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
}

type result struct {
	conn net.Conn
	err  error
}

func handshake(t *testing.T, clientPw, serverPw string) (client net.Conn, clientErr error, server result) {
	t.Helper()
	ck, err := auth.DeriveKey(clientPw)
	require.NoError(t, err)
	sk, err := auth.DeriveKey(serverPw)
	require.NoError(t, err)

	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })

	done := make(chan result, 1)
	go func() {
		r := bufio.NewReader(b)
		if !auth.IsHandshake(r) {
			done <- result{err: io.ErrUnexpectedEOF}
			return
		}
		c, err := auth.Server(b, r, sk)
		if err != nil {
			_, _ = b.Write([]byte(`{"status":401,"title":"Unauthorized","detail":"invalid password"}` + "\n"))
			_ = b.Close()
		}
		done <- result{c, err}
	}()
	client, clientErr = auth.Client(a, ck)
	return client, clientErr, <-done
}

func TestHandshakeAndFrames(t *testing.T) {
	client, err, srv := handshake(t, "secret", "secret")
	require.NoError(t, err)
	require.NoError(t, srv.err)

	go func() {
		_, _ = client.Write([]byte("ping\x00"))
		_, _ = client.Write([]byte("second"))
	}()
	buf := make([]byte, 64)
	n, err := io.ReadFull(srv.conn, buf[:5])
	require.NoError(t, err)
	assert.Equal(t, "ping\x00", string(buf[:n]))
	n, err = srv.conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "second", string(buf[:n]))

	go func() { _, _ = srv.conn.Write([]byte("pong\n")) }()
	n, err = client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "pong\n", string(buf[:n]))
}

func TestHandshakeWrongPassword(t *testing.T) {
	_, err, srv := handshake(t, "secret", "nope")
	assert.ErrorIs(t, srv.err, auth.ErrUnauthorized)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	var rej *auth.RejectedError
	if assert.ErrorAs(t, err, &rej) {
		assert.Contains(t, rej.Line, "invalid password")
	}
}
