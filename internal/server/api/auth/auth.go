// Package auth implements the optional password protection of the API.
//
// A client opens every connection with Magic, a random nonce and an HMAC of
// the nonce under the password key. The server answers "OK\x00" and its own
// nonce. Both sides then derive one key per direction from the two nonces and
// switch to length-prefixed ChaCha20-Poly1305 frames.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	Magic     = "LWC1\x00"
	NonceSize = 32
	KeySize   = 32

	keyContext = "lwclone-api-v1"
)

var (
	ErrEmptyPassword = errors.New("auth: password cannot be empty")
	ErrUnauthorized  = errors.New("auth: invalid password")
)

var salt = []byte("lwclone-api-salt")

// DeriveKey stretches password into the long-term API key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return argon2.IDKey([]byte(password), salt, 1, 8*1024, 2, KeySize), nil
}

func proof(key, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(keyContext))
	mac.Write(clientNonce)
	return mac.Sum(nil)
}

// sessionKeys derives the client-to-server and server-to-client keys.
func sessionKeys(key, clientNonce, serverNonce []byte) (c2s, s2c []byte, err error) {
	nonces := append(append([]byte{}, clientNonce...), serverNonce...)
	c2s = make([]byte, KeySize)
	s2c = make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nonces, []byte(keyContext+" c2s")), c2s); err != nil {
		return nil, nil, err
	}
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nonces, []byte(keyContext+" s2c")), s2c); err != nil {
		return nil, nil, err
	}
	return c2s, s2c, nil
}

func nonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	_, err := rand.Read(n)
	return n, err
}

// GeneratePassword returns a random password suitable for a key file.
func GeneratePassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
