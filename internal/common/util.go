package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns n random bytes hex-encoded, 2*n characters long.
// Session ids are RandomToken(32).
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomBytes returns n bytes from crypto/rand. It is used for salts,
// where a read failure leaves no sensible fallback.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// Wipe zeroes b. Password buffers are wiped once hashed or sent.
func Wipe(b []byte) {
	clear(b)
}
