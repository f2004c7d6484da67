package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomToken(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"session id", 32, 64},
		{"short", 4, 8},
		{"empty", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := RandomToken(tt.n)
			require.NoError(t, err)
			assert.Len(t, s, tt.want)

			_, err = hex.DecodeString(s)
			assert.NoError(t, err)
		})
	}
}

func TestRandomToken_Distinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		s, err := RandomToken(32)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "duplicate token %s", s)
		seen[s] = struct{}{}
	}
}

func TestRandomBytes(t *testing.T) {
	a := RandomBytes(16)
	b := RandomBytes(16)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestWipe(t *testing.T) {
	pw := []byte("hunter2")
	Wipe(pw)
	assert.Equal(t, make([]byte, 7), pw)

	assert.NotPanics(t, func() { Wipe(nil) })
}
