// Package cryptox implements password hashing for stored credentials.
//
// Hashes are argon2id keys encoded together with the parameters that
// produced them:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 key>
//
// The salt is kept separately (base64) next to the hash.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	KeySize  = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

// Params are the argon2id cost parameters.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultParams match the cost used for vault keys before: one pass over
// 64 MiB on four lanes.
var DefaultParams = Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}

// DeriveKey runs argon2id. Same password, salt and params always give the
// same key.
func DeriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize)
}

// HashPassword derives a hash for password under a fresh random salt.
func HashPassword(password []byte, p Params) (salt string, hash string, err error) {
	if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
		return "", "", fmt.Errorf("invalid argon2 params %+v", p)
	}
	s := common.RandomBytes(SaltSize)
	key := DeriveKey(password, s, p)
	return base64.StdEncoding.EncodeToString(s), encode(key, p), nil
}

// VerifyPassword re-derives the key for password with the recorded salt and
// parameters and compares it in constant time. A mismatch is (false, nil);
// undecodable input is an error.
func VerifyPassword(password []byte, hash, salt string) (bool, error) {
	p, key, err := decode(hash)
	if err != nil {
		return false, err
	}
	s, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	candidate := DeriveKey(password, s, p)
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

// NeedsRehash reports whether hash was produced with parameters other than p.
// Unparseable hashes always need a rehash.
func NeedsRehash(hash string, p Params) bool {
	got, _, err := decode(hash)
	if err != nil {
		return true
	}
	return got != p
}

func encode(key []byte, p Params) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(key))
}

func decode(hash string) (Params, []byte, error) {
	var p Params

	parts := strings.Split(hash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", key
	if len(parts) != 5 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Threads); err != nil {
		return p, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return p, nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return p, key, nil
}
