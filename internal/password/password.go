// Package password hashes credentials with a process-wide secret.
package password

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
)

// Scheme selects how new hashes are stored.
type Scheme string

const (
	// SchemeKeyed stores hex(BLAKE2b-256 keyed with the secret).
	SchemeKeyed Scheme = "keyed"
	// SchemeBcrypt stores bcrypt over the keyed digest.
	SchemeBcrypt Scheme = "bcrypt"
)

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("password mismatch")

// Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	key    [32]byte
	scheme Scheme
	cost   int
}

// New derives the hashing key from secret.
func New(secret string, scheme Scheme) (*Hasher, error) {
	if secret == "" {
		return nil, errors.New("empty password salt")
	}
	switch scheme {
	case "":
		scheme = SchemeKeyed
	case SchemeKeyed, SchemeBcrypt:
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
	return &Hasher{
		key:    blake2b.Sum256([]byte(secret)),
		scheme: scheme,
		cost:   bcrypt.DefaultCost,
	}, nil
}

func (h *Hasher) keyed(plaintext string) string {
	mac, err := blake2b.New256(h.key[:])
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// Hash returns the stored form of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest := h.keyed(plaintext)
	if h.scheme != SchemeBcrypt {
		return digest, nil
	}
	b, err := bcrypt.GenerateFromPassword([]byte(digest), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify checks plaintext against a stored hash of either scheme.
func (h *Hasher) Verify(plaintext, stored string) error {
	digest := h.keyed(plaintext)
	if strings.HasPrefix(stored, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(digest)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrMismatch
			}
			return fmt.Errorf("bcrypt: %w", err)
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) != 1 {
		return ErrMismatch
	}
	return nil
}
