package jwtcodec

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm signs and verifies the "header.claims" signing string with a key
// bound at construction.
type Algorithm interface {
	// Name is the JOSE "alg" value written into the token header.
	Name() string
	Sign(signingString string) ([]byte, error)
	Verify(signingString string, sig []byte) error
}

type hmacAlgorithm struct {
	method *jwt.SigningMethodHMAC
	key    []byte
}

func (a *hmacAlgorithm) Name() string { return a.method.Alg() }

func (a *hmacAlgorithm) Sign(signingString string) ([]byte, error) {
	return a.method.Sign(signingString, a.key)
}

func (a *hmacAlgorithm) Verify(signingString string, sig []byte) error {
	return a.method.Verify(signingString, sig, a.key)
}

// HS256 returns HMAC-SHA256 keyed with key.
func HS256(key []byte) Algorithm { return &hmacAlgorithm{method: jwt.SigningMethodHS256, key: key} }

// HS384 returns HMAC-SHA384 keyed with key.
func HS384(key []byte) Algorithm { return &hmacAlgorithm{method: jwt.SigningMethodHS384, key: key} }

// HS512 returns HMAC-SHA512 keyed with key.
func HS512(key []byte) Algorithm { return &hmacAlgorithm{method: jwt.SigningMethodHS512, key: key} }

// ParseAlgorithm picks an algorithm by its JOSE name, case-insensitively.
func ParseAlgorithm(name string, key []byte) (Algorithm, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("empty signing key")
	}
	switch strings.ToUpper(name) {
	case "HS256", "":
		return HS256(key), nil
	case "HS384":
		return HS384(key), nil
	case "HS512":
		return HS512(key), nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", name)
	}
}
