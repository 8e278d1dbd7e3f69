package jwtcodec

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// registeredNames are the claim names owned by jwt.RegisteredClaims. A
// private payload may not reuse them.
var registeredNames = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
}

// Claims keeps the registered and private claims apart. They are merged into
// a single flat object only when a token is issued.
type Claims[P any] struct {
	Registered jwt.RegisteredClaims
	Private    P
}

// NewClaims wraps a private payload with empty registered claims.
func NewClaims[P any](private P) *Claims[P] {
	return &Claims[P]{Private: private}
}

func (c *Claims[P]) Issuer(iss string) *Claims[P] {
	c.Registered.Issuer = iss
	return c
}

func (c *Claims[P]) Subject(sub string) *Claims[P] {
	c.Registered.Subject = sub
	return c
}

func (c *Claims[P]) Audience(aud ...string) *Claims[P] {
	c.Registered.Audience = jwt.ClaimStrings(aud)
	return c
}

func (c *Claims[P]) ID(jti string) *Claims[P] {
	c.Registered.ID = jti
	return c
}

func (c *Claims[P]) ExpiresAt(t time.Time) *Claims[P] {
	c.Registered.ExpiresAt = jwt.NewNumericDate(t)
	return c
}

func (c *Claims[P]) NotBefore(t time.Time) *Claims[P] {
	c.Registered.NotBefore = jwt.NewNumericDate(t)
	return c
}

func (c *Claims[P]) IssuedAt(t time.Time) *Claims[P] {
	c.Registered.IssuedAt = jwt.NewNumericDate(t)
	return c
}

// ValidFor sets the expiration to now plus d.
func (c *Claims[P]) ValidFor(d time.Duration) *Claims[P] {
	return c.ExpiresAt(time.Now().Add(d))
}

func (c *Claims[P]) ValidSecs(n int) *Claims[P] {
	return c.ValidFor(time.Duration(n) * time.Second)
}

func (c *Claims[P]) ValidMins(n int) *Claims[P] {
	return c.ValidFor(time.Duration(n) * time.Minute)
}

func (c *Claims[P]) ValidHours(n int) *Claims[P] {
	return c.ValidFor(time.Duration(n) * time.Hour)
}

func (c *Claims[P]) ValidDays(n int) *Claims[P] {
	return c.ValidFor(time.Duration(n) * 24 * time.Hour)
}

// ValidateTime checks exp and nbf against now. Verify never does this on its
// own; callers that need temporal validity call it explicitly.
func (c *Claims[P]) ValidateTime(now time.Time) error {
	if exp := c.Registered.ExpiresAt; exp != nil && !now.Before(exp.Time) {
		return ErrTokenExpired
	}
	if nbf := c.Registered.NotBefore; nbf != nil && now.Before(nbf.Time) {
		return ErrTokenNotYetValid
	}
	return nil
}
