// Package jwtcodec issues and verifies compact JWTs whose registered claims
// and application payload share one flat JSON object.
package jwtcodec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every verification failure: malformed structure,
	// unexpected algorithm or a bad signature. The cause is deliberately
	// not distinguished.
	ErrInvalidToken = errors.New("invalid token")

	// ErrClaimCollision is returned by Issue when the private payload uses a
	// registered claim name.
	ErrClaimCollision = errors.New("private claim collides with a registered claim")

	ErrTokenExpired     = jwt.ErrTokenExpired
	ErrTokenNotYetValid = jwt.ErrTokenNotValidYet
)

// Codec binds one Algorithm. It holds no mutable state and may be shared.
type Codec struct {
	alg    Algorithm
	parser *jwt.Parser
}

// New returns a codec signing with alg.
func New(alg Algorithm) *Codec {
	return &Codec{
		alg:    alg,
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

// Algorithm reports the bound algorithm's name.
func (c *Codec) Algorithm() string { return c.alg.Name() }

// Issue serializes the header, the merged claims and their signature.
func (c *Codec) Issue(registered jwt.RegisteredClaims, private any) (string, error) {
	merged, err := mergeClaims(registered, private)
	if err != nil {
		return "", err
	}

	token := &jwt.Token{
		Header: map[string]any{"typ": "JWT", "alg": c.alg.Name()},
		Claims: merged,
	}
	signingString, err := token.SigningString()
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	sig, err := c.alg.Sign(signingString)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signingString + "." + token.EncodeSegment(sig), nil
}

// Decode checks the token's signature and algorithm, then fills private with
// the non-registered claims. Expiry is not checked.
func (c *Codec) Decode(tokenString string, private any) (jwt.RegisteredClaims, error) {
	var registered jwt.RegisteredClaims

	token, parts, err := c.parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return registered, ErrInvalidToken
	}
	if alg, _ := token.Header["alg"].(string); alg != c.alg.Name() {
		return registered, ErrInvalidToken
	}
	if err := c.alg.Verify(parts[0]+"."+parts[1], token.Signature); err != nil {
		return registered, ErrInvalidToken
	}

	payload, err := c.parser.DecodeSegment(parts[1])
	if err != nil {
		return registered, ErrInvalidToken
	}
	if err := json.Unmarshal(payload, &registered); err != nil {
		return registered, ErrInvalidToken
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return registered, ErrInvalidToken
	}
	for name := range registeredNames {
		delete(fields, name)
	}
	rest, err := json.Marshal(fields)
	if err != nil {
		return registered, ErrInvalidToken
	}
	if err := json.Unmarshal(rest, private); err != nil {
		return registered, ErrInvalidToken
	}
	return registered, nil
}

// Sign issues a token for claims.
func Sign[P any](c *Codec, claims *Claims[P]) (string, error) {
	return c.Issue(claims.Registered, claims.Private)
}

// Verify decodes a token into typed claims.
func Verify[P any](c *Codec, tokenString string) (*Claims[P], error) {
	claims := &Claims[P]{}
	registered, err := c.Decode(tokenString, &claims.Private)
	if err != nil {
		return nil, err
	}
	claims.Registered = registered
	return claims, nil
}

func mergeClaims(registered jwt.RegisteredClaims, private any) (jwt.MapClaims, error) {
	merged := jwt.MapClaims{}

	if err := mergeObject(merged, registered); err != nil {
		return nil, err
	}
	if private == nil {
		return merged, nil
	}

	b, err := json.Marshal(private)
	if err != nil {
		return nil, fmt.Errorf("encode private claims: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("private claims must encode to a JSON object: %w", err)
	}
	for name, v := range fields {
		if _, taken := registeredNames[name]; taken {
			return nil, fmt.Errorf("%w: %q", ErrClaimCollision, name)
		}
		merged[name] = v
	}
	return merged, nil
}

func mergeObject(dst jwt.MapClaims, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode registered claims: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("decode registered claims: %w", err)
	}
	for name, raw := range fields {
		dst[name] = raw
	}
	return nil
}
