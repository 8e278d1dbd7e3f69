package jwtcodec

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identity struct {
	Username string `json:"username"`
}

func TestRoundTripEveryAlgorithm(t *testing.T) {
	key := []byte("0123456789abcdef")
	for _, alg := range []Algorithm{HS256(key), HS384(key), HS512(key)} {
		t.Run(alg.Name(), func(t *testing.T) {
			c := New(alg)
			assert.Equal(t, alg.Name(), c.Algorithm())
			claims := NewClaims(identity{Username: "bob"}).Issuer("sachima").ValidDays(3)

			token, err := Sign(c, claims)
			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(token, "."))

			got, err := Verify[identity](c, token)
			require.NoError(t, err)
			assert.Equal(t, "bob", got.Private.Username)
			assert.Equal(t, "sachima", got.Registered.Issuer)
			require.NotNil(t, got.Registered.ExpiresAt)
			assert.Equal(t, claims.Registered.ExpiresAt.Unix(), got.Registered.ExpiresAt.Unix())
		})
	}
}

func TestClaimsAreFlat(t *testing.T) {
	c := New(HS256([]byte("k")))
	token, err := Sign(c, NewClaims(identity{Username: "amy"}).Subject("42"))
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	require.NoError(t, err)
	var obj map[string]any
	require.NoError(t, json.Unmarshal(payload, &obj))
	assert.Equal(t, map[string]any{"username": "amy", "sub": "42"}, obj)

	header, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"alg":"HS256","typ":"JWT"}`, string(header))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	token, err := Sign(New(HS256([]byte("right"))), NewClaims(identity{Username: "bob"}))
	require.NoError(t, err)

	_, err = Verify[identity](New(HS256([]byte("wrong"))), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	key := []byte("same-key")
	token, err := Sign(New(HS384(key)), NewClaims(identity{Username: "bob"}))
	require.NoError(t, err)

	_, err = Verify[identity](New(HS256(key)), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := New(HS256([]byte("k")))
	token, err := Sign(c, NewClaims(identity{Username: "bob"}))
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"username":"root"}`))
	cases := map[string]string{
		"payload swapped": parts[0] + "." + forged + "." + parts[2],
		"two parts":       parts[0] + "." + parts[1],
		"garbage":         "not-a-token",
		"empty":           "",
		"bad signature":   parts[0] + "." + parts[1] + ".!!!",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Verify[identity](c, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"username": "bob"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Verify[identity](New(HS256([]byte("k"))), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyDoesNotCheckExpiry(t *testing.T) {
	c := New(HS256([]byte("k")))
	token, err := Sign(c, NewClaims(identity{Username: "bob"}).ExpiresAt(time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	claims, err := Verify[identity](c, token)
	require.NoError(t, err)
	assert.ErrorIs(t, claims.ValidateTime(time.Now()), ErrTokenExpired)
}

func TestValidateTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := NewClaims(identity{}).ExpiresAt(now.Add(time.Minute)).NotBefore(now.Add(-time.Minute))
	assert.NoError(t, c.ValidateTime(now))
	assert.ErrorIs(t, c.ValidateTime(now.Add(time.Minute)), ErrTokenExpired)
	assert.ErrorIs(t, c.ValidateTime(now.Add(-2*time.Minute)), ErrTokenNotYetValid)

	assert.NoError(t, NewClaims(identity{}).ValidateTime(now))
}

func TestValidHelpers(t *testing.T) {
	start := time.Now()
	cases := map[string]struct {
		claims *Claims[identity]
		want   time.Duration
	}{
		"secs":  {NewClaims(identity{}).ValidSecs(30), 30 * time.Second},
		"mins":  {NewClaims(identity{}).ValidMins(5), 5 * time.Minute},
		"hours": {NewClaims(identity{}).ValidHours(2), 2 * time.Hour},
		"days":  {NewClaims(identity{}).ValidDays(3), 72 * time.Hour},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := tc.claims.Registered.ExpiresAt.Sub(start)
			assert.InDelta(t, tc.want.Seconds(), got.Seconds(), 2)
		})
	}
}

func TestIssueRejectsCollision(t *testing.T) {
	c := New(HS256([]byte("k")))
	_, err := c.Issue(jwt.RegisteredClaims{}, map[string]any{"exp": 1})
	assert.ErrorIs(t, err, ErrClaimCollision)

	_, err = c.Issue(jwt.RegisteredClaims{}, []string{"not", "an", "object"})
	assert.Error(t, err)
}

func TestDecodeStripsRegisteredNamesFromMapPayload(t *testing.T) {
	c := New(HS512([]byte("k")))
	token, err := c.Issue(jwt.RegisteredClaims{Issuer: "x"}, map[string]any{"role": "admin"})
	require.NoError(t, err)

	var private map[string]any
	registered, err := c.Decode(token, &private)
	require.NoError(t, err)
	assert.Equal(t, "x", registered.Issuer)
	assert.Equal(t, map[string]any{"role": "admin"}, private)
}

func TestParseAlgorithm(t *testing.T) {
	for _, name := range []string{"HS256", "hs384", "HS512", ""} {
		alg, err := ParseAlgorithm(name, []byte("k"))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(alg.Name(), "HS"))
	}
	_, err := ParseAlgorithm("RS256", []byte("k"))
	assert.Error(t, err)
	_, err = ParseAlgorithm("HS256", nil)
	assert.Error(t, err)
}
