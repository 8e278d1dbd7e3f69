// Package auth issues bearer tokens for registered users and guards routes
// that require one.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sachima/sachima/internal/jwtcodec"
	"github.com/sachima/sachima/internal/logging"
	"github.com/sachima/sachima/internal/metrics"
	"github.com/sachima/sachima/internal/password"
	"github.com/sachima/sachima/internal/registry"
	"github.com/sachima/sachima/internal/reply"
)

// DefaultTokenTTL is how long a login token stays valid.
const DefaultTokenTTL = 3 * 24 * time.Hour

// Issuer is written into the iss claim of every token.
const Issuer = "sachima"

// Identity is the private payload of every token.
type Identity struct {
	Username string `json:"username"`
}

// UserInfo is what /user/info reports about the caller.
type UserInfo struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Auth ties the token codec, the password hasher and the registry together.
// It is built once at startup and shared by every request.
type Auth struct {
	codec    *jwtcodec.Codec
	hasher   *password.Hasher
	registry registry.Registry
	ttl      time.Duration
	now      func() time.Time
}

// New creates an Auth. A non-positive ttl selects DefaultTokenTTL.
func New(codec *jwtcodec.Codec, hasher *password.Hasher, reg registry.Registry, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{
		codec:    codec,
		hasher:   hasher,
		registry: reg,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Register stores a new user. Registry errors, including
// registry.ErrUserExists, are returned unchanged.
func (a *Auth) Register(ctx context.Context, username, plaintext string) error {
	hash, err := a.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.registry.Insert(ctx, &registry.User{Username: username, Password: hash}); err != nil {
		return err
	}
	logging.WithContext(ctx).Info("user registered", zap.String("username", username))
	return nil
}

// Login checks the credentials and returns a signed token.
func (a *Auth) Login(ctx context.Context, username, plaintext string) (string, error) {
	user, err := a.registry.FindByUsername(ctx, username)
	if errors.Is(err, registry.ErrNotFound) {
		metrics.RecordAuthAttempt("login", false)
		return "", reply.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := a.hasher.Verify(plaintext, user.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			metrics.RecordAuthAttempt("login", false)
			return "", reply.ErrIncorrectPassword
		}
		return "", fmt.Errorf("verify password: %w", err)
	}

	now := a.now()
	claims := jwtcodec.NewClaims(Identity{Username: user.Username}).
		Issuer(Issuer).
		IssuedAt(now).
		ExpiresAt(now.Add(a.ttl))
	token, err := jwtcodec.Sign(a.codec, claims)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	metrics.RecordAuthAttempt("login", true)
	logging.WithContext(ctx).Info("user logged in", zap.String("username", user.Username))
	return token, nil
}

// Authenticate verifies a bearer token and enforces its validity window.
func (a *Auth) Authenticate(token string) (*Identity, error) {
	claims, err := jwtcodec.Verify[Identity](a.codec, token)
	if err != nil {
		return nil, err
	}
	if err := claims.ValidateTime(a.now()); err != nil {
		return nil, err
	}
	if claims.Private.Username == "" {
		return nil, jwtcodec.ErrInvalidToken
	}
	return &claims.Private, nil
}

// Info describes the caller. Every authenticated user is an admin.
func Info(id *Identity) UserInfo {
	return UserInfo{Username: id.Username, Roles: []string{"admin"}}
}
