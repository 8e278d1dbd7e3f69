// Package registry stores user credentials.
package registry

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("user already exists")
)

// User is one credential row. Password holds the stored hash, never the
// plaintext.
type User struct {
	ID       int64
	Username string
	Password string
}

// Registry persists users. Usernames are unique.
type Registry interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, u *User) error
}
