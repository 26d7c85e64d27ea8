// Package store is the relational persistence contract for accounts, share links and the
// session to user bindings the terminal relies on.
package store

import (
	"context"
	"time"

	"github.com/mwantia/webdesk/data"
)

// Store persists users, share links and session identities.
// Lookups of missing rows return data.ErrNotExist; unique violations return data.ErrExist.
type Store interface {
	// Name returns the identifier of the implementation
	Name() string

	CreateUser(ctx context.Context, user *data.User) error
	GetUser(ctx context.Context, username string) (*data.User, error)
	GetUserByID(ctx context.Context, id string) (*data.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RenameUser(ctx context.Context, id, newUsername string) error

	// DeleteUser removes the user together with its share links and session bindings
	DeleteUser(ctx context.Context, id string) error

	CreateShare(ctx context.Context, share *data.Share) error
	GetShare(ctx context.Context, token string) (*data.Share, error)
	ListShares(ctx context.Context, owner string) ([]*data.Share, error)
	DeleteShare(ctx context.Context, owner, token string) error

	BindSession(ctx context.Context, sessionID, userID string) error
	SessionUser(ctx context.Context, sessionID string) (string, error)
	UnbindSession(ctx context.Context, sessionID string) error

	Close() error
}

// UnixOrNull converts an optional time into a nullable unix timestamp.
func UnixOrNull(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

// TimeOrNil converts a nullable unix timestamp back into an optional time.
func TimeOrNil(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}
