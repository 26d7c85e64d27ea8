package store

import (
	"context"
	"errors"
	"time"

	"github.com/mwantia/webdesk/data"
)

// Statter resolves a home-relative path of the share owner.
type Statter interface {
	Stat(ctx context.Context, p string) (*data.Entry, error)
}

// ShareBook manages the share links of one owner.
type ShareBook struct {
	store Store
	owner string
	files Statter
}

func NewShareBook(st Store, owner string, files Statter) *ShareBook {
	return &ShareBook{
		store: st,
		owner: owner,
		files: files,
	}
}

// Create links the existing path p; a zero ttl never expires.
func (sb *ShareBook) Create(ctx context.Context, p string, ttl time.Duration) (*data.Share, error) {
	if ttl < 0 {
		return nil, data.ErrInvalid
	}

	entry, err := sb.files.Stat(ctx, p)
	if err != nil {
		return nil, err
	}

	share := data.NewShare(sb.owner, entry.Path, ttl)
	if err := sb.store.CreateShare(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

func (sb *ShareBook) List(ctx context.Context) ([]*data.Share, error) {
	return sb.store.ListShares(ctx, sb.owner)
}

func (sb *ShareBook) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return data.ErrInvalid
	}
	return sb.store.DeleteShare(ctx, sb.owner, token)
}

// ResolveShare returns a share that exists and has not expired at now.
func ResolveShare(ctx context.Context, st Store, token string, now time.Time) (*data.Share, error) {
	share, err := st.GetShare(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.Expired(now) {
		return nil, errors.Join(data.ErrNotExist, errors.New("share link expired"))
	}
	return share, nil
}
