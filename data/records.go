package data

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// User is the persisted account record.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a user record with a fresh time-ordered id.
func NewUser(username, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Share is a public link to one path inside an owner's home tree.
type Share struct {
	Token     string     `json:"token"`
	Owner     string     `json:"owner"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewShare creates a share link with a random token. A zero ttl never expires.
func NewShare(owner, p string, ttl time.Duration) *Share {
	now := time.Now().UTC()
	share := &Share{
		Token:     uuid.NewString(),
		Owner:     owner,
		Path:      p,
		CreatedAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		share.ExpiresAt = &expires
	}
	return share
}

// Expired reports whether the link is no longer valid at now.
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Entry describes one file or directory of a home tree.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Mode    FileMode  `json:"mode"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// NewEntry builds an entry for the cleaned absolute path p.
func NewEntry(p string, mode FileMode, size int64, modTime time.Time) *Entry {
	name := path.Base(p)
	if p == "/" {
		name = "/"
	}
	return &Entry{
		Name:    name,
		Path:    p,
		Mode:    mode,
		Size:    size,
		ModTime: modTime,
	}
}

func (e *Entry) IsDir() bool {
	return e.Mode.IsDir()
}

// Usage reports consumed and available storage in bytes.
type Usage struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
}

// Percent returns the consumed share of Total, or 0 for an unlimited quota.
func (u Usage) Percent() float64 {
	if u.Total <= 0 {
		return 0
	}
	return float64(u.Used) * 100 / float64(u.Total)
}

// Remaining returns the free bytes left, never negative.
func (u Usage) Remaining() int64 {
	if u.Total <= 0 || u.Used >= u.Total {
		return 0
	}
	return u.Total - u.Used
}
