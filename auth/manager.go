// Package auth verifies credentials, binds terminal sessions to accounts and provisions
// each account's home directory.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/home"
	"github.com/mwantia/webdesk/log"
	"github.com/mwantia/webdesk/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores everything past 72 bytes
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,31}$`)

// Manager owns account operations; Session binds them to one terminal session.
type Manager struct {
	store store.Store
	tree  home.Tree
	quota int64
	cost  int
	log   *log.Logger
}

type ManagerOption func(*Manager) error

// WithQuota limits every home to bytes; zero disables the limit.
func WithQuota(bytes int64) ManagerOption {
	return func(m *Manager) error {
		if bytes < 0 {
			return fmt.Errorf("invalid quota %d", bytes)
		}
		m.quota = bytes
		return nil
	}
}

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) ManagerOption {
	return func(m *Manager) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("invalid bcrypt cost %d", cost)
		}
		m.cost = cost
		return nil
	}
}

func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) error {
		m.log = logger
		return nil
	}
}

func NewManager(st store.Store, tree home.Tree, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		store: st,
		tree:  tree,
		cost:  bcrypt.DefaultCost,
		log:   log.Discard(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Session returns the account view of one terminal session.
func (m *Manager) Session(sessionID string) *Session {
	return &Session{
		manager:   m,
		sessionID: sessionID,
	}
}

// Collaborators returns the account, file and share views of sessionID.
// Files and shares are nil while the session is not signed in.
func (m *Manager) Collaborators(ctx context.Context, sessionID string) (command.Auth, command.Files, command.Shares, error) {
	session := m.Session(sessionID)
	files, shares, err := session.Workspace(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return session, files, shares, nil
}

// Share resolves a public link that exists and has not expired.
func (m *Manager) Share(ctx context.Context, token string) (*data.Share, error) {
	return store.ResolveShare(ctx, m.store, token, time.Now())
}

// NormalizeUsername lowercases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername returns a user-facing reason when username is unacceptable.
func ValidateUsername(username string) string {
	if !usernamePattern.MatchString(username) {
		return "Username must be 3-32 characters of a-z, 0-9, '_' or '-' and start with a letter or digit."
	}
	return ""
}

// ValidatePassword returns a user-facing reason when password is unacceptable.
func ValidatePassword(password string) string {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength)
	case len(password) > MaxPasswordLength:
		return fmt.Sprintf("Password must be at most %d bytes.", MaxPasswordLength)
	}
	return ""
}

func (m *Manager) hash(password string) (string, error) {
	buf, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func verify(user *data.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// register creates the account and its home, removing the record again when the home fails.
func (m *Manager) register(ctx context.Context, username, password string) (*data.User, error) {
	hash, err := m.hash(password)
	if err != nil {
		return nil, err
	}

	user := data.NewUser(username, hash)
	if err := m.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := home.CreateHome(ctx, m.tree, user.ID); err != nil {
		errs := data.Errors{}
		errs.Add(fmt.Errorf("failed to create home: %w", err))
		errs.Add(home.DeleteHome(ctx, m.tree, user.ID))
		errs.Add(m.store.DeleteUser(ctx, user.ID))
		return nil, errs.Errors()
	}

	m.log.Info("Registered account '%s' (%s)", user.Username, user.ID)
	return user, nil
}

// remove deletes the account record and its home.
func (m *Manager) remove(ctx context.Context, user *data.User) error {
	if err := home.DeleteHome(ctx, m.tree, user.ID); err != nil {
		return fmt.Errorf("failed to delete home: %w", err)
	}
	if err := m.store.DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, data.ErrNotExist) {
		return err
	}

	m.log.Info("Deleted account '%s' (%s)", user.Username, user.ID)
	return nil
}
