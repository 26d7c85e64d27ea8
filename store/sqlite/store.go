package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/store"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists accounts in SQLite and keeps an in-memory B-tree of
// username → user id so username lookups and uniqueness checks skip the database.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB

	// In-memory B-tree for fast username lookups
	usernames *btree.Map[string, string]
}

var _ store.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dbPath and loads the username index.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys for cascading deletes
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if dbPath != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, err
		}
	}

	ss := &SQLiteStore{
		db:        db,
		usernames: btree.NewMap[string, string](0),
	}

	if err := ss.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := ss.loadIndex(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return ss, nil
}

func (ss *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shares (
		token TEXT PRIMARY KEY,
		owner TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_shares_owner ON shares(owner);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL
	);
	`

	_, err := ss.db.ExecContext(ctx, schema)
	return err
}

func (ss *SQLiteStore) loadIndex(ctx context.Context) error {
	rows, err := ss.db.QueryContext(ctx, "SELECT username, id FROM users")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var username, id string
		if err := rows.Scan(&username, &id); err != nil {
			return err
		}
		ss.usernames.Set(username, id)
	}

	return rows.Err()
}

// Name returns the identifier name defined for this store
func (*SQLiteStore) Name() string {
	return "sqlite"
}

func (ss *SQLiteStore) CreateUser(ctx context.Context, user *data.User) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, exists := ss.usernames.Get(user.Username); exists {
		return data.ErrExist
	}

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.PasswordHash, user.CreatedAt.Unix(), user.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return data.ErrExist
		}
		return err
	}

	ss.usernames.Set(user.Username, user.ID)
	return nil
}

func (ss *SQLiteStore) GetUser(ctx context.Context, username string) (*data.User, error) {
	ss.mu.RLock()
	id, exists := ss.usernames.Get(username)
	ss.mu.RUnlock()

	if !exists {
		return nil, data.ErrNotExist
	}
	return ss.GetUserByID(ctx, id)
}

func (ss *SQLiteStore) GetUserByID(ctx context.Context, id string) (*data.User, error) {
	var user data.User
	var createdAt, updatedAt int64

	err := ss.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at, updated_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	user.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &user, nil
}

func (ss *SQLiteStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := ss.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (ss *SQLiteStore) RenameUser(ctx context.Context, id, newUsername string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, exists := ss.usernames.Get(newUsername); exists {
		return data.ErrExist
	}

	var oldUsername string
	err := ss.db.QueryRowContext(ctx, "SELECT username FROM users WHERE id = ?", id).Scan(&oldUsername)
	if errors.Is(err, sql.ErrNoRows) {
		return data.ErrNotExist
	}
	if err != nil {
		return err
	}

	_, err = ss.db.ExecContext(ctx, `
		UPDATE users SET username = ?, updated_at = ? WHERE id = ?
	`, newUsername, time.Now().Unix(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return data.ErrExist
		}
		return err
	}

	ss.usernames.Delete(oldUsername)
	ss.usernames.Set(newUsername, id)
	return nil
}

func (ss *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	var username string
	err := ss.db.QueryRowContext(ctx, "SELECT username FROM users WHERE id = ?", id).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return data.ErrNotExist
	}
	if err != nil {
		return err
	}

	// The pragma only covers one pooled connection, so dependents are removed explicitly.
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM shares WHERE owner = ?",
		"DELETE FROM sessions WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	ss.usernames.Delete(username)
	return nil
}

func (ss *SQLiteStore) CreateShare(ctx context.Context, share *data.Share) error {
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO shares (token, owner, path, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
	`, share.Token, share.Owner, share.Path, share.CreatedAt.Unix(), store.UnixOrNull(share.ExpiresAt))
	if err != nil && isUniqueViolation(err) {
		return data.ErrExist
	}
	return err
}

func (ss *SQLiteStore) GetShare(ctx context.Context, token string) (*data.Share, error) {
	share, err := scanShare(ss.db.QueryRowContext(ctx, `
		SELECT token, owner, path, created_at, expires_at FROM shares WHERE token = ?
	`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	return share, err
}

func (ss *SQLiteStore) ListShares(ctx context.Context, owner string) ([]*data.Share, error) {
	rows, err := ss.db.QueryContext(ctx, `
		SELECT token, owner, path, created_at, expires_at FROM shares WHERE owner = ? ORDER BY created_at, token
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := make([]*data.Share, 0)
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

func (ss *SQLiteStore) DeleteShare(ctx context.Context, owner, token string) error {
	result, err := ss.db.ExecContext(ctx, "DELETE FROM shares WHERE owner = ? AND token = ?", owner, token)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (ss *SQLiteStore) BindSession(ctx context.Context, sessionID, userID string) error {
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET user_id = excluded.user_id, created_at = excluded.created_at
	`, sessionID, userID, time.Now().Unix())
	return err
}

func (ss *SQLiteStore) SessionUser(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := ss.db.QueryRowContext(ctx, "SELECT user_id FROM sessions WHERE session_id = ?", sessionID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", data.ErrNotExist
	}
	return userID, err
}

func (ss *SQLiteStore) UnbindSession(ctx context.Context, sessionID string) error {
	_, err := ss.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
	return err
}

func (ss *SQLiteStore) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.usernames.Clear()
	return ss.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShare(row rowScanner) (*data.Share, error) {
	var share data.Share
	var createdAt int64
	var expiresAt sql.NullInt64

	if err := row.Scan(&share.Token, &share.Owner, &share.Path, &createdAt, &expiresAt); err != nil {
		return nil, err
	}

	share.CreatedAt = time.Unix(createdAt, 0).UTC()
	if expiresAt.Valid {
		share.ExpiresAt = store.TimeOrNil(&expiresAt.Int64)
	}
	return &share, nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return data.ErrNotExist
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
