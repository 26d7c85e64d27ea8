package interaction

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists states in a sqlite table so pending workflows survive restarts.
// Locks are process-local; one server process owns the database file.
type SQLiteStore struct {
	db    *sql.DB
	codec *Codec
	locks *keyedMutex
}

// NewSQLiteStore opens dbPath, which may be ":memory:" for tests.
func NewSQLiteStore(dbPath string, codec *Codec) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if codec == nil {
		codec = &Codec{}
	}

	store := &SQLiteStore{
		db:    db,
		codec: codec,
		locks: newKeyedMutex(),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (ss *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interaction_state (
		session_id TEXT PRIMARY KEY,
		record BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := ss.db.Exec(schema)
	return err
}

func (ss *SQLiteStore) Load(ctx context.Context, sessionID string) (State, error) {
	var buf []byte
	err := ss.db.QueryRowContext(ctx, `
		SELECT record FROM interaction_state WHERE session_id = ?
	`, sessionID).Scan(&buf)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	return ss.codec.Decode(buf)
}

func (ss *SQLiteStore) Save(ctx context.Context, sessionID string, state State) error {
	if state.IsZero() {
		_, err := ss.db.ExecContext(ctx, `
			DELETE FROM interaction_state WHERE session_id = ?
		`, sessionID)
		return err
	}

	buf, err := ss.codec.Encode(state)
	if err != nil {
		return err
	}

	_, err = ss.db.ExecContext(ctx, `
		INSERT INTO interaction_state (session_id, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`, sessionID, buf, time.Now().Unix())
	return err
}

func (ss *SQLiteStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	return ss.locks.Lock(ctx, sessionID)
}

func (ss *SQLiteStore) Close(_ context.Context) error {
	return ss.db.Close()
}
