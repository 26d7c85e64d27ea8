package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/mwantia/webdesk/data"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	ss, err := NewSQLiteStore(t.Context(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { ss.Close() })
	return ss
}

func TestSQLiteStore_Users(t *testing.T) {
	ctx := t.Context()
	ss := newTestStore(t)

	alice := data.NewUser("alice", "hash-1")
	if err := ss.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := ss.CreateUser(ctx, data.NewUser("alice", "hash-2")); !errors.Is(err, data.ErrExist) {
		t.Errorf("expected ErrExist for duplicate username, got %v", err)
	}

	got, err := ss.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.ID != alice.ID || got.PasswordHash != "hash-1" {
		t.Errorf("unexpected user %+v", got)
	}

	if err := ss.UpdatePassword(ctx, alice.ID, "hash-3"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	got, _ = ss.GetUserByID(ctx, alice.ID)
	if got.PasswordHash != "hash-3" {
		t.Errorf("expected updated hash, got %q", got.PasswordHash)
	}

	if _, err := ss.GetUser(ctx, "nobody"); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if err := ss.UpdatePassword(ctx, "missing", "x"); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestSQLiteStore_RenameUser(t *testing.T) {
	ctx := t.Context()
	ss := newTestStore(t)

	alice := data.NewUser("alice", "h")
	bob := data.NewUser("bob", "h")
	for _, u := range []*data.User{alice, bob} {
		if err := ss.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	if err := ss.RenameUser(ctx, alice.ID, "bob"); !errors.Is(err, data.ErrExist) {
		t.Errorf("expected ErrExist, got %v", err)
	}
	if err := ss.RenameUser(ctx, alice.ID, "carol"); err != nil {
		t.Fatalf("RenameUser failed: %v", err)
	}

	if _, err := ss.GetUser(ctx, "alice"); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("old username must be gone, got %v", err)
	}
	got, err := ss.GetUser(ctx, "carol")
	if err != nil || got.ID != alice.ID {
		t.Errorf("expected carol to be alice's id, got %+v (%v)", got, err)
	}

	// The index must survive a reload from disk rows.
	ss.usernames.Clear()
	if err := ss.loadIndex(ctx); err != nil {
		t.Fatalf("loadIndex failed: %v", err)
	}
	if _, err := ss.GetUser(ctx, "carol"); err != nil {
		t.Errorf("expected carol after reload, got %v", err)
	}
}

func TestSQLiteStore_SharesAndSessions(t *testing.T) {
	ctx := t.Context()
	ss := newTestStore(t)

	alice := data.NewUser("alice", "h")
	if err := ss.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	forever := data.NewShare(alice.ID, "/docs", 0)
	daily := data.NewShare(alice.ID, "/pics/cat.png", 24*time.Hour)
	for _, s := range []*data.Share{forever, daily} {
		if err := ss.CreateShare(ctx, s); err != nil {
			t.Fatalf("CreateShare failed: %v", err)
		}
	}

	got, err := ss.GetShare(ctx, daily.Token)
	if err != nil {
		t.Fatalf("GetShare failed: %v", err)
	}
	if got.ExpiresAt == nil || got.Path != "/pics/cat.png" {
		t.Errorf("unexpected share %+v", got)
	}

	list, err := ss.ListShares(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListShares failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(list))
	}

	if err := ss.DeleteShare(ctx, "someone-else", forever.Token); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("foreign owner must not revoke, got %v", err)
	}
	if err := ss.DeleteShare(ctx, alice.ID, forever.Token); err != nil {
		t.Fatalf("DeleteShare failed: %v", err)
	}

	if err := ss.BindSession(ctx, "sid-1", alice.ID); err != nil {
		t.Fatalf("BindSession failed: %v", err)
	}
	userID, err := ss.SessionUser(ctx, "sid-1")
	if err != nil || userID != alice.ID {
		t.Errorf("expected alice bound, got %q (%v)", userID, err)
	}

	if err := ss.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := ss.SessionUser(ctx, "sid-1"); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("session binding must be removed with the user, got %v", err)
	}
	if _, err := ss.GetShare(ctx, daily.Token); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("shares must be removed with the user, got %v", err)
	}
	if _, err := ss.GetUser(ctx, "alice"); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("expected deleted user, got %v", err)
	}
	if err := ss.DeleteUser(ctx, alice.ID); !errors.Is(err, data.ErrNotExist) {
		t.Errorf("expected ErrNotExist on second delete, got %v", err)
	}
}
