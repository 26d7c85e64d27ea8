package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/home"
	"github.com/mwantia/webdesk/store"
)

const guestName = "guest"

// Session implements command.Auth for one terminal session.
type Session struct {
	manager   *Manager
	sessionID string
}

var _ command.Auth = (*Session)(nil)

func failure(format string, args ...any) command.Result {
	return command.Result{Message: fmt.Sprintf(format, args...)}
}

func success(format string, args ...any) command.Result {
	return command.Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// User returns the signed-in account, or nil for a guest session.
func (s *Session) User(ctx context.Context) (*data.User, error) {
	userID, err := s.manager.store.SessionUser(ctx, s.sessionID)
	if errors.Is(err, data.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := s.manager.store.GetUserByID(ctx, userID)
	if errors.Is(err, data.ErrNotExist) {
		// Binding outlived its account.
		return nil, s.manager.store.UnbindSession(ctx, s.sessionID)
	}
	return user, err
}

func (s *Session) IsLoggedIn(ctx context.Context) bool {
	user, err := s.User(ctx)
	if err != nil {
		s.manager.log.Warn("Failed to resolve session '%s': %v", s.sessionID, err)
		return false
	}
	return user != nil
}

func (s *Session) WhoAmI(ctx context.Context) (string, error) {
	user, err := s.User(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return guestName, nil
	}
	return user.Username, nil
}

func (s *Session) Login(ctx context.Context, username, password string) (command.Result, error) {
	current, err := s.User(ctx)
	if err != nil {
		return command.Result{}, err
	}
	if current != nil {
		return failure("Already logged in as %s. Use 'logout' first.", current.Username), nil
	}

	user, err := s.manager.store.GetUser(ctx, NormalizeUsername(username))
	if errors.Is(err, data.ErrNotExist) {
		return failure("Invalid username or password."), nil
	}
	if err != nil {
		return command.Result{}, err
	}
	if !verify(user, password) {
		s.manager.log.Debug("Rejected password for '%s'", user.Username)
		return failure("Invalid username or password."), nil
	}

	if err := s.manager.store.BindSession(ctx, s.sessionID, user.ID); err != nil {
		return command.Result{}, err
	}
	return success("Login successful. Welcome, %s!", user.Username), nil
}

func (s *Session) Register(ctx context.Context, username, password string) (command.Result, error) {
	username = NormalizeUsername(username)
	if reason := ValidateUsername(username); reason != "" {
		return failure("%s", reason), nil
	}
	if reason := ValidatePassword(password); reason != "" {
		return failure("%s", reason), nil
	}

	user, err := s.manager.register(ctx, username, password)
	if errors.Is(err, data.ErrExist) {
		return failure("Username '%s' is already taken.", username), nil
	}
	if err != nil {
		return command.Result{}, err
	}
	return success("Registration successful. You can now log in as %s.", user.Username), nil
}

func (s *Session) Logout(ctx context.Context) (string, error) {
	user, err := s.User(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "You are not logged in.", nil
	}

	if err := s.manager.store.UnbindSession(ctx, s.sessionID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Goodbye, %s. You have been logged out.", user.Username), nil
}

// signedIn loads the current user and checks password against it.
func (s *Session) signedIn(ctx context.Context, password string) (*data.User, command.Result, error) {
	user, err := s.User(ctx)
	if err != nil {
		return nil, command.Result{}, err
	}
	if user == nil {
		return nil, failure("You are not logged in."), nil
	}
	if !verify(user, password) {
		return nil, failure("Incorrect password."), nil
	}
	return user, command.Result{Success: true}, nil
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) (command.Result, error) {
	user, result, err := s.signedIn(ctx, current)
	if err != nil || !result.Success {
		return result, err
	}
	if reason := ValidatePassword(next); reason != "" {
		return failure("%s", reason), nil
	}
	if current == next {
		return failure("The new password must differ from the current one."), nil
	}

	hash, err := s.manager.hash(next)
	if err != nil {
		return command.Result{}, err
	}
	if err := s.manager.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return command.Result{}, err
	}
	return success("Password changed successfully."), nil
}

func (s *Session) RenameUser(ctx context.Context, newUsername, password string) (command.Result, error) {
	user, result, err := s.signedIn(ctx, password)
	if err != nil || !result.Success {
		return result, err
	}

	newUsername = NormalizeUsername(newUsername)
	if reason := ValidateUsername(newUsername); reason != "" {
		return failure("%s", reason), nil
	}
	if newUsername == user.Username {
		return failure("You are already called %s.", user.Username), nil
	}

	err = s.manager.store.RenameUser(ctx, user.ID, newUsername)
	if errors.Is(err, data.ErrExist) {
		return failure("Username '%s' is already taken.", newUsername), nil
	}
	if err != nil {
		return command.Result{}, err
	}
	return success("Username changed from %s to %s.", user.Username, newUsername), nil
}

func (s *Session) DeleteAccount(ctx context.Context, password string) (command.Result, error) {
	user, result, err := s.signedIn(ctx, password)
	if err != nil || !result.Success {
		return result, err
	}

	if err := s.manager.remove(ctx, user); err != nil {
		return command.Result{}, err
	}
	return success("Account %s has been deleted.", user.Username), nil
}

func (s *Session) StorageUsage(ctx context.Context) (data.Usage, error) {
	user, err := s.User(ctx)
	if err != nil {
		return data.Usage{}, err
	}
	if user == nil {
		return data.Usage{Total: s.manager.quota}, nil
	}
	return home.NewView(s.manager.tree, user.ID, s.manager.quota).Usage(ctx)
}

// Workspace returns the file and share views of the signed-in user, or nils for a guest.
func (s *Session) Workspace(ctx context.Context) (command.Files, command.Shares, error) {
	user, err := s.User(ctx)
	if err != nil || user == nil {
		return nil, nil, err
	}

	files := home.NewView(s.manager.tree, user.ID, s.manager.quota)
	return files, store.NewShareBook(s.manager.store, user.ID, files), nil
}
