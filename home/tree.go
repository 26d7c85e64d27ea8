// Package home stores each account's directory tree. Trees address entries by cleaned
// absolute paths; a View confines one signed-in user to the subtree named by their id.
package home

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/mwantia/webdesk/data"
)

// Tree is a hierarchical file store shared by all accounts.
type Tree interface {
	// Name returns the identifier of the implementation
	Name() string

	// Open is part of the lifecycle behaviour and gets called before first use
	Open(ctx context.Context) error

	// Close releases the underlying resources
	Close(ctx context.Context) error

	// Stat returns the entry at p or data.ErrNotExist
	Stat(ctx context.Context, p string) (*data.Entry, error)

	// List returns the direct children of the directory p ordered by name
	List(ctx context.Context, p string) ([]*data.Entry, error)

	// MakeDir creates p; the parent must exist and p must not
	MakeDir(ctx context.Context, p string) error

	// Remove deletes p; a non-empty directory requires recursive
	Remove(ctx context.Context, p string, recursive bool) error

	// ReadFile returns the whole content of the file p
	ReadFile(ctx context.Context, p string) ([]byte, error)

	// WriteFile creates or replaces the file p; the parent must exist
	WriteFile(ctx context.Context, p string, content []byte) error

	// Usage returns the total size in bytes of all files below p
	Usage(ctx context.Context, p string) (int64, error)
}

// CleanPath normalizes p into an absolute slash path without "." or ".." elements.
func CleanPath(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", data.ErrInvalidPath
	}
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	return path.Clean("/" + p), nil
}

// Join appends the cleaned relative path p to root.
func Join(root, p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if clean == "/" {
		return root, nil
	}
	return path.Join(root, clean), nil
}

// Parent returns the parent directory of a cleaned path.
func Parent(p string) string {
	return path.Dir(p)
}

// Root returns the home directory of a user id.
func Root(userID string) string {
	return "/" + userID
}

// WelcomeText is the content of README.txt in a new home.
const WelcomeText = `Welcome to your webdesk home directory.

Type 'help' in the terminal to list the available commands.
`

// CreateHome provisions the home directory of a new account.
func CreateHome(ctx context.Context, tree Tree, userID string) error {
	root := Root(userID)
	if err := tree.MakeDir(ctx, root); err != nil {
		return err
	}
	for _, dir := range []string{"Documents", "Pictures"} {
		if err := tree.MakeDir(ctx, path.Join(root, dir)); err != nil {
			return err
		}
	}
	return tree.WriteFile(ctx, path.Join(root, "README.txt"), []byte(WelcomeText))
}

// DeleteHome removes the home directory of an account and everything below it.
func DeleteHome(ctx context.Context, tree Tree, userID string) error {
	err := tree.Remove(ctx, Root(userID), true)
	if errors.Is(err, data.ErrNotExist) {
		return nil
	}
	return err
}
