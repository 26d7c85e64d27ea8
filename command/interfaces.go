// Package command defines the terminal command contract, the permissive argument parser,
// the output envelope returned to the browser and the tiered registry that resolves
// command names for a session.
package command

import (
	"context"
	"time"

	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/interaction"
	"github.com/mwantia/webdesk/log"
)

// Command represents an executable terminal command.
type Command interface {
	// Name returns the lowercased command identifier
	Name() string

	// Description returns a short help line
	Description() string

	// Usage returns the long-form help text (e.g. "login [-u user] [-p password]")
	Usage() string

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *FlagSet

	// Execute runs the command with parsed arguments and the session's current state.
	// It returns the envelope for the client and the state the dispatcher must persist.
	// A returned error is an internal failure; user mistakes belong in the output text.
	Execute(ctx context.Context, env *Env, args *Args, state interaction.State) (*Output, interaction.State, error)
}

// Interactive is implemented by commands that own a multi-step workflow.
type Interactive interface {
	Command

	// Workflow returns the workflow whose pending steps are routed to this command
	Workflow() interaction.Workflow
}

// Scope is the privilege context a command name is resolved under.
type Scope struct {
	Authenticated bool
	Mode          interaction.Mode
}

// Env carries the collaborators a command may call during one dispatch.
type Env struct {
	SessionID string
	Scope     Scope
	Auth      Auth
	Catalog   Catalog
	Log       *log.Logger

	// Files and Shares are nil for guest sessions.
	Files  Files
	Shares Shares
}

// Result is the outcome of an account operation the user can be told about.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Auth is the session-bound account collaborator.
// Errors are reserved for internal failures; rejected credentials come back as a Result.
type Auth interface {
	Login(ctx context.Context, username, password string) (Result, error)
	Register(ctx context.Context, username, password string) (Result, error)
	Logout(ctx context.Context) (string, error)
	WhoAmI(ctx context.Context) (string, error)
	ChangePassword(ctx context.Context, current, next string) (Result, error)
	RenameUser(ctx context.Context, newUsername, password string) (Result, error)
	DeleteAccount(ctx context.Context, password string) (Result, error)
	StorageUsage(ctx context.Context) (data.Usage, error)
	IsLoggedIn(ctx context.Context) bool
}

// Files is the signed-in user's view of their home tree.
type Files interface {
	List(ctx context.Context, p string) ([]*data.Entry, error)
	Stat(ctx context.Context, p string) (*data.Entry, error)
	MakeDir(ctx context.Context, p string, parents bool) error
	Remove(ctx context.Context, p string, recursive bool) error
	ReadFile(ctx context.Context, p string) ([]byte, error)
	WriteFile(ctx context.Context, p string, content []byte) error
}

// Shares manages the signed-in user's public links.
type Shares interface {
	Create(ctx context.Context, p string, ttl time.Duration) (*data.Share, error)
	List(ctx context.Context) ([]*data.Share, error)
	Revoke(ctx context.Context, token string) error
}

// Catalog exposes registry introspection to commands such as help.
type Catalog interface {
	Resolve(name string, scope Scope) (Command, bool)
	List(scope Scope) []Entry
}
