// Package dispatch routes terminal input to commands. It owns the per-session read-modify-write
// cycle of the interaction state: lock, load, route, execute, normalize, save, unlock.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/interaction"
	"github.com/mwantia/webdesk/log"
)

const (
	MessageBusy    = "Another command is still running in this session. Please try again."
	MessageFailure = "Error: command failed unexpectedly."
	MessageExpired = "The pending interaction is no longer available and has been cancelled."
)

const DefaultLockTimeout = 5 * time.Second

// Request is one line of terminal input.
type Request struct {
	// Line is the raw command line or the answer to a pending prompt
	Line string `json:"command"`

	// Fresh forces Line to be parsed as a new command even while a workflow is pending
	Fresh bool `json:"fresh,omitempty"`

	// Flags are structured values merged over the parsed flags. A request carrying flags
	// is always a fresh command.
	Flags map[string]any `json:"args,omitempty"`
}

func (r Request) fresh() bool {
	return r.Fresh || len(r.Flags) > 0
}

// Deps are the session-bound collaborators of one dispatch.
type Deps struct {
	Auth   command.Auth
	Files  command.Files
	Shares command.Shares
}

type Dispatcher struct {
	registry    *command.Registry
	store       interaction.Store
	log         *log.Logger
	lockTimeout time.Duration
}

type Option func(*Dispatcher) error

func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) error {
		d.log = logger
		return nil
	}
}

// WithLockTimeout bounds how long a request waits for another request of the same session.
func WithLockTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		if timeout <= 0 {
			return fmt.Errorf("invalid lock timeout %s", timeout)
		}
		d.lockTimeout = timeout
		return nil
	}
}

func New(registry *command.Registry, store interaction.Store, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		registry:    registry,
		store:       store,
		log:         log.Discard(),
		lockTimeout: DefaultLockTimeout,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Registry returns the command registry used for resolution.
func (d *Dispatcher) Registry() *command.Registry {
	return d.registry
}

// Dispatch runs one request for session sid. Every failure is reported as output text.
func (d *Dispatcher) Dispatch(ctx context.Context, sid string, req Request, deps Deps) *command.Output {
	logger := d.log.With("session", sid)

	lockCtx, cancel := context.WithTimeout(ctx, d.lockTimeout)
	unlock, err := d.store.Lock(lockCtx, sid)
	cancel()
	if err != nil {
		logger.Warn("Failed to acquire session lock: %v", err)
		return command.Text(MessageBusy)
	}
	defer unlock()

	state, err := d.store.Load(ctx, sid)
	discarded := err != nil
	if discarded {
		logger.Error("Discarding unreadable interaction state: %v", err)
		state = interaction.State{}
	}

	authenticated := deps.Auth.IsLoggedIn(ctx)
	env := &command.Env{
		SessionID: sid,
		Scope:     ScopeFor(authenticated, state),
		Auth:      deps.Auth,
		Catalog:   d.registry,
		Log:       logger,
		Files:     deps.Files,
		Shares:    deps.Shares,
	}

	out, next := d.route(ctx, env, req, state)
	out, next = d.normalize(ctx, deps.Auth, out, next)

	if discarded || next != state {
		if err := d.store.Save(ctx, sid, next); err != nil {
			logger.Error("Failed to save interaction state: %v", err)
		}
	}
	return out
}

// State returns the stored interaction state of sid.
func (d *Dispatcher) State(ctx context.Context, sid string) (interaction.State, error) {
	return d.store.Load(ctx, sid)
}

// route resolves the command for req and runs it.
func (d *Dispatcher) route(ctx context.Context, env *command.Env, req Request, state interaction.State) (*command.Output, interaction.State) {
	if state.Pending != nil && !req.fresh() {
		owner, ok := d.registry.Owner(state.Type(), env.Scope)
		if !ok {
			env.Log.Debug("No visible owner for pending workflow '%s'", state.Type())
			return command.Text(MessageExpired), state.Resolved()
		}
		return d.invoke(ctx, env, owner, command.Continue(req.Line), state)
	}

	name, tokens := command.Tokenize(req.Line)
	if name == "" {
		return &command.Output{}, state
	}

	cmd, ok := d.registry.Resolve(name, env.Scope)
	if !ok {
		return command.Text("Unknown command: %s. Type 'help' for a list of commands.", name), state
	}

	args := command.Parse(tokens, cmd.GetFlags())
	args.Raw = req.Line
	args.Merge(req.Flags)

	// A fresh command overwrites whatever workflow was pending.
	return d.invoke(ctx, env, cmd, args, state.Resolved())
}

// invoke executes cmd and turns errors and panics into the generic failure output.
func (d *Dispatcher) invoke(ctx context.Context, env *command.Env, cmd command.Command, args *command.Args, state interaction.State) (out *command.Output, next interaction.State) {
	logger := env.Log.With("command", cmd.Name())

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Command panicked: %v\n%s", r, debug.Stack())
			out, next = command.Text(MessageFailure), state.Resolved()
		}
	}()

	var err error
	out, next, err = cmd.Execute(ctx, env, args, state)
	if err != nil {
		logger.Error("Command failed: %v", err)
		return command.Text(MessageFailure), state.Resolved()
	}
	if out == nil {
		out = &command.Output{}
	}
	return out, next
}

// normalize enforces the envelope and state invariants and fills the default prompt.
func (d *Dispatcher) normalize(ctx context.Context, auth command.Auth, out *command.Output, next interaction.State) (*command.Output, interaction.State) {
	if out.InteractiveFinal && next.Pending == nil {
		out.InteractiveFinal = false
	}
	if !out.InteractiveFinal && next.Pending != nil {
		next = next.Resolved()
	}
	if out.Logout {
		next = interaction.State{}
	}

	authenticated := auth.IsLoggedIn(ctx)
	if !authenticated && next.Mode != interaction.ModeNone {
		next = next.WithMode(interaction.ModeNone)
	}

	if out.PromptText == "" {
		out.PromptText = Prompt(ctx, auth, authenticated, next)
	}
	return out, next
}
