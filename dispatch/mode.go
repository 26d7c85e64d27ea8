package dispatch

import (
	"context"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/interaction"
)

// ScopeFor derives the visible namespace from the authentication state and the stored mode.
// A mode is only honored for authenticated sessions.
func ScopeFor(authenticated bool, state interaction.State) command.Scope {
	scope := command.Scope{Authenticated: authenticated}
	if authenticated {
		scope.Mode = state.Mode
	}
	return scope
}

// Prompt returns the default prompt text for a session in state.
func Prompt(ctx context.Context, auth command.Auth, authenticated bool, state interaction.State) string {
	if !authenticated {
		return "guest$ "
	}

	name, err := auth.WhoAmI(ctx)
	if err != nil || name == "" {
		return "$ "
	}
	if state.Mode == interaction.ModeAccount {
		return name + "@account# "
	}
	return name + "$ "
}
