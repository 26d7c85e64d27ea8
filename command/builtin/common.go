package builtin

import (
	"errors"
	"strings"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/interaction"
)

const cancelWord = "cancel"

// isCancel reports whether a non-secret answer asks to abort the workflow.
func isCancel(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), cancelWord)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// cancelled ends the pending workflow and keeps the mode.
func cancelled(state interaction.State) (*command.Output, interaction.State, error) {
	return command.Text("Cancelled."), state.Resolved(), nil
}

// finish reports the collaborator result and ends the pending workflow.
func finish(result command.Result, state interaction.State) (*command.Output, interaction.State, error) {
	return command.Text(result.Message), state.Resolved(), nil
}

// fileMessage translates tree errors into terminal text. Unknown errors are returned as internal failures.
func fileMessage(name, p string, err error) (*command.Output, error) {
	var reason string
	switch {
	case errors.Is(err, data.ErrNotExist):
		reason = "No such file or directory"
	case errors.Is(err, data.ErrExist):
		reason = "File exists"
	case errors.Is(err, data.ErrIsDirectory):
		reason = "Is a directory"
	case errors.Is(err, data.ErrNotDirectory):
		reason = "Not a directory"
	case errors.Is(err, data.ErrDirectoryNotEmpty):
		reason = "Directory not empty"
	case errors.Is(err, data.ErrInvalidPath):
		reason = "Invalid path"
	case errors.Is(err, data.ErrQuotaExceeded):
		reason = "Storage quota exceeded"
	case errors.Is(err, data.ErrPermission):
		reason = "Permission denied"
	case errors.Is(err, data.ErrInvalid):
		reason = "Invalid argument"
	default:
		return nil, err
	}
	if p == "" {
		return command.Text("%s: %s", name, reason), nil
	}
	return command.Text("%s: %s: %s", name, p, reason), nil
}

// missingUsername rejects a password given without a name instead of prompting for the name
// and dropping the password.
func missingUsername(c command.Command, state interaction.State) (*command.Output, interaction.State, error) {
	return command.Text("%s: a username is required with -p\nUsage: %s", c.Name(), c.Usage()), state.Resolved(), nil
}

// signedOut is returned by workspace commands resolved without a home.
func signedOut(name string, state interaction.State) (*command.Output, interaction.State, error) {
	return command.Text("%s: you must be logged in", name), state, nil
}
