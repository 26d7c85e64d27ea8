package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/interaction"
)

type InfoCommand struct{}

func (*InfoCommand) Name() string               { return "info" }
func (*InfoCommand) Description() string        { return "Show account details" }
func (*InfoCommand) Usage() string              { return "info" }
func (*InfoCommand) GetFlags() *command.FlagSet { return nil }

func (*InfoCommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	name, err := env.Auth.WhoAmI(ctx)
	if err != nil {
		return nil, state, err
	}
	usage, err := env.Auth.StorageUsage(ctx)
	if err != nil {
		return nil, state, err
	}

	quota := "unlimited"
	if usage.Total > 0 {
		quota = humanize.IBytes(uint64(usage.Total))
	}
	text := fmt.Sprintf("Username: %s\nStorage:  %s used, quota %s", name, humanize.IBytes(uint64(usage.Used)), quota)
	return command.Text(text), state, nil
}

// PasswdCommand changes the password after asking for the current one and the new one twice.
type PasswdCommand struct{}

var _ command.Interactive = (*PasswdCommand)(nil)

func (*PasswdCommand) Name() string                   { return "passwd" }
func (*PasswdCommand) Description() string            { return "Change your password" }
func (*PasswdCommand) Usage() string                  { return "passwd [-c current] [-n new]" }
func (*PasswdCommand) Workflow() interaction.Workflow { return interaction.WorkflowPasswd }

func (*PasswdCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "current", Short: "c", Description: "current password"},
		&command.Flag{Name: "new", Short: "n", Description: "new password"},
	)
}

func (c *PasswdCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if args.Continuation {
		switch step := state.Pending.(type) {
		case interaction.PasswdAwaitingCurrent:
			next := interaction.PasswdAwaitingNew{Current: args.Input}
			return command.Prompt("New password: ", command.InputPassword), state.Next(next), nil

		case interaction.PasswdAwaitingNew:
			next := interaction.PasswdAwaitingConfirm{Current: step.Current, New: args.Input}
			return command.Prompt("Confirm new password: ", command.InputPassword), state.Next(next), nil

		case interaction.PasswdAwaitingConfirm:
			if args.Input != step.New {
				return command.Text("Passwords do not match. Password unchanged."), state.Resolved(), nil
			}
			return c.change(ctx, env, step.Current, step.New, state)
		}
	}

	current, hasCurrent := args.String("current")
	next, hasNext := args.String("new")
	if hasCurrent && hasNext {
		return c.change(ctx, env, current, next, state)
	}
	return command.Prompt("Current password: ", command.InputPassword), state.Next(interaction.PasswdAwaitingCurrent{}), nil
}

func (c *PasswdCommand) change(ctx context.Context, env *command.Env, current, next string, state interaction.State) (*command.Output, interaction.State, error) {
	result, err := env.Auth.ChangePassword(ctx, current, next)
	if err != nil {
		return nil, state.Resolved(), err
	}
	return finish(result, state)
}

// RenameCommand changes the username of the signed-in account.
type RenameCommand struct{}

var _ command.Interactive = (*RenameCommand)(nil)

func (*RenameCommand) Name() string                   { return "rename" }
func (*RenameCommand) Description() string            { return "Change your username" }
func (*RenameCommand) Usage() string                  { return "rename [-u new-username] [-p password]" }
func (*RenameCommand) GetFlags() *command.FlagSet     { return credentialFlags() }
func (*RenameCommand) Workflow() interaction.Workflow { return interaction.WorkflowRename }

func (c *RenameCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if args.Continuation {
		switch step := state.Pending.(type) {
		case interaction.RenameAwaitingName:
			if isCancel(args.Input) {
				return cancelled(state)
			}
			name := strings.TrimSpace(args.Input)
			if name == "" {
				return command.Text("Username cannot be empty."), state.Resolved(), nil
			}
			return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.RenameAwaitingPassword{NewUsername: name}), nil

		case interaction.RenameAwaitingPassword:
			return c.rename(ctx, env, step.NewUsername, args.Input, state)
		}
	}

	name := username(args)
	password, hasPassword := args.String("password")
	switch {
	case name != "" && hasPassword:
		return c.rename(ctx, env, name, password, state)
	case hasPassword:
		return missingUsername(c, state)
	case name != "":
		return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.RenameAwaitingPassword{NewUsername: name}), nil
	default:
		return command.Prompt("New username: ", command.InputText), state.Next(interaction.RenameAwaitingName{}), nil
	}
}

func (c *RenameCommand) rename(ctx context.Context, env *command.Env, name, password string, state interaction.State) (*command.Output, interaction.State, error) {
	result, err := env.Auth.RenameUser(ctx, name, password)
	if err != nil {
		return nil, state.Resolved(), err
	}
	return finish(result, state)
}

const deleteConfirmation = "DELETE"

// DeleteAccountCommand removes the signed-in account and its home after a typed confirmation.
type DeleteAccountCommand struct{}

var _ command.Interactive = (*DeleteAccountCommand)(nil)

func (*DeleteAccountCommand) Name() string { return "delete" }
func (*DeleteAccountCommand) Description() string {
	return "Permanently delete your account and files"
}
func (*DeleteAccountCommand) Usage() string                  { return "delete [-p password] [-y]" }
func (*DeleteAccountCommand) Workflow() interaction.Workflow { return interaction.WorkflowDeleteAccount }

func (*DeleteAccountCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "password", Short: "p", Description: "password"},
		&command.Flag{Name: "yes", Short: "y", Type: "bool", Description: "skip the confirmation"},
	)
}

func (c *DeleteAccountCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if args.Continuation {
		switch step := state.Pending.(type) {
		case interaction.DeleteAccountAwaitingPassword:
			return c.confirm(args.Input, state)

		case interaction.DeleteAccountAwaitingConfirm:
			if strings.TrimSpace(args.Input) != deleteConfirmation {
				return cancelled(state)
			}
			return c.delete(ctx, env, step.Password, state)
		}
	}

	password, hasPassword := args.String("password")
	switch {
	case hasPassword && args.Bool("yes"):
		return c.delete(ctx, env, password, state)
	case hasPassword:
		return c.confirm(password, state)
	default:
		return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.DeleteAccountAwaitingPassword{}), nil
	}
}

func (c *DeleteAccountCommand) confirm(password string, state interaction.State) (*command.Output, interaction.State, error) {
	question := fmt.Sprintf("Type %s to permanently delete your account: ", deleteConfirmation)
	return command.Prompt(question, command.InputText), state.Next(interaction.DeleteAccountAwaitingConfirm{Password: password}), nil
}

func (c *DeleteAccountCommand) delete(ctx context.Context, env *command.Env, password string, state interaction.State) (*command.Output, interaction.State, error) {
	result, err := env.Auth.DeleteAccount(ctx, password)
	if err != nil {
		return nil, state.Resolved(), err
	}
	if !result.Success {
		return finish(result, state)
	}

	env.Log.Info("Session '%s' deleted its account", env.SessionID)
	return &command.Output{Output: result.Message, Logout: true}, interaction.State{}, nil
}
