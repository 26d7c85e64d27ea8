package builtin

import (
	"context"
	"strings"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/interaction"
)

const (
	promptUsername = "Username: "
	promptPassword = "Password: "
	promptConfirm  = "Confirm password: "
)

func credentialFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "user", Short: "u", Description: "username"},
		&command.Flag{Name: "password", Short: "p", Description: "password"},
	)
}

// username returns the -u flag or the first positional argument.
func username(args *command.Args) string {
	if name, ok := args.String("user"); ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(args.Arg(0))
}

// LoginCommand signs a guest session in, prompting for whatever was not given as flags.
type LoginCommand struct{}

var _ command.Interactive = (*LoginCommand)(nil)

func (*LoginCommand) Name() string                   { return "login" }
func (*LoginCommand) Description() string            { return "Sign in to your account" }
func (*LoginCommand) Usage() string                  { return "login [-u username] [-p password]" }
func (*LoginCommand) GetFlags() *command.FlagSet     { return credentialFlags() }
func (*LoginCommand) Workflow() interaction.Workflow { return interaction.WorkflowLogin }

func (c *LoginCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if args.Continuation {
		switch step := state.Pending.(type) {
		case interaction.LoginAwaitingUsername:
			if isCancel(args.Input) {
				return cancelled(state)
			}
			name := strings.TrimSpace(args.Input)
			if name == "" {
				return command.Text("Username cannot be empty."), state.Resolved(), nil
			}
			return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.LoginAwaitingPassword{Username: name}), nil

		case interaction.LoginAwaitingPassword:
			return c.login(ctx, env, step.Username, args.Input, state)
		}
	}

	name := username(args)
	password, hasPassword := args.String("password")
	switch {
	case name != "" && hasPassword:
		return c.login(ctx, env, name, password, state)
	case hasPassword:
		return missingUsername(c, state)
	case name != "":
		return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.LoginAwaitingPassword{Username: name}), nil
	default:
		return command.Prompt(promptUsername, command.InputText), state.Next(interaction.LoginAwaitingUsername{}), nil
	}
}

func (c *LoginCommand) login(ctx context.Context, env *command.Env, name, password string, state interaction.State) (*command.Output, interaction.State, error) {
	result, err := env.Auth.Login(ctx, name, password)
	if err != nil {
		return nil, state.Resolved(), err
	}
	if result.Success {
		env.Log.Info("Session '%s' signed in as '%s'", env.SessionID, name)
	}
	return finish(result, state)
}

// RegisterCommand creates an account. Interactive registration asks for the password twice.
type RegisterCommand struct{}

var _ command.Interactive = (*RegisterCommand)(nil)

func (*RegisterCommand) Name() string                   { return "register" }
func (*RegisterCommand) Description() string            { return "Create a new account" }
func (*RegisterCommand) Usage() string                  { return "register [-u username] [-p password]" }
func (*RegisterCommand) GetFlags() *command.FlagSet     { return credentialFlags() }
func (*RegisterCommand) Workflow() interaction.Workflow { return interaction.WorkflowRegister }

func (c *RegisterCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if args.Continuation {
		switch step := state.Pending.(type) {
		case interaction.RegisterAwaitingUsername:
			if isCancel(args.Input) {
				return cancelled(state)
			}
			name := strings.TrimSpace(args.Input)
			if name == "" {
				return command.Text("Username cannot be empty."), state.Resolved(), nil
			}
			return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.RegisterAwaitingPassword{Username: name}), nil

		case interaction.RegisterAwaitingPassword:
			next := interaction.RegisterAwaitingConfirm{Username: step.Username, Password: args.Input}
			return command.Prompt(promptConfirm, command.InputPassword), state.Next(next), nil

		case interaction.RegisterAwaitingConfirm:
			if args.Input != step.Password {
				return command.Text("Passwords do not match. Registration aborted."), state.Resolved(), nil
			}
			return c.register(ctx, env, step.Username, step.Password, state)
		}
	}

	name := username(args)
	password, hasPassword := args.String("password")
	switch {
	case name != "" && hasPassword:
		return c.register(ctx, env, name, password, state)
	case hasPassword:
		return missingUsername(c, state)
	case name != "":
		return command.Prompt(promptPassword, command.InputPassword), state.Next(interaction.RegisterAwaitingPassword{Username: name}), nil
	default:
		return command.Prompt(promptUsername, command.InputText), state.Next(interaction.RegisterAwaitingUsername{}), nil
	}
}

func (c *RegisterCommand) register(ctx context.Context, env *command.Env, name, password string, state interaction.State) (*command.Output, interaction.State, error) {
	result, err := env.Auth.Register(ctx, name, password)
	if err != nil {
		return nil, state.Resolved(), err
	}
	return finish(result, state)
}
