package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/interaction"
)

type HelpCommand struct{}

func (*HelpCommand) Name() string               { return "help" }
func (*HelpCommand) Description() string        { return "List available commands or describe one" }
func (*HelpCommand) Usage() string              { return "help [command]" }
func (*HelpCommand) GetFlags() *command.FlagSet { return nil }

func (c *HelpCommand) Execute(_ context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if name := args.Arg(0); name != "" {
		cmd, ok := env.Catalog.Resolve(name, env.Scope)
		if !ok {
			return command.Text("help: no such command: %s", name), state, nil
		}
		return command.Text(describe(cmd)), state, nil
	}

	entries := env.Catalog.List(env.Scope)
	width := 0
	for _, entry := range entries {
		width = max(width, len(entry.Name))
	}

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, entry.Name, entry.Description)
	}
	if env.Scope.Mode == interaction.ModeAccount {
		sb.WriteString("\nType 'exit' to leave account mode.")
	} else {
		sb.WriteString("\nType 'help <command>' for details.")
	}
	return command.Text(sb.String()), state, nil
}

func describe(cmd command.Command) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - %s\n\nUsage: %s", cmd.Name(), cmd.Description(), cmd.Usage())
	if flags := cmd.GetFlags(); flags != nil && len(flags.Flags) > 0 {
		sb.WriteString("\n\nOptions:\n")
		sb.WriteString(flags.Help())
	}
	return sb.String()
}

type ClearCommand struct{}

func (*ClearCommand) Name() string               { return "clear" }
func (*ClearCommand) Description() string        { return "Clear the terminal screen" }
func (*ClearCommand) Usage() string              { return "clear" }
func (*ClearCommand) GetFlags() *command.FlagSet { return nil }

func (*ClearCommand) Execute(_ context.Context, _ *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	return &command.Output{Clear: true}, state, nil
}

type EchoCommand struct{}

func (*EchoCommand) Name() string               { return "echo" }
func (*EchoCommand) Description() string        { return "Print the given text" }
func (*EchoCommand) Usage() string              { return "echo [text...]" }
func (*EchoCommand) GetFlags() *command.FlagSet { return nil }

func (*EchoCommand) Execute(_ context.Context, _ *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	return command.Text(args.Input), state, nil
}

type DateCommand struct{}

func (*DateCommand) Name() string               { return "date" }
func (*DateCommand) Description() string        { return "Print the server date and time" }
func (*DateCommand) Usage() string              { return "date" }
func (*DateCommand) GetFlags() *command.FlagSet { return nil }

func (*DateCommand) Execute(_ context.Context, _ *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	return command.Text(time.Now().Format(time.UnixDate)), state, nil
}

type WhoAmICommand struct{}

func (*WhoAmICommand) Name() string               { return "whoami" }
func (*WhoAmICommand) Description() string        { return "Print the current user name" }
func (*WhoAmICommand) Usage() string              { return "whoami" }
func (*WhoAmICommand) GetFlags() *command.FlagSet { return nil }

func (*WhoAmICommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	name, err := env.Auth.WhoAmI(ctx)
	if err != nil {
		return nil, state, err
	}
	return command.Text(name), state, nil
}

// CloseCommand is the guest "exit": it closes the terminal window.
type CloseCommand struct{}

func (*CloseCommand) Name() string               { return "exit" }
func (*CloseCommand) Description() string        { return "Close the terminal window" }
func (*CloseCommand) Usage() string              { return "exit" }
func (*CloseCommand) GetFlags() *command.FlagSet { return nil }

func (*CloseCommand) Execute(_ context.Context, _ *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	return command.CloseWindow("Goodbye."), state, nil
}

// SignedInCommand replaces "login" for authenticated sessions.
type SignedInCommand struct{}

func (*SignedInCommand) Name() string               { return "login" }
func (*SignedInCommand) Description() string        { return "Show the signed-in account" }
func (*SignedInCommand) Usage() string              { return "login" }
func (*SignedInCommand) GetFlags() *command.FlagSet { return nil }

func (*SignedInCommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	name, err := env.Auth.WhoAmI(ctx)
	if err != nil {
		return nil, state, err
	}
	return command.Text("You are already logged in as %s. Use 'logout' first.", name), state, nil
}

type LogoutCommand struct{}

func (*LogoutCommand) Name() string               { return "logout" }
func (*LogoutCommand) Description() string        { return "Sign out of the current session" }
func (*LogoutCommand) Usage() string              { return "logout" }
func (*LogoutCommand) GetFlags() *command.FlagSet { return nil }

func (*LogoutCommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, _ interaction.State) (*command.Output, interaction.State, error) {
	message, err := env.Auth.Logout(ctx)
	if err != nil {
		return nil, interaction.State{}, err
	}
	return &command.Output{Output: message, Logout: true}, interaction.State{}, nil
}

type ConsoleCommand struct{}

func (*ConsoleCommand) Name() string               { return "console" }
func (*ConsoleCommand) Description() string        { return "Open another terminal window" }
func (*ConsoleCommand) Usage() string              { return "console" }
func (*ConsoleCommand) GetFlags() *command.FlagSet { return nil }

func (*ConsoleCommand) Execute(_ context.Context, _ *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	return &command.Output{
		Output: "Opening a new console...",
		Action: &command.Action{Type: command.ActionOpenConsole},
	}, state, nil
}

type ExplorerCommand struct{}

func (*ExplorerCommand) Name() string               { return "explorer" }
func (*ExplorerCommand) Description() string        { return "Open the file explorer" }
func (*ExplorerCommand) Usage() string              { return "explorer [path]" }
func (*ExplorerCommand) GetFlags() *command.FlagSet { return nil }

func (c *ExplorerCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Files == nil {
		return signedOut(c.Name(), state)
	}

	p := args.Arg(0)
	if p == "" {
		p = "/"
	}
	entry, err := env.Files.Stat(ctx, p)
	if err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}
	if !entry.IsDir() {
		return command.Text("%s: %s: Not a directory", c.Name(), p), state, nil
	}

	return command.OpenApp("Opening file explorer...", "explorer", map[string]any{"path": entry.Path}), state, nil
}

// AccountCommand enters account mode.
type AccountCommand struct{}

func (*AccountCommand) Name() string               { return "account" }
func (*AccountCommand) Description() string        { return "Enter account settings mode" }
func (*AccountCommand) Usage() string              { return "account" }
func (*AccountCommand) GetFlags() *command.FlagSet { return nil }

func (*AccountCommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, _ interaction.State) (*command.Output, interaction.State, error) {
	name, err := env.Auth.WhoAmI(ctx)
	if err != nil {
		return nil, interaction.State{}, err
	}
	text := fmt.Sprintf("Account settings for %s. Type 'help' for the available commands, 'exit' to leave.", name)
	return command.Text(text), interaction.State{Mode: interaction.ModeAccount}, nil
}

// LeaveCommand is the account mode "exit".
type LeaveCommand struct{}

func (*LeaveCommand) Name() string               { return "exit" }
func (*LeaveCommand) Description() string        { return "Leave account mode" }
func (*LeaveCommand) Usage() string              { return "exit" }
func (*LeaveCommand) GetFlags() *command.FlagSet { return nil }

func (*LeaveCommand) Execute(_ context.Context, _ *command.Env, _ *command.Args, _ interaction.State) (*command.Output, interaction.State, error) {
	return command.Text("Left account mode."), interaction.State{}, nil
}
