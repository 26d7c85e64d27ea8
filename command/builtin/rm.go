package builtin

import (
	"context"
	"fmt"

	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/interaction"
)

// RmCommand deletes a file or directory after a confirmation prompt unless -f is given.
type RmCommand struct{}

var _ command.Interactive = (*RmCommand)(nil)

func (*RmCommand) Name() string                   { return "rm" }
func (*RmCommand) Description() string            { return "Delete a file or directory" }
func (*RmCommand) Usage() string                  { return "rm [-r] [-f] <path>" }
func (*RmCommand) Workflow() interaction.Workflow { return interaction.WorkflowDelete }

func (*RmCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "recursive", Short: "r", Type: "bool", Description: "delete directories and their contents"},
		&command.Flag{Name: "force", Short: "f", Type: "bool", Description: "do not ask for confirmation"},
	)
}

func (c *RmCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Files == nil {
		return signedOut(c.Name(), state.Resolved())
	}

	if step, ok := state.Pending.(interaction.DeleteAwaitingConfirm); ok && args.Continuation {
		if !isYes(args.Input) {
			return cancelled(state)
		}
		return c.remove(ctx, env, step.Path, step.Recursive, state)
	}

	p := args.Arg(0)
	if p == "" {
		return command.Text("Usage: %s", c.Usage()), state, nil
	}

	entry, err := env.Files.Stat(ctx, p)
	if err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}
	recursive := args.Bool("recursive")
	if entry.IsDir() && !recursive {
		return command.Text("%s: %s: Is a directory (use -r)", c.Name(), p), state, nil
	}
	if entry.Path == "/" {
		return command.Text("%s: refusing to delete your home directory", c.Name()), state, nil
	}

	if args.Bool("force") {
		return c.remove(ctx, env, entry.Path, recursive, state)
	}

	question := fmt.Sprintf("Delete %s? (yes/no): ", entry.Path)
	if entry.IsDir() {
		question = fmt.Sprintf("Delete %s and everything in it? (yes/no): ", entry.Path)
	}
	next := interaction.DeleteAwaitingConfirm{Path: entry.Path, Recursive: recursive}
	return command.Prompt(question, command.InputText), state.Next(next), nil
}

func (c *RmCommand) remove(ctx context.Context, env *command.Env, p string, recursive bool, state interaction.State) (*command.Output, interaction.State, error) {
	if err := env.Files.Remove(ctx, p, recursive); err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state.Resolved(), err
	}
	return command.Text("Deleted %s", p), state.Resolved(), nil
}
