package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/interaction"
)

type LsCommand struct{}

func (*LsCommand) Name() string        { return "ls" }
func (*LsCommand) Description() string { return "List directory contents" }
func (*LsCommand) Usage() string       { return "ls [-l] [path]" }

func (*LsCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "long", Short: "l", Type: "bool", Description: "show mode, size and modification time"},
	)
}

func (c *LsCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Files == nil {
		return signedOut(c.Name(), state)
	}

	p := args.Arg(0)
	if p == "" {
		p = "/"
	}
	entries, err := env.Files.List(ctx, p)
	if err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if entry.IsDir() {
			name += "/"
		}
		if args.Bool("long") {
			name = fmt.Sprintf("%s %8s %s %s", entry.Mode, humanize.IBytes(uint64(entry.Size)), entry.ModTime.Format("Jan _2 15:04"), name)
		}
		lines = append(lines, name)
	}
	return command.Text(strings.Join(lines, "\n")), state, nil
}

type CatCommand struct{}

func (*CatCommand) Name() string               { return "cat" }
func (*CatCommand) Description() string        { return "Print the content of a file" }
func (*CatCommand) Usage() string              { return "cat <path>" }
func (*CatCommand) GetFlags() *command.FlagSet { return nil }

func (c *CatCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Files == nil {
		return signedOut(c.Name(), state)
	}

	p := args.Arg(0)
	if p == "" {
		return command.Text("Usage: %s", c.Usage()), state, nil
	}
	content, err := env.Files.ReadFile(ctx, p)
	if err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}
	return command.Text(string(content)), state, nil
}

type WriteCommand struct{}

func (*WriteCommand) Name() string        { return "write" }
func (*WriteCommand) Description() string { return "Write text to a file" }
func (*WriteCommand) Usage() string       { return "write [-a] <path> <text>" }

func (*WriteCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "append", Short: "a", Type: "bool", Description: "append to the file instead of replacing it"},
	)
}

func (c *WriteCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Files == nil {
		return signedOut(c.Name(), state)
	}

	p := args.Arg(0)
	if p == "" || len(args.Positional) < 2 {
		return command.Text("Usage: %s", c.Usage()), state, nil
	}
	content := []byte(strings.Join(args.Positional[1:], " ") + "\n")

	if args.Bool("append") {
		existing, err := env.Files.ReadFile(ctx, p)
		if err != nil && !errors.Is(err, data.ErrNotExist) {
			out, err := fileMessage(c.Name(), p, err)
			return out, state, err
		}
		content = append(existing, content...)
	}

	if err := env.Files.WriteFile(ctx, p, content); err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}
	return command.Text("Wrote %s (%s)", p, humanize.IBytes(uint64(len(content)))), state, nil
}

type MkdirCommand struct{}

func (*MkdirCommand) Name() string        { return "mkdir" }
func (*MkdirCommand) Description() string { return "Create a directory" }
func (*MkdirCommand) Usage() string       { return "mkdir [-p] <path>" }

func (*MkdirCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "parents", Short: "p", Type: "bool", Description: "create missing parent directories"},
	)
}

func (c *MkdirCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Files == nil {
		return signedOut(c.Name(), state)
	}

	p := args.Arg(0)
	if p == "" {
		return command.Text("Usage: %s", c.Usage()), state, nil
	}
	if err := env.Files.MakeDir(ctx, p, args.Bool("parents")); err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}
	return command.Text("Created directory %s", p), state, nil
}

type DfCommand struct{}

func (*DfCommand) Name() string               { return "df" }
func (*DfCommand) Description() string        { return "Show storage usage" }
func (*DfCommand) Usage() string              { return "df" }
func (*DfCommand) GetFlags() *command.FlagSet { return nil }

func (*DfCommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	usage, err := env.Auth.StorageUsage(ctx)
	if err != nil {
		return nil, state, err
	}

	used := humanize.IBytes(uint64(usage.Used))
	if usage.Total <= 0 {
		return command.Text("Used %s (no quota)", used), state, nil
	}
	return command.Text("Used %s of %s (%.1f%%), %s free",
		used,
		humanize.IBytes(uint64(usage.Total)),
		usage.Percent(),
		humanize.IBytes(uint64(usage.Remaining())),
	), state, nil
}
