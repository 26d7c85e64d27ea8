package builtin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/interaction"
)

// maxShareHours caps link lifetimes at ten years; 0 still means never.
const maxShareHours = 10 * 365 * 24

type ShareCommand struct{}

func (*ShareCommand) Name() string        { return "share" }
func (*ShareCommand) Description() string { return "Create a public link to a file or directory" }
func (*ShareCommand) Usage() string       { return "share [-e hours] <path>" }

func (*ShareCommand) GetFlags() *command.FlagSet {
	return command.NewFlagSet(
		&command.Flag{Name: "expires", Short: "e", Description: "hours until the link expires (0 never)"},
	)
}

func (c *ShareCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Shares == nil {
		return signedOut(c.Name(), state)
	}

	p := args.Arg(0)
	if p == "" {
		return command.Text("Usage: %s", c.Usage()), state, nil
	}

	var ttl time.Duration
	if value, ok := args.String("expires"); ok {
		hours, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(hours) || hours < 0 || hours > maxShareHours {
			return command.Text("%s: invalid expiry %q", c.Name(), value), state, nil
		}
		ttl = time.Duration(hours * float64(time.Hour))
		if hours > 0 && ttl <= 0 {
			return command.Text("%s: invalid expiry %q", c.Name(), value), state, nil
		}
	}

	share, err := env.Shares.Create(ctx, p, ttl)
	if err != nil {
		out, err := fileMessage(c.Name(), p, err)
		return out, state, err
	}

	text := fmt.Sprintf("Shared %s\nToken: %s\nExpires: %s", share.Path, share.Token, expiry(share))
	return command.Text(text), state, nil
}

func expiry(share *data.Share) string {
	if share.ExpiresAt == nil {
		return "never"
	}
	return humanize.Time(*share.ExpiresAt)
}

type SharesCommand struct{}

func (*SharesCommand) Name() string               { return "shares" }
func (*SharesCommand) Description() string        { return "List your public links" }
func (*SharesCommand) Usage() string              { return "shares" }
func (*SharesCommand) GetFlags() *command.FlagSet { return nil }

func (c *SharesCommand) Execute(ctx context.Context, env *command.Env, _ *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Shares == nil {
		return signedOut(c.Name(), state)
	}

	shares, err := env.Shares.List(ctx)
	if err != nil {
		return nil, state, err
	}
	if len(shares) == 0 {
		return command.Text("No shared links."), state, nil
	}

	now := time.Now()
	lines := make([]string, 0, len(shares))
	for _, share := range shares {
		status := expiry(share)
		if share.Expired(now) {
			status = "expired"
		}
		lines = append(lines, fmt.Sprintf("%s  %s  (%s)", share.Token, share.Path, status))
	}
	return command.Text(strings.Join(lines, "\n")), state, nil
}

type UnshareCommand struct{}

func (*UnshareCommand) Name() string               { return "unshare" }
func (*UnshareCommand) Description() string        { return "Revoke a public link" }
func (*UnshareCommand) Usage() string              { return "unshare <token>" }
func (*UnshareCommand) GetFlags() *command.FlagSet { return nil }

func (c *UnshareCommand) Execute(ctx context.Context, env *command.Env, args *command.Args, state interaction.State) (*command.Output, interaction.State, error) {
	if env.Shares == nil {
		return signedOut(c.Name(), state)
	}

	token := args.Arg(0)
	if token == "" {
		return command.Text("Usage: %s", c.Usage()), state, nil
	}

	err := env.Shares.Revoke(ctx, token)
	if errors.Is(err, data.ErrNotExist) {
		return command.Text("%s: no such link: %s", c.Name(), token), state, nil
	}
	if err != nil {
		return nil, state, err
	}
	return command.Text("Revoked %s", token), state, nil
}
