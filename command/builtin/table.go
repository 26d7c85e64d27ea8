// Package builtin contains the terminal commands shipped with webdesk and the static table
// that registers them.
package builtin

import (
	"github.com/mwantia/webdesk/command"
)

// Registration binds a command factory to the tier it is visible in.
type Registration struct {
	Tier    command.Tier
	Factory command.Factory
}

// Table lists every builtin command. Same-named entries in different tiers are intentional
// overrides: the most privileged visible tier wins.
var Table = []Registration{
	{command.TierGuest, func() command.Command { return &HelpCommand{} }},
	{command.TierGuest, func() command.Command { return &ClearCommand{} }},
	{command.TierGuest, func() command.Command { return &EchoCommand{} }},
	{command.TierGuest, func() command.Command { return &DateCommand{} }},
	{command.TierGuest, func() command.Command { return &WhoAmICommand{} }},
	{command.TierGuest, func() command.Command { return &LoginCommand{} }},
	{command.TierGuest, func() command.Command { return &RegisterCommand{} }},
	{command.TierGuest, func() command.Command { return &CloseCommand{} }},

	{command.TierUser, func() command.Command { return &SignedInCommand{} }},
	{command.TierUser, func() command.Command { return &LogoutCommand{} }},
	{command.TierUser, func() command.Command { return &ExplorerCommand{} }},
	{command.TierUser, func() command.Command { return &ConsoleCommand{} }},
	{command.TierUser, func() command.Command { return &LsCommand{} }},
	{command.TierUser, func() command.Command { return &CatCommand{} }},
	{command.TierUser, func() command.Command { return &WriteCommand{} }},
	{command.TierUser, func() command.Command { return &MkdirCommand{} }},
	{command.TierUser, func() command.Command { return &RmCommand{} }},
	{command.TierUser, func() command.Command { return &DfCommand{} }},
	{command.TierUser, func() command.Command { return &ShareCommand{} }},
	{command.TierUser, func() command.Command { return &SharesCommand{} }},
	{command.TierUser, func() command.Command { return &UnshareCommand{} }},
	{command.TierUser, func() command.Command { return &AccountCommand{} }},

	{command.TierAccount, func() command.Command { return &SignedInCommand{} }},
	{command.TierAccount, func() command.Command { return &LeaveCommand{} }},
	{command.TierAccount, func() command.Command { return &InfoCommand{} }},
	{command.TierAccount, func() command.Command { return &PasswdCommand{} }},
	{command.TierAccount, func() command.Command { return &RenameCommand{} }},
	{command.TierAccount, func() command.Command { return &DeleteAccountCommand{} }},
}

// Register adds every entry of Table to reg.
func Register(reg *command.Registry) error {
	for _, entry := range Table {
		if err := reg.Register(entry.Tier, entry.Factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the builtin commands.
func NewRegistry() (*command.Registry, error) {
	reg := command.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
