package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mwantia/webdesk/interaction"
)

// Tier is the privilege level a command is registered under.
type Tier int

const (
	TierGuest Tier = iota
	TierUser
	TierAccount
)

func (t Tier) String() string {
	switch t {
	case TierGuest:
		return "guest"
	case TierUser:
		return "user"
	case TierAccount:
		return "account"
	default:
		return "unknown"
	}
}

// Tiers returns the tiers visible under s, most privileged first.
// Account mode replaces the user tier; account mode without a signed-in user counts as no mode.
func (s Scope) Tiers() []Tier {
	switch {
	case s.Authenticated && s.Mode == interaction.ModeAccount:
		return []Tier{TierAccount, TierGuest}
	case s.Authenticated:
		return []Tier{TierUser, TierGuest}
	default:
		return []Tier{TierGuest}
	}
}

// Factory creates a fresh command value for each resolution.
type Factory func() Command

// Entry is one line of the help listing.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	ErrNilFactory       = errors.New("command: factory cannot be nil")
	ErrEmptyName        = errors.New("command: name cannot be empty")
	ErrAlreadyExists    = errors.New("command: already registered")
	ErrWorkflowConflict = errors.New("command: workflow already owned")
)

type registration struct {
	entry    Entry
	workflow interaction.Workflow
	factory  Factory
}

// Registry resolves command names per tier. Registration happens once at startup;
// lookups are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tiers map[Tier]map[string]*registration
}

func NewRegistry() *Registry {
	return &Registry{
		tiers: make(map[Tier]map[string]*registration),
	}
}

// Register adds a command to a tier. The factory is called once to read its metadata.
func (r *Registry) Register(tier Tier, factory Factory) error {
	if factory == nil {
		return ErrNilFactory
	}

	cmd := factory()
	if cmd == nil {
		return ErrNilFactory
	}

	name := strings.ToLower(strings.TrimSpace(cmd.Name()))
	if name == "" {
		return ErrEmptyName
	}

	reg := &registration{
		entry:   Entry{Name: name, Description: cmd.Description()},
		factory: factory,
	}
	if interactive, ok := cmd.(Interactive); ok {
		reg.workflow = interactive.Workflow()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	commands, ok := r.tiers[tier]
	if !ok {
		commands = make(map[string]*registration)
		r.tiers[tier] = commands
	}

	if _, exists := commands[name]; exists {
		return fmt.Errorf("%w: %s (%s)", ErrAlreadyExists, name, tier)
	}
	if reg.workflow != "" {
		for _, other := range commands {
			if other.workflow == reg.workflow {
				return fmt.Errorf("%w: %s by %s and %s (%s)", ErrWorkflowConflict, reg.workflow, other.entry.Name, name, tier)
			}
		}
	}

	commands[name] = reg
	return nil
}

// Resolve returns a fresh instance of the most privileged visible command named name.
func (r *Registry) Resolve(name string, scope Scope) (Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tier := range scope.Tiers() {
		if reg, ok := r.tiers[tier][name]; ok {
			return reg.factory(), true
		}
	}
	return nil, false
}

// Owner returns the visible command that owns workflow, searched in privilege order.
func (r *Registry) Owner(workflow interaction.Workflow, scope Scope) (Command, bool) {
	if workflow == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tier := range scope.Tiers() {
		for name, reg := range r.tiers[tier] {
			if reg.workflow != workflow {
				continue
			}
			// A same-named command in a more privileged tier shadows this one.
			if shadowed := r.shadowed(name, tier, scope); shadowed {
				continue
			}
			return reg.factory(), true
		}
	}
	return nil, false
}

func (r *Registry) shadowed(name string, tier Tier, scope Scope) bool {
	for _, other := range scope.Tiers() {
		if other == tier {
			return false
		}
		if _, ok := r.tiers[other][name]; ok {
			return true
		}
	}
	return false
}

// List returns the visible commands ordered by name, each name once.
func (r *Registry) List(scope Scope) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	entries := make([]Entry, 0)
	for _, tier := range scope.Tiers() {
		for name, reg := range r.tiers[tier] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			entries = append(entries, reg.entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}
