package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Args contains parsed command arguments
type Args struct {
	// Parsed flags, keyed by long name; values are string or true
	Flags map[string]any

	// Positional arguments left after flag parsing
	Positional []string

	// Free-text remainder, or the verbatim answer to a pending prompt
	Input string

	// Continuation is set when Input answers a prompt of a pending workflow
	Continuation bool

	// Raw input line as received
	Raw string
}

// String returns a non-empty string flag value.
func (a *Args) String(name string) (string, bool) {
	if a == nil {
		return "", false
	}
	switch v := a.Flags[name].(type) {
	case string:
		return v, v != ""
	case bool:
		return "", false
	case nil:
		return "", false
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

// Bool reports whether a boolean flag was given.
func (a *Args) Bool(name string) bool {
	if a == nil {
		return false
	}
	switch v := a.Flags[name].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

// Arg returns the i-th positional argument or "".
func (a *Args) Arg(i int) string {
	if a == nil || i < 0 || i >= len(a.Positional) {
		return ""
	}
	return a.Positional[i]
}

// Merge copies structured payload values over the parsed flags.
// Keys are lowercased; false and null values are dropped.
func (a *Args) Merge(payload map[string]any) {
	if len(payload) == 0 {
		return
	}
	if a.Flags == nil {
		a.Flags = make(map[string]any, len(payload))
	}
	for key, value := range payload {
		key = strings.ToLower(strings.TrimLeft(key, "-"))
		if key == "" {
			continue
		}
		switch v := value.(type) {
		case nil:
		case bool:
			if v {
				a.Flags[key] = true
			}
		case string:
			a.Flags[key] = v
		case float64:
			a.Flags[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			a.Flags[key] = fmt.Sprint(v)
		}
	}
}

// FlagSet defines the expected flags for a command
type FlagSet struct {
	Flags map[string]*Flag
}

// Flag represents a single command flag
type Flag struct {
	Name        string `json:"name"`              // e.g., "user"
	Short       string `json:"short"`             // Single-char shorthand (e.g., "u")
	Type        string `json:"type"`              // "string" or "bool"
	Default     any    `json:"default,omitempty"` // Default value
	Description string `json:"description"`       // Help text
}

// NewFlagSet indexes flags by their long name.
func NewFlagSet(flags ...*Flag) *FlagSet {
	fs := &FlagSet{Flags: make(map[string]*Flag, len(flags))}
	for _, flag := range flags {
		if flag.Type == "" {
			flag.Type = "string"
		}
		fs.Flags[flag.Name] = flag
	}
	return fs
}

// Sorted returns the flags ordered by long name.
func (fs *FlagSet) Sorted() []*Flag {
	if fs == nil {
		return nil
	}
	flags := make([]*Flag, 0, len(fs.Flags))
	for _, flag := range fs.Flags {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool {
		return flags[i].Name < flags[j].Name
	})
	return flags
}

// Help renders one line per flag for usage output.
func (fs *FlagSet) Help() string {
	var sb strings.Builder
	for _, flag := range fs.Sorted() {
		names := "--" + flag.Name
		if flag.Short != "" {
			names = "-" + flag.Short + ", " + names
		}
		fmt.Fprintf(&sb, "  %-18s %s\n", names, flag.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
