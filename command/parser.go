package command

import (
	"strings"
	"unicode"
)

// Tokenize splits a command line into the lowercased command name and its remaining tokens.
// Single and double quotes group words; a backslash inside quotes escapes a quote or backslash.
func Tokenize(line string) (string, []string) {
	tokens := splitCommandLine(line)
	if len(tokens) == 0 {
		return "", nil
	}
	return strings.ToLower(tokens[0]), tokens[1:]
}

// Continue wraps the answer to a pending prompt. The text is kept verbatim and never split,
// so passwords containing spaces or flag markers survive unchanged.
func Continue(raw string) *Args {
	return &Args{
		Flags:        make(map[string]any),
		Input:        raw,
		Continuation: true,
		Raw:          raw,
	}
}

// Parse converts tokens into Args using the flag set. Parsing is permissive: unknown flags
// are dropped and a value flag missing its value is left unset, so commands decide what to
// report about missing or conflicting flags.
func Parse(tokens []string, flagSet *FlagSet) *Args {
	args := &Args{
		Flags: make(map[string]any),
	}

	if flagSet == nil {
		flagSet = &FlagSet{}
	}

	for flagName, flag := range flagSet.Flags {
		if flag.Default != nil {
			args.Flags[flagName] = flag.Default
		}
	}

	shortToName := make(map[string]string)
	for flagName, flag := range flagSet.Flags {
		if flag.Short != "" {
			shortToName[flag.Short] = flagName
		}
	}

	for i := 0; i < len(tokens); i++ {
		arg := tokens[i]

		if arg == "--" {
			args.Positional = append(args.Positional, tokens[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := parseLongFlag(arg)
			flag, exists := flagSet.Flags[strings.ToLower(key)]
			if !exists {
				continue
			}

			switch {
			case flag.Type == "bool":
				args.Flags[flag.Name] = !hasValue || isTrue(value)
			case hasValue:
				args.Flags[flag.Name] = value
			case i+1 < len(tokens):
				args.Flags[flag.Name] = tokens[i+1]
				i++
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			shortFlags := arg[1:]

			for j, shortChar := range shortFlags {
				flagName, exists := shortToName[string(shortChar)]
				if !exists {
					continue
				}

				flag := flagSet.Flags[flagName]
				if flag.Type == "bool" {
					args.Flags[flagName] = true
					continue
				}

				if j+1 < len(shortFlags) {
					args.Flags[flagName] = shortFlags[j+1:]
				} else if i+1 < len(tokens) {
					args.Flags[flagName] = tokens[i+1]
					i++
				}
				break
			}
			continue
		}

		args.Positional = append(args.Positional, arg)
	}

	args.Input = strings.Join(args.Positional, " ")
	return args
}

func parseLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func isTrue(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingle, inDouble, quoted bool

	for i := 0; i < len(input); i++ {
		char := input[i]

		switch {
		case char == '\'' && !inDouble:
			inSingle = !inSingle
			quoted = true

		case char == '"' && !inSingle:
			inDouble = !inDouble
			quoted = true

		case char == '\\' && i+1 < len(input) && (inSingle || inDouble):
			next := input[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteByte(next)
				i++
			} else {
				current.WriteByte(char)
			}

		case char < 0x80 && unicode.IsSpace(rune(char)) && !inSingle && !inDouble:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}

		default:
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}

	return tokens
}
