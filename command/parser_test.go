package command

import (
	"reflect"
	"testing"
)

func loginFlags() *FlagSet {
	return NewFlagSet(
		&Flag{Name: "user", Short: "u", Description: "username"},
		&Flag{Name: "password", Short: "p", Description: "password"},
		&Flag{Name: "force", Short: "f", Type: "bool", Description: "force"},
		&Flag{Name: "recursive", Short: "r", Type: "bool", Description: "recursive"},
	)
}

func TestTokenize(t *testing.T) {
	tests := map[string]struct {
		line string
		name string
		rest []string
	}{
		"empty":         {line: "   ", name: "", rest: nil},
		"single":        {line: "HELP", name: "help", rest: []string{}},
		"args":          {line: "login -u alice", name: "login", rest: []string{"-u", "alice"}},
		"double-quoted": {line: `echo "hello  world" x`, name: "echo", rest: []string{"hello  world", "x"}},
		"single-quoted": {line: `cat 'my file.txt'`, name: "cat", rest: []string{"my file.txt"}},
		"escaped-quote": {line: `echo "say \"hi\""`, name: "echo", rest: []string{`say "hi"`}},
		"empty-quotes":  {line: `echo ""`, name: "echo", rest: []string{""}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			gotName, gotRest := Tokenize(tc.line)
			if gotName != tc.name {
				t.Errorf("expected name %q, got %q", tc.name, gotName)
			}
			if len(gotRest) != len(tc.rest) || (len(tc.rest) > 0 && !reflect.DeepEqual(gotRest, tc.rest)) {
				t.Errorf("expected rest %q, got %q", tc.rest, gotRest)
			}
		})
	}
}

func TestParse_Flags(t *testing.T) {
	tests := map[string]struct {
		tokens     []string
		flags      map[string]any
		positional []string
	}{
		"short-values": {
			tokens: []string{"-u", "alice", "-p", "secret"},
			flags:  map[string]any{"user": "alice", "password": "secret"},
		},
		"long-values": {
			tokens: []string{"--user", "alice", "--password=s3=cret"},
			flags:  map[string]any{"user": "alice", "password": "s3=cret"},
		},
		"attached-short": {
			tokens: []string{"-ualice"},
			flags:  map[string]any{"user": "alice"},
		},
		"bool-cluster": {
			tokens:     []string{"-rf", "docs"},
			flags:      map[string]any{"recursive": true, "force": true},
			positional: []string{"docs"},
		},
		"unknown-ignored": {
			tokens:     []string{"--verbose", "-x", "docs"},
			flags:      map[string]any{},
			positional: []string{"docs"},
		},
		"terminator": {
			tokens:     []string{"-r", "--", "-u", "alice"},
			flags:      map[string]any{"recursive": true},
			positional: []string{"-u", "alice"},
		},
		"missing-value": {
			tokens: []string{"-u"},
			flags:  map[string]any{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			args := Parse(tc.tokens, loginFlags())
			if !reflect.DeepEqual(args.Flags, tc.flags) {
				t.Errorf("expected flags %v, got %v", tc.flags, args.Flags)
			}
			if len(args.Positional) != len(tc.positional) {
				t.Fatalf("expected positional %q, got %q", tc.positional, args.Positional)
			}
			for i := range tc.positional {
				if args.Positional[i] != tc.positional[i] {
					t.Errorf("expected positional %q, got %q", tc.positional, args.Positional)
				}
			}
		})
	}
}

func TestParse_InputRemainder(t *testing.T) {
	args := Parse([]string{"hello", "-u", "bob", "world"}, loginFlags())

	if args.Input != "hello world" {
		t.Errorf("expected input 'hello world', got %q", args.Input)
	}
	if args.Continuation {
		t.Error("fresh parse must not be a continuation")
	}
	if v, ok := args.String("user"); !ok || v != "bob" {
		t.Errorf("expected user 'bob', got %q", v)
	}
}

func TestParse_NilFlagSet(t *testing.T) {
	args := Parse([]string{"-a", "b"}, nil)

	if len(args.Flags) != 0 {
		t.Errorf("expected no flags, got %v", args.Flags)
	}
	if args.Input != "b" {
		t.Errorf("expected input 'b', got %q", args.Input)
	}
}

func TestContinue_Verbatim(t *testing.T) {
	raw := `  -p "pa ss" --user=x `
	args := Continue(raw)

	if args.Input != raw {
		t.Errorf("expected verbatim input %q, got %q", raw, args.Input)
	}
	if !args.Continuation {
		t.Error("expected continuation")
	}
	if len(args.Flags) != 0 || len(args.Positional) != 0 {
		t.Errorf("continuation must not parse flags: %v %v", args.Flags, args.Positional)
	}
}

func TestArgs_Merge(t *testing.T) {
	args := Parse([]string{"-u", "alice"}, loginFlags())
	args.Merge(map[string]any{
		"User":     "bob",
		"password": "secret",
		"force":    true,
		"quiet":    false,
		"hours":    float64(24),
		"none":     nil,
	})

	if v, _ := args.String("user"); v != "bob" {
		t.Errorf("expected payload to override user, got %q", v)
	}
	if v, _ := args.String("password"); v != "secret" {
		t.Errorf("expected password 'secret', got %q", v)
	}
	if !args.Bool("force") {
		t.Error("expected force flag")
	}
	if _, ok := args.Flags["quiet"]; ok {
		t.Error("false values must be dropped")
	}
	if v, _ := args.String("hours"); v != "24" {
		t.Errorf("expected hours '24', got %q", v)
	}
	if _, ok := args.Flags["none"]; ok {
		t.Error("null values must be dropped")
	}
}

func TestFlagSet_Help(t *testing.T) {
	help := loginFlags().Help()
	want := "  -f, --force        force\n" +
		"  -p, --password     password\n" +
		"  -r, --recursive    recursive\n" +
		"  -u, --user         username"

	if help != want {
		t.Errorf("unexpected help:\n%s\nwant:\n%s", help, want)
	}
}
