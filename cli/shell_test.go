package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mwantia/webdesk/config"
	"github.com/mwantia/webdesk/log"
	"golang.org/x/crypto/bcrypt"
)

func newTestRuntime(t *testing.T) *runtime {
	t.Helper()

	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Interaction.Store = "memory"
	cfg.Home.Backend = "memory"
	cfg.Auth.BcryptCost = bcrypt.MinCost

	rt, err := newRuntime(t.Context(), cfg, log.Discard())
	if err != nil {
		t.Fatalf("Failed to build runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close(t.Context()) })
	return rt
}

func TestRuntime_RejectsUnknownBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Home.Backend = "tape"

	if _, err := newRuntime(t.Context(), cfg, log.Discard()); err == nil {
		t.Error("expected unknown backend to fail")
	}
}

func TestRuntime_RejectsOverflowingQuota(t *testing.T) {
	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Interaction.Store = "memory"
	cfg.Home.Backend = "memory"
	cfg.Auth.Quota = "10 EiB"

	if _, err := newRuntime(t.Context(), cfg, log.Discard()); err == nil {
		t.Error("expected an overflowing quota to fail")
	}
}

func TestShell_Session(t *testing.T) {
	rt := newTestRuntime(t)

	input := strings.Join([]string{
		"register alice",
		"secret1",
		"secret1",
		"login alice",
		"secret1",
		"whoami",
		"exit",
		"echo never reached",
	}, "\n")

	var out bytes.Buffer
	if err := newShell(rt, strings.NewReader(input), &out).Run(t.Context()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Registration successful",
		"Login successful. Welcome, alice!",
		"alice$ alice\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "never reached") {
		t.Error("expected exit to close the shell")
	}
}

func TestShell_EndOfInput(t *testing.T) {
	rt := newTestRuntime(t)

	var out bytes.Buffer
	if err := newShell(rt, strings.NewReader("echo hello"), &out).Run(t.Context()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "guest$ hello\n") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
