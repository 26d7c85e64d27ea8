package builtin_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mwantia/webdesk/auth"
	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/command/builtin"
	"github.com/mwantia/webdesk/home/memory"
	"github.com/mwantia/webdesk/interaction"
	"github.com/mwantia/webdesk/log"
	"github.com/mwantia/webdesk/store/sqlite"
	"golang.org/x/crypto/bcrypt"
)

// harness drives commands the way a single session would, without the dispatcher's locking.
type harness struct {
	t       *testing.T
	reg     *command.Registry
	manager *auth.Manager
	sid     string
	state   interaction.State
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	reg, err := builtin.NewRegistry()
	if err != nil {
		t.Fatalf("Failed to register builtins: %v", err)
	}

	st, err := sqlite.NewSQLiteStore(t.Context(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	manager, err := auth.NewManager(st, memory.NewMemoryTree(), auth.WithBcryptCost(bcrypt.MinCost), auth.WithQuota(1<<20))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	return &harness{t: t, reg: reg, manager: manager, sid: "test-session"}
}

func (h *harness) env() *command.Env {
	h.t.Helper()

	ctx := h.t.Context()
	session := h.manager.Session(h.sid)
	files, shares, err := session.Workspace(ctx)
	if err != nil {
		h.t.Fatalf("Workspace failed: %v", err)
	}

	return &command.Env{
		SessionID: h.sid,
		Scope:     command.Scope{Authenticated: session.IsLoggedIn(ctx), Mode: h.state.Mode},
		Auth:      session,
		Catalog:   h.reg,
		Log:       log.Discard(),
		Files:     files,
		Shares:    shares,
	}
}

// run executes a fresh command line.
func (h *harness) run(line string) *command.Output {
	h.t.Helper()

	env := h.env()
	name, tokens := command.Tokenize(line)
	cmd, ok := h.reg.Resolve(name, env.Scope)
	if !ok {
		h.t.Fatalf("command %q not visible in %+v", name, env.Scope)
	}

	out, next, err := cmd.Execute(h.t.Context(), env, command.Parse(tokens, cmd.GetFlags()), h.state.Resolved())
	if err != nil {
		h.t.Fatalf("%q failed: %v", line, err)
	}
	h.state = next
	return out
}

// answer continues the pending workflow.
func (h *harness) answer(input string) *command.Output {
	h.t.Helper()

	env := h.env()
	cmd, ok := h.reg.Owner(h.state.Type(), env.Scope)
	if !ok {
		h.t.Fatalf("no owner for %+v", h.state)
	}

	out, next, err := cmd.Execute(h.t.Context(), env, command.Continue(input), h.state)
	if err != nil {
		h.t.Fatalf("answer %q failed: %v", input, err)
	}
	h.state = next
	return out
}

func (h *harness) expectState(want interaction.State) {
	h.t.Helper()
	if h.state != want {
		h.t.Fatalf("expected state %+v, got %+v", want, h.state)
	}
}

func (h *harness) signIn(username, password string) {
	h.t.Helper()
	h.run("register -u " + username + " -p " + password)
	if out := h.run("login -u " + username + " -p " + password); !strings.HasPrefix(out.Output, "Login successful") {
		h.t.Fatalf("login failed: %q", out.Output)
	}
}

func expectPrompt(t *testing.T, out *command.Output, text string, input command.InputType) {
	t.Helper()
	if !out.InteractiveFinal || out.PromptText != text || out.InputType != input {
		t.Fatalf("expected %s prompt %q, got %+v", input, text, out)
	}
}

func names(entries []command.Entry) []string {
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.Name)
	}
	return result
}

func TestTable_Visibility(t *testing.T) {
	reg, err := builtin.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	guest := strings.Join(names(reg.List(command.Scope{})), ",")
	if guest != "clear,date,echo,exit,help,login,register,whoami" {
		t.Errorf("unexpected guest listing %s", guest)
	}

	user := names(reg.List(command.Scope{Authenticated: true}))
	if strings.Count(strings.Join(user, ",")+",", "help,") != 1 {
		t.Errorf("expected help exactly once, got %v", user)
	}

	scope := command.Scope{Authenticated: true, Mode: interaction.ModeAccount}
	if _, ok := reg.Resolve("ls", scope); ok {
		t.Error("expected ls to be hidden in account mode")
	}
	for _, name := range []string{"passwd", "rename", "delete", "info", "exit", "help"} {
		if _, ok := reg.Resolve(name, scope); !ok {
			t.Errorf("expected %s in account mode", name)
		}
	}
	if cmd, _ := reg.Resolve("exit", scope); cmd.Description() != "Leave account mode" {
		t.Errorf("expected account exit to shadow the guest exit, got %q", cmd.Description())
	}
	if cmd, _ := reg.Resolve("login", scope); cmd.Description() != "Show the signed-in account" {
		t.Errorf("expected account login to shadow the guest login, got %q", cmd.Description())
	}

	if err := builtin.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestLogin_Interactive(t *testing.T) {
	h := newHarness(t)
	h.run("register -u alice -p secret1")
	h.expectState(interaction.State{})

	expectPrompt(t, h.run("login"), "Username: ", command.InputText)
	h.expectState(interaction.State{Pending: interaction.LoginAwaitingUsername{}})

	expectPrompt(t, h.answer(" alice "), "Password: ", command.InputPassword)
	h.expectState(interaction.State{Pending: interaction.LoginAwaitingPassword{Username: "alice"}})

	out := h.answer("secret1")
	if out.Output != "Login successful. Welcome, alice!" || out.InteractiveFinal {
		t.Errorf("unexpected output %+v", out)
	}
	h.expectState(interaction.State{})

	if out := h.run("login"); !strings.HasPrefix(out.Output, "You are already logged in as alice") {
		t.Errorf("expected signed-in override, got %q", out.Output)
	}
}

func TestLogin_FastPathAndFailures(t *testing.T) {
	h := newHarness(t)
	h.run("register -u alice -p secret1")

	if out := h.run("login -u alice -p wrong-pass"); out.Output != "Invalid username or password." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{})

	expectPrompt(t, h.run("login alice"), "Password: ", command.InputPassword)
	if out := h.answer("nope"); out.Output != "Invalid username or password." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{})

	h.run("login")
	if out := h.answer("CANCEL"); out.Output != "Cancelled." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{})

	if out := h.run("login -u alice -p secret1"); out.InteractiveFinal || !strings.HasPrefix(out.Output, "Login successful") {
		t.Errorf("unexpected output %+v", out)
	}
	h.expectState(interaction.State{})
}

func TestCredentials_PasswordWithoutUsername(t *testing.T) {
	h := newHarness(t)

	if out := h.run("login -p secret1"); out.Output != "login: a username is required with -p\nUsage: login [-u username] [-p password]" || out.InteractiveFinal {
		t.Errorf("unexpected output %+v", out)
	}
	h.expectState(interaction.State{})

	if out := h.run("register --password secret1"); !strings.HasPrefix(out.Output, "register: a username is required with -p") {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{})

	h.signIn("alice", "secret1")
	h.run("account")
	if out := h.run("rename -p secret1"); !strings.HasPrefix(out.Output, "rename: a username is required with -p") {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{Mode: interaction.ModeAccount})
	if out := h.run("info"); !strings.HasPrefix(out.Output, "Username: alice") {
		t.Errorf("expected the account to keep its name, got %q", out.Output)
	}
}

func TestRegister_Interactive(t *testing.T) {
	h := newHarness(t)
	secret := "pass word -u --x"

	expectPrompt(t, h.run("register"), "Username: ", command.InputText)
	expectPrompt(t, h.answer("alice"), "Password: ", command.InputPassword)
	expectPrompt(t, h.answer(secret), "Confirm password: ", command.InputPassword)
	if out := h.answer(secret + " "); !strings.HasPrefix(out.Output, "Passwords do not match") {
		t.Errorf("expected mismatch, got %q", out.Output)
	}
	h.expectState(interaction.State{})

	h.run("register alice")
	h.answer(secret)
	if out := h.answer(secret); !strings.HasPrefix(out.Output, "Registration successful") {
		t.Fatalf("registration failed: %q", out.Output)
	}

	h.run("login -u alice")
	if out := h.answer(secret); !strings.HasPrefix(out.Output, "Login successful") {
		t.Errorf("expected verbatim password to work, got %q", out.Output)
	}
}

func TestAccount_Passwd(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice", "secret1")
	account := interaction.State{Mode: interaction.ModeAccount}

	h.run("account")
	h.expectState(account)

	expectPrompt(t, h.run("passwd"), "Current password: ", command.InputPassword)
	expectPrompt(t, h.answer("secret1"), "New password: ", command.InputPassword)
	expectPrompt(t, h.answer("secret2"), "Confirm new password: ", command.InputPassword)
	if out := h.answer("secret3"); !strings.HasPrefix(out.Output, "Passwords do not match") {
		t.Errorf("expected mismatch, got %q", out.Output)
	}
	h.expectState(account)

	if out := h.run("passwd -c wrong-pass -n secret2"); out.Output != "Incorrect password." {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("passwd -c secret1 -n secret2"); out.Output != "Password changed successfully." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(account)

	if out := h.run("exit"); out.Action != nil {
		t.Errorf("expected account exit not to close the window, got %+v", out.Action)
	}
	h.expectState(interaction.State{})
}

func TestAccount_RenameFailureKeepsMode(t *testing.T) {
	h := newHarness(t)
	h.run("register -u bob -p secret1")
	h.signIn("alice", "secret1")
	h.run("account")

	expectPrompt(t, h.run("rename"), "New username: ", command.InputText)
	expectPrompt(t, h.answer("bob"), "Password: ", command.InputPassword)
	h.expectState(interaction.State{Mode: interaction.ModeAccount, Pending: interaction.RenameAwaitingPassword{NewUsername: "bob"}})

	if out := h.answer("secret1"); out.Output != "Username 'bob' is already taken." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{Mode: interaction.ModeAccount})

	if out := h.run("rename -u carol -p secret1"); out.Output != "Username changed from alice to carol." {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("info"); !strings.HasPrefix(out.Output, "Username: carol") {
		t.Errorf("unexpected info %q", out.Output)
	}
}

func TestAccount_Delete(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice", "secret1")
	h.run("account")

	expectPrompt(t, h.run("delete"), "Password: ", command.InputPassword)
	expectPrompt(t, h.answer("secret1"), "Type DELETE to permanently delete your account: ", command.InputText)
	if out := h.answer("delete"); out.Output != "Cancelled." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{Mode: interaction.ModeAccount})

	if out := h.run("delete -p wrong-pass -y"); out.Output != "Incorrect password." || out.Logout {
		t.Errorf("unexpected output %+v", out)
	}
	h.expectState(interaction.State{Mode: interaction.ModeAccount})

	h.run("delete -p secret1")
	out := h.answer("DELETE")
	if !out.Logout || out.Output != "Account alice has been deleted." {
		t.Errorf("unexpected output %+v", out)
	}
	h.expectState(interaction.State{})

	if out := h.run("whoami"); out.Output != "guest" {
		t.Errorf("expected guest, got %q", out.Output)
	}
	if out := h.run("login -u alice -p secret1"); out.Output != "Invalid username or password." {
		t.Errorf("expected deleted account to be gone, got %q", out.Output)
	}
}

func TestFiles(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice", "secret1")

	if out := h.run("ls"); out.Output != "Documents/\nPictures/\nREADME.txt" {
		t.Errorf("unexpected listing %q", out.Output)
	}
	if out := h.run("mkdir Documents/a/b"); out.Output != "mkdir: Documents/a/b: No such file or directory" {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.run("mkdir -p Documents/a/b")
	if out := h.run("ls -l Documents"); !strings.HasSuffix(out.Output, " a/") {
		t.Errorf("unexpected long listing %q", out.Output)
	}
	if out := h.run("cat README.txt"); !strings.HasPrefix(out.Output, "Welcome to your webdesk home") {
		t.Errorf("unexpected content %q", out.Output)
	}
	if out := h.run("cat Documents"); out.Output != "cat: Documents: Is a directory" {
		t.Errorf("unexpected output %q", out.Output)
	}

	if out := h.run("rm Documents"); out.Output != "rm: Documents: Is a directory (use -r)" {
		t.Errorf("unexpected output %q", out.Output)
	}
	expectPrompt(t, h.run("rm -r Documents"), "Delete /Documents and everything in it? (yes/no): ", command.InputText)
	h.expectState(interaction.State{Pending: interaction.DeleteAwaitingConfirm{Path: "/Documents", Recursive: true}})
	if out := h.answer("no"); out.Output != "Cancelled." {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.run("rm -r Documents")
	if out := h.answer("yes"); out.Output != "Deleted /Documents" {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("rm -f README.txt"); out.Output != "Deleted /README.txt" {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.expectState(interaction.State{})
	if out := h.run("rm -rf /"); out.Output != "rm: refusing to delete your home directory" {
		t.Errorf("unexpected output %q", out.Output)
	}

	out := h.run("explorer Pictures")
	if out.Action == nil || out.Action.Type != command.ActionOpenApp || out.Action.App != "explorer" || out.Action.Options["path"] != "/Pictures" {
		t.Errorf("unexpected action %+v", out.Action)
	}
	if out := h.run("console"); out.Action == nil || out.Action.Type != command.ActionOpenConsole {
		t.Errorf("unexpected action %+v", out.Action)
	}
	if out := h.run("df"); !strings.HasPrefix(out.Output, "Used 0 B of 1.0 MiB") {
		t.Errorf("unexpected usage %q", out.Output)
	}
}

func TestWrite(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice", "secret1")

	if out := h.run("write notes.txt"); out.Output != "Usage: write [-a] <path> <text>" {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("write notes.txt hello there"); out.Output != "Wrote notes.txt (12 B)" {
		t.Errorf("unexpected output %q", out.Output)
	}
	h.run("write -a notes.txt again")
	if out := h.run("cat notes.txt"); out.Output != "hello there\nagain\n" {
		t.Errorf("unexpected content %q", out.Output)
	}
	if out := h.run("write Documents text"); out.Output != "write: Documents: Is a directory" {
		t.Errorf("unexpected output %q", out.Output)
	}

	big := strings.Repeat("x", 1<<20)
	if out := h.run("write big.txt " + big); out.Output != "write: big.txt: Storage quota exceeded" {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("cat big.txt"); out.Output != "cat: big.txt: No such file or directory" {
		t.Errorf("expected the rejected file to be absent, got %q", out.Output)
	}
	h.expectState(interaction.State{})
}

func TestShares(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice", "secret1")

	if out := h.run("share missing.txt"); out.Output != "share: missing.txt: No such file or directory" {
		t.Errorf("unexpected output %q", out.Output)
	}
	for _, value := range []string{"soon", "-1", "NaN", "Inf", "+Inf", "1e12", "87601", "1e-15"} {
		if out := h.run("share -e " + value + " README.txt"); out.Output != fmt.Sprintf("share: invalid expiry %q", value) {
			t.Errorf("expiry %s: unexpected output %q", value, out.Output)
		}
	}
	if out := h.run("shares"); out.Output != "No shared links." {
		t.Errorf("expected rejected expiries to create no links, got %q", out.Output)
	}

	out := h.run("share -e 2 README.txt")
	if !strings.HasPrefix(out.Output, "Shared /README.txt\nToken: ") {
		t.Fatalf("unexpected output %q", out.Output)
	}
	token := strings.TrimPrefix(strings.Split(out.Output, "\n")[1], "Token: ")

	if out := h.run("shares"); !strings.HasPrefix(out.Output, token+"  /README.txt") {
		t.Errorf("unexpected listing %q", out.Output)
	}
	if out := h.run("unshare " + token); out.Output != "Revoked "+token {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("unshare " + token); out.Output != "unshare: no such link: "+token {
		t.Errorf("unexpected output %q", out.Output)
	}
	if out := h.run("shares"); out.Output != "No shared links." {
		t.Errorf("unexpected listing %q", out.Output)
	}
}

func TestGeneral(t *testing.T) {
	h := newHarness(t)

	out := h.run("help")
	if !strings.HasPrefix(out.Output, "Available commands:\n") || !strings.Contains(out.Output, "register  Create a new account") {
		t.Errorf("unexpected help %q", out.Output)
	}
	if out := h.run("help LOGIN"); !strings.Contains(out.Output, "Usage: login [-u username] [-p password]") || !strings.Contains(out.Output, "-u, --user") {
		t.Errorf("unexpected help %q", out.Output)
	}
	if out := h.run("help ls"); out.Output != "help: no such command: ls" {
		t.Errorf("expected hidden command to stay hidden, got %q", out.Output)
	}

	if out := h.run(`echo "hello   world" again`); out.Output != "hello   world again" {
		t.Errorf("unexpected echo %q", out.Output)
	}
	if out := h.run("clear"); !out.Clear {
		t.Error("expected clear flag")
	}
	if out := h.run("whoami"); out.Output != "guest" {
		t.Errorf("unexpected whoami %q", out.Output)
	}
	if out := h.run("date"); out.Output == "" {
		t.Error("expected a date")
	}
	if out := h.run("exit"); out.Action == nil || out.Action.Type != command.ActionCloseWindow {
		t.Errorf("unexpected action %+v", out.Action)
	}

	h.signIn("alice", "secret1")
	out = h.run("logout")
	if !out.Logout || out.Output != "Goodbye, alice. You have been logged out." {
		t.Errorf("unexpected output %+v", out)
	}
	if out := h.run("whoami"); out.Output != "guest" {
		t.Errorf("unexpected whoami %q", out.Output)
	}
}
