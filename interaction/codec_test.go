package interaction

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mwantia/webdesk/data"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, KeySize)
}

func TestCodec_PlainRecord(t *testing.T) {
	codec, err := NewCodec(nil)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	state := State{Mode: ModeAccount, Pending: RenameAwaitingPassword{NewUsername: "bob"}}
	buf, err := codec.Encode(state)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `{"mode":"account","type":"rename","step":"get_password","data":{"new_username":"bob"}}`
	if string(buf) != want {
		t.Errorf("expected %s, got %s", want, buf)
	}

	got, err := codec.Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != state {
		t.Errorf("expected %+v, got %+v", state, got)
	}
}

func TestCodec_EmptyStepOmitsData(t *testing.T) {
	codec, _ := NewCodec(nil)

	buf, err := codec.Encode(State{Pending: LoginAwaitingUsername{}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if want := `{"type":"login","step":"get_username"}`; string(buf) != want {
		t.Errorf("expected %s, got %s", want, buf)
	}
}

func TestCodec_SealedHidesSecrets(t *testing.T) {
	codec, err := NewCodec(testKey())
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	if !codec.Sealed() {
		t.Fatal("expected sealed codec")
	}

	state := State{Pending: RegisterAwaitingConfirm{Username: "alice", Password: "hunter2"}}
	buf, err := codec.Encode(state)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if bytes.Contains(buf, []byte("hunter2")) {
		t.Error("sealed record contains the plain password")
	}

	got, err := codec.Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != state {
		t.Errorf("expected %+v, got %+v", state, got)
	}

	other, _ := NewCodec(bytes.Repeat([]byte{9}, KeySize))
	if _, err := other.Decode(buf); !errors.Is(err, data.ErrSealed) {
		t.Errorf("expected ErrSealed with a foreign key, got %v", err)
	}
}

func TestCodec_Errors(t *testing.T) {
	if _, err := NewCodec([]byte("short")); !errors.Is(err, ErrKeySize) {
		t.Errorf("expected ErrKeySize, got %v", err)
	}

	codec, _ := NewCodec(nil)
	if _, err := codec.Decode([]byte(`{"type":"login","step":"get_pin"}`)); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}
	if _, err := codec.Decode([]byte(`not json`)); err == nil {
		t.Error("expected decode error")
	}

	state, err := codec.Decode(nil)
	if err != nil || !state.IsZero() {
		t.Errorf("expected zero state for empty input, got %+v (%v)", state, err)
	}
}

func TestCodec_EveryStep(t *testing.T) {
	codec, _ := NewCodec(testKey())

	steps := []Step{
		LoginAwaitingUsername{},
		LoginAwaitingPassword{Username: "alice"},
		RegisterAwaitingUsername{},
		RegisterAwaitingPassword{Username: "alice"},
		RegisterAwaitingConfirm{Username: "alice", Password: "pw"},
		PasswdAwaitingCurrent{},
		PasswdAwaitingNew{Current: "old"},
		PasswdAwaitingConfirm{Current: "old", New: "new"},
		RenameAwaitingName{},
		RenameAwaitingPassword{NewUsername: "bob"},
		DeleteAccountAwaitingPassword{},
		DeleteAccountAwaitingConfirm{Password: "pw"},
		DeleteAwaitingConfirm{Path: "/docs", Recursive: true},
	}

	for _, step := range steps {
		t.Run(string(step.Workflow())+"/"+step.Name(), func(t *testing.T) {
			state := State{Mode: ModeAccount, Pending: step}
			buf, err := codec.Encode(state)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := codec.Decode(buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != state {
				t.Errorf("expected %+v, got %+v", state, got)
			}
		})
	}
}

func TestState_Transitions(t *testing.T) {
	state := State{Mode: ModeAccount}
	if state.IsZero() {
		t.Error("mode-only state is not zero")
	}

	next := state.Next(PasswdAwaitingCurrent{})
	if next.Type() != WorkflowPasswd || next.StepName() != StepGetCurrent || next.Mode != ModeAccount {
		t.Errorf("unexpected next state %+v", next)
	}

	resolved := next.Resolved()
	if resolved.Pending != nil || resolved.Mode != ModeAccount {
		t.Errorf("expected mode-only state, got %+v", resolved)
	}

	if (State{}).Type() != "" || (State{}).StepName() != "" {
		t.Error("zero state has no workflow")
	}
	if got := next.WithMode(ModeNone); got.Mode != ModeNone || got.Pending == nil {
		t.Errorf("WithMode must keep the step, got %+v", got)
	}
}
