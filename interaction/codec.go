package interaction

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/webdesk/data"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	nonceSize = 24
)

var (
	ErrUnknownStep = errors.New("interaction: unknown workflow step")
	ErrKeySize     = errors.New("interaction: sealing key must be 32 bytes")
)

// record is the stored form of a State.
type record struct {
	Mode Mode            `json:"mode,omitempty"`
	Type Workflow        `json:"type,omitempty"`
	Step string          `json:"step,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Codec converts states to bytes for durable stores. With a key, records are sealed with
// nacl/secretbox so password scratch values never rest in plain text.
type Codec struct {
	key *[KeySize]byte
}

// NewCodec returns a codec; an empty key stores plain JSON.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return &Codec{}, nil
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	c := &Codec{key: new([KeySize]byte)}
	copy(c.key[:], key)
	return c, nil
}

// Sealed reports whether records are encrypted.
func (c *Codec) Sealed() bool {
	return c != nil && c.key != nil
}

func (c *Codec) Encode(state State) ([]byte, error) {
	rec := record{Mode: state.Mode}
	if state.Pending != nil {
		raw, err := json.Marshal(state.Pending)
		if err != nil {
			return nil, fmt.Errorf("interaction: failed to encode step: %w", err)
		}
		rec.Type = state.Pending.Workflow()
		rec.Step = state.Pending.Name()
		if string(raw) != "{}" {
			rec.Data = raw
		}
	}

	plain, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if !c.Sealed() {
		return plain, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, c.key), nil
}

func (c *Codec) Decode(buf []byte) (State, error) {
	if len(buf) == 0 {
		return State{}, nil
	}

	plain := buf
	if c.Sealed() {
		if len(buf) < nonceSize+secretbox.Overhead {
			return State{}, data.ErrSealed
		}
		var nonce [nonceSize]byte
		copy(nonce[:], buf[:nonceSize])

		opened, ok := secretbox.Open(nil, buf[nonceSize:], &nonce, c.key)
		if !ok {
			return State{}, data.ErrSealed
		}
		plain = opened
	}

	var rec record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return State{}, fmt.Errorf("interaction: failed to decode record: %w", err)
	}

	state := State{Mode: rec.Mode}
	if rec.Type == "" && rec.Step == "" {
		return state, nil
	}

	step, err := newStep(rec.Type, rec.Step)
	if err != nil {
		return State{}, err
	}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, step); err != nil {
			return State{}, fmt.Errorf("interaction: failed to decode %s/%s: %w", rec.Type, rec.Step, err)
		}
	}

	state.Pending = deref(step)
	return state, nil
}

// newStep returns a pointer to the zero value of the named step.
func newStep(workflow Workflow, name string) (any, error) {
	switch workflow {
	case WorkflowLogin:
		switch name {
		case StepGetUsername:
			return &LoginAwaitingUsername{}, nil
		case StepGetPassword:
			return &LoginAwaitingPassword{}, nil
		}
	case WorkflowRegister:
		switch name {
		case StepGetUsername:
			return &RegisterAwaitingUsername{}, nil
		case StepGetPassword:
			return &RegisterAwaitingPassword{}, nil
		case StepConfirmPassword:
			return &RegisterAwaitingConfirm{}, nil
		}
	case WorkflowPasswd:
		switch name {
		case StepGetCurrent:
			return &PasswdAwaitingCurrent{}, nil
		case StepGetNew:
			return &PasswdAwaitingNew{}, nil
		case StepConfirmNew:
			return &PasswdAwaitingConfirm{}, nil
		}
	case WorkflowRename:
		switch name {
		case StepGetUsername:
			return &RenameAwaitingName{}, nil
		case StepGetPassword:
			return &RenameAwaitingPassword{}, nil
		}
	case WorkflowDeleteAccount:
		switch name {
		case StepGetPassword:
			return &DeleteAccountAwaitingPassword{}, nil
		case StepConfirm:
			return &DeleteAccountAwaitingConfirm{}, nil
		}
	case WorkflowDelete:
		if name == StepConfirm {
			return &DeleteAwaitingConfirm{}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownStep, workflow, name)
}

func deref(step any) Step {
	switch s := step.(type) {
	case *LoginAwaitingUsername:
		return *s
	case *LoginAwaitingPassword:
		return *s
	case *RegisterAwaitingUsername:
		return *s
	case *RegisterAwaitingPassword:
		return *s
	case *RegisterAwaitingConfirm:
		return *s
	case *PasswdAwaitingCurrent:
		return *s
	case *PasswdAwaitingNew:
		return *s
	case *PasswdAwaitingConfirm:
		return *s
	case *RenameAwaitingName:
		return *s
	case *RenameAwaitingPassword:
		return *s
	case *DeleteAccountAwaitingPassword:
		return *s
	case *DeleteAccountAwaitingConfirm:
		return *s
	case *DeleteAwaitingConfirm:
		return *s
	default:
		return nil
	}
}
