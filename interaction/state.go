// Package interaction holds the single piece of cross-request workflow memory a terminal
// session owns: an optional namespace Mode plus at most one Pending step of a multi-step
// command. Steps are a closed set of types so command state machines switch over them
// instead of comparing strings.
package interaction

// Mode switches the visible command namespace.
type Mode string

const (
	ModeNone    Mode = ""
	ModeAccount Mode = "account"
)

// Workflow identifies the command that owns a pending step.
type Workflow string

const (
	WorkflowLogin         Workflow = "login"
	WorkflowRegister      Workflow = "register"
	WorkflowPasswd        Workflow = "passwd"
	WorkflowRename        Workflow = "rename"
	WorkflowDeleteAccount Workflow = "delete_account"
	WorkflowDelete        Workflow = "delete"
)

// State is the per-session interaction slot. The zero value means "absent".
type State struct {
	Mode    Mode
	Pending Step
}

// IsZero reports whether nothing is stored for the session.
func (s State) IsZero() bool {
	return s.Mode == ModeNone && s.Pending == nil
}

// Type returns the owning workflow of the pending step, or "" when none is pending.
func (s State) Type() Workflow {
	if s.Pending == nil {
		return ""
	}
	return s.Pending.Workflow()
}

// StepName returns the pending step name, or "" when none is pending.
func (s State) StepName() string {
	if s.Pending == nil {
		return ""
	}
	return s.Pending.Name()
}

// Next keeps the mode and replaces the pending step.
func (s State) Next(step Step) State {
	return State{Mode: s.Mode, Pending: step}
}

// Resolved drops the pending step and keeps only the mode.
func (s State) Resolved() State {
	return State{Mode: s.Mode}
}

// WithMode keeps the pending step and replaces the mode.
func (s State) WithMode(mode Mode) State {
	return State{Mode: mode, Pending: s.Pending}
}

// Step is one named state of a workflow. The set of implementations is closed.
type Step interface {
	Workflow() Workflow
	Name() string
	sealed()
}

// Step names shared across workflows.
const (
	StepGetUsername     = "get_username"
	StepGetPassword     = "get_password"
	StepConfirmPassword = "confirm_password"
	StepGetCurrent      = "get_current"
	StepGetNew          = "get_new"
	StepConfirmNew      = "confirm_new"
	StepConfirm         = "confirm"
)

type LoginAwaitingUsername struct{}

type LoginAwaitingPassword struct {
	Username string `json:"username"`
}

type RegisterAwaitingUsername struct{}

type RegisterAwaitingPassword struct {
	Username string `json:"username"`
}

type RegisterAwaitingConfirm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PasswdAwaitingCurrent struct{}

type PasswdAwaitingNew struct {
	Current string `json:"current"`
}

type PasswdAwaitingConfirm struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

type RenameAwaitingName struct{}

type RenameAwaitingPassword struct {
	NewUsername string `json:"new_username"`
}

type DeleteAccountAwaitingPassword struct{}

type DeleteAccountAwaitingConfirm struct {
	Password string `json:"password"`
}

type DeleteAwaitingConfirm struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

func (LoginAwaitingUsername) Workflow() Workflow         { return WorkflowLogin }
func (LoginAwaitingPassword) Workflow() Workflow         { return WorkflowLogin }
func (RegisterAwaitingUsername) Workflow() Workflow      { return WorkflowRegister }
func (RegisterAwaitingPassword) Workflow() Workflow      { return WorkflowRegister }
func (RegisterAwaitingConfirm) Workflow() Workflow       { return WorkflowRegister }
func (PasswdAwaitingCurrent) Workflow() Workflow         { return WorkflowPasswd }
func (PasswdAwaitingNew) Workflow() Workflow             { return WorkflowPasswd }
func (PasswdAwaitingConfirm) Workflow() Workflow         { return WorkflowPasswd }
func (RenameAwaitingName) Workflow() Workflow            { return WorkflowRename }
func (RenameAwaitingPassword) Workflow() Workflow        { return WorkflowRename }
func (DeleteAccountAwaitingPassword) Workflow() Workflow { return WorkflowDeleteAccount }
func (DeleteAccountAwaitingConfirm) Workflow() Workflow  { return WorkflowDeleteAccount }
func (DeleteAwaitingConfirm) Workflow() Workflow         { return WorkflowDelete }

func (LoginAwaitingUsername) Name() string         { return StepGetUsername }
func (LoginAwaitingPassword) Name() string         { return StepGetPassword }
func (RegisterAwaitingUsername) Name() string      { return StepGetUsername }
func (RegisterAwaitingPassword) Name() string      { return StepGetPassword }
func (RegisterAwaitingConfirm) Name() string       { return StepConfirmPassword }
func (PasswdAwaitingCurrent) Name() string         { return StepGetCurrent }
func (PasswdAwaitingNew) Name() string             { return StepGetNew }
func (PasswdAwaitingConfirm) Name() string         { return StepConfirmNew }
func (RenameAwaitingName) Name() string            { return StepGetUsername }
func (RenameAwaitingPassword) Name() string        { return StepGetPassword }
func (DeleteAccountAwaitingPassword) Name() string { return StepGetPassword }
func (DeleteAccountAwaitingConfirm) Name() string  { return StepConfirm }
func (DeleteAwaitingConfirm) Name() string         { return StepConfirm }

func (LoginAwaitingUsername) sealed()         {}
func (LoginAwaitingPassword) sealed()         {}
func (RegisterAwaitingUsername) sealed()      {}
func (RegisterAwaitingPassword) sealed()      {}
func (RegisterAwaitingConfirm) sealed()       {}
func (PasswdAwaitingCurrent) sealed()         {}
func (PasswdAwaitingNew) sealed()             {}
func (PasswdAwaitingConfirm) sealed()         {}
func (RenameAwaitingName) sealed()            {}
func (RenameAwaitingPassword) sealed()        {}
func (DeleteAccountAwaitingPassword) sealed() {}
func (DeleteAccountAwaitingConfirm) sealed()  {}
func (DeleteAwaitingConfirm) sealed()         {}
