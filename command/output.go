package command

import "fmt"

// InputType hints whether the client should echo the next answer.
type InputType string

const (
	InputText     InputType = "text"
	InputPassword InputType = "password"
)

// ActionType names a side effect for the desktop window manager.
type ActionType string

const (
	ActionCloseWindow ActionType = "close_window"
	ActionOpenConsole ActionType = "open_console"
	ActionOpenApp     ActionType = "open_app"
)

// Action is passed through to the UI untranslated.
type Action struct {
	Type    ActionType     `json:"type"`
	App     string         `json:"app,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Output is the envelope every command execution produces.
type Output struct {
	Output           string    `json:"output"`
	Clear            bool      `json:"clear,omitempty"`
	Action           *Action   `json:"action,omitempty"`
	PromptText       string    `json:"prompt_text,omitempty"`
	InputType        InputType `json:"input_type,omitempty"`
	InteractiveFinal bool      `json:"interactive_final,omitempty"`
	Logout           bool      `json:"logout,omitempty"`
}

// Text returns a plain output envelope.
func Text(format string, args ...any) *Output {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return &Output{Output: format}
}

// Prompt asks the user for the next answer of a workflow.
func Prompt(text string, input InputType) *Output {
	return &Output{
		PromptText:       text,
		InputType:        input,
		InteractiveFinal: true,
	}
}

// CloseWindow asks the desktop to close the terminal window.
func CloseWindow(text string) *Output {
	return &Output{Output: text, Action: &Action{Type: ActionCloseWindow}}
}

// OpenApp asks the desktop to open an application window.
func OpenApp(text, app string, options map[string]any) *Output {
	return &Output{Output: text, Action: &Action{Type: ActionOpenApp, App: app, Options: options}}
}
