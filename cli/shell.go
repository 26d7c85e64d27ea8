package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mwantia/webdesk/command"
	"github.com/mwantia/webdesk/dispatch"
	"golang.org/x/term"
)

// shell drives the dispatcher from a local terminal with one private session.
type shell struct {
	rt        *runtime
	sessionID string
	in        *bufio.Reader
	out       io.Writer

	// readSecret reads a line without echo; nil falls back to a plain read
	readSecret func() (string, error)
}

func newShell(rt *runtime, in io.Reader, out io.Writer) *shell {
	sh := &shell{
		rt:        rt,
		sessionID: uuid.NewString(),
		in:        bufio.NewReader(in),
		out:       out,
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.readSecret = func() (string, error) {
			buf, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(buf), err
		}
	}
	return sh
}

func (sh *shell) readLine() (string, error) {
	line, err := sh.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Run reads lines until the input ends or a command closes the window.
func (sh *shell) Run(ctx context.Context) error {
	prompt := "guest$ "
	secret := false

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(sh.out, prompt)

		var line string
		var err error
		if secret && sh.readSecret != nil {
			line, err = sh.readSecret()
		} else {
			line, err = sh.readLine()
		}
		if err == io.EOF {
			fmt.Fprintln(sh.out)
			return nil
		}
		if err != nil {
			return err
		}

		out := sh.Execute(ctx, line)
		if out.Clear {
			fmt.Fprint(sh.out, "\033[H\033[2J")
		}
		if out.Output != "" {
			fmt.Fprintln(sh.out, out.Output)
		}

		if out.Action != nil {
			switch out.Action.Type {
			case command.ActionCloseWindow:
				return nil
			default:
				fmt.Fprintf(sh.out, "(%s is only available in the desktop)\n", out.Action.Type)
			}
		}

		prompt = out.PromptText
		secret = out.InputType == command.InputPassword
	}
}

// Execute dispatches one line for the shell session.
func (sh *shell) Execute(ctx context.Context, line string) *command.Output {
	auth, files, shares, err := sh.rt.manager.Collaborators(ctx, sh.sessionID)
	if err != nil {
		return command.Text(dispatch.MessageFailure)
	}

	return sh.rt.dispatcher.Dispatch(ctx, sh.sessionID, dispatch.Request{Line: line}, dispatch.Deps{
		Auth:   auth,
		Files:  files,
		Shares: shares,
	})
}
