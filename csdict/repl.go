// =============================================================================
// repl.go - Command Loop
// =============================================================================
//
// The loop prompts, reads a line, drops blanks and comments, and hands the
// rest to the session. It ends on quit, on end of input, or when standard
// input can no longer be read.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/csdict/csdict/dictprotocol"
	"go.uber.org/zap"
)

const (
	// commentPrefix starts a line the shell ignores.
	commentPrefix = "#"

	// quitToken is typed literally as a synonym for quit.
	quitToken = "^D"
)

// lineSource yields input lines. LineEditor is the production source.
//
// GO CONCEPT: Implicit Interfaces
// -------------------------------
// LineEditor never declares that it implements lineSource. Any type with a
// matching GetLine method satisfies the interface automatically, so the
// tests can hand the shell a slice-backed fake without touching stdin.
// Small interfaces defined by the consumer, next to the code that uses
// them, are the common Go shape.
type lineSource interface {
	GetLine(prompt string) (string, error)
}

// shell is one interactive run bound to a session.
type shell struct {
	session *dictprotocol.Session
	input   lineSource
	prompt  string
	stderr  io.Writer
	log     *zap.Logger
}

// commandLine normalises a raw input line. It returns false for lines the
// shell skips.
func commandLine(raw string) (string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return "", false
	}
	if line == quitToken {
		return dictprotocol.VerbQuit.String(), true
	}
	return line, true
}

// run loops until the session quits or input ends, and returns the exit
// status.
func (sh *shell) run(ctx context.Context) int {
	for {
		raw, err := sh.input.GetLine(sh.prompt)
		if err != nil {
			return sh.stop(err)
		}

		line, ok := commandLine(raw)
		if !ok {
			continue
		}

		if err := sh.session.Execute(ctx, line); errors.Is(err, dictprotocol.ErrQuit) {
			return 0
		}
	}
}

// stop ends the loop after a failed read.
func (sh *shell) stop(err error) int {
	switch {
	case errors.Is(err, io.EOF):
		sh.log.Debug("end of input")
		sh.session.Abandon()
		return 0

	case errors.Is(err, errInterrupted):
		sh.log.Debug("interrupted")
		sh.session.Shutdown()
		return 0

	default:
		sh.log.Debug("input failed", zap.Error(err))
		fmt.Fprintln(sh.stderr, dictprotocol.ErrInputFailure)
		sh.session.Abandon()
		return 1
	}
}
