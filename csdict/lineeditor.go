// =============================================================================
// lineeditor.go - Line Editor
// =============================================================================
//
// Two ways of reading commands:
//
//   - Interactive (stdin is a terminal): ergochat/readline with Emacs key
//     bindings, Ctrl-R search and a persistent history file.
//   - Non-interactive (piped input, Emacs comint): bufio.Scanner, with the
//     prompt written to stdout before each read.
//
// Only non-blank lines go into history.
//
// =============================================================================

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/csdict/csdict/internal/config"
	"github.com/ergochat/readline"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// errInterrupted is returned by GetLine when the user presses Ctrl-C at an
// interactive prompt.
var errInterrupted = errors.New("interrupted")

// LineEditor reads command lines from the terminal or from a pipe.
type LineEditor struct {
	interactive bool

	// rl is set in interactive mode only.
	rl *readline.Instance

	// scanner is set in non-interactive mode only.
	scanner *bufio.Scanner
	out     io.Writer

	log       *zap.Logger
	closeOnce sync.Once
}

// NewLineEditor picks interactive mode when in is a terminal and the
// process is not running under Emacs.
func NewLineEditor(in *os.File, out io.Writer, shell config.ShellConfig, log *zap.Logger) *LineEditor {
	if log == nil {
		log = zap.NewNop()
	}

	// GO CONCEPT: TTY Detection
	// -------------------------
	// term.IsTerminal asks the operating system whether a file descriptor
	// is attached to a terminal. It is false for pipes and redirected
	// files, which is how `csdict < commands.txt` ends up on the scanner
	// path. Fd returns a uintptr; IsTerminal takes an int, hence the
	// conversion.
	//
	// Emacs shell buffers are ptys, so IsTerminal reports true there, but
	// comint does its own line editing and would fight with readline's raw
	// mode. Emacs exports INSIDE_EMACS to its subprocesses, which lets us
	// tell the two apart.
	isInteractive := term.IsTerminal(int(in.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return newScannerEditor(in, out, log)
	}

	historyFile, historyLimit := shell.HistoryFile, shell.HistoryLimit
	if historyLimit == 0 {
		// readline reads 0 as "use the default", -1 as "no history"
		historyFile, historyLimit = "", -1
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyFile,
		HistoryLimit:           historyLimit,
		DisableAutoSaveHistory: true,
		Prompt:                 shell.Prompt,
	})
	if err != nil {
		log.Warn("readline unavailable, using basic input", zap.Error(err))
		return newScannerEditor(in, out, log)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
		log:         log,
	}
}

func newScannerEditor(in io.Reader, out io.Writer, log *zap.Logger) *LineEditor {
	return &LineEditor{
		scanner: bufio.NewScanner(in),
		out:     out,
		log:     log,
	}
}

// GetLine shows prompt and returns the next line without its newline. It
// returns io.EOF at end of input and errInterrupted on Ctrl-C.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", errInterrupted
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		if err := le.rl.SaveToHistory(trimmed); err != nil {
			le.log.Warn("history not saved", zap.Error(err))
		}
	}

	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	fmt.Fprint(le.out, prompt)

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return le.scanner.Text(), nil
}

// Close restores the terminal and flushes history.
//
// GO CONCEPT: sync.Once
// ---------------------
// Close can be reached twice: from the deferred call in run and from the
// signal handler's cleanup. sync.Once runs its function exactly once no
// matter how many goroutines call Do, and every caller returns only after
// that single run has finished.
// It is safe to call
// more than once and from another goroutine.
func (le *LineEditor) Close() {
	le.closeOnce.Do(func() {
		if le.rl != nil {
			if err := le.rl.Close(); err != nil {
				le.log.Debug("readline close failed", zap.Error(err))
			}
		}
	})
}

// IsInteractive reports whether readline is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
