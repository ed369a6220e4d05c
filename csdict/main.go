// =============================================================================
// main.go - csdict Entry Point
// =============================================================================
//
// csdict is an interactive client for DICT (RFC 2229) dictionary servers.
// It reads one command per line from standard input and drives a single
// control connection through the dictprotocol session.
//
//   csdict        start the shell
//   csdict -d     start the shell with protocol tracing
//
// Settings that are not exposed on the command line (default port, connect
// timeout, prompt, history and logging) come from a YAML file named by
// CSDICT_CONFIG, or ~/.csdict.yaml when present.
//
// =============================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/csdict/csdict/dictprotocol"
	"github.com/csdict/csdict/internal/config"
	"go.uber.org/zap"
)

// debugOption is the only command line option.
const debugOption = "-d"

// arguments holds the parsed command line.
type arguments struct {
	// debug turns on protocol tracing for the whole run.
	debug bool
}

// parseArguments accepts either nothing or exactly -d. It reports false
// when the program should stop; the coded reason has already been printed
// to out.
func parseArguments(argv []string, out io.Writer) (arguments, bool) {
	var args arguments

	switch {
	case len(argv) == 0:
		return args, true
	case len(argv) > 1:
		fmt.Fprintln(out, dictprotocol.ErrTooManyOptions)
		return args, false
	case argv[0] != debugOption:
		fmt.Fprintln(out, dictprotocol.ErrInvalidOption)
		return args, false
	}

	args.debug = true
	fmt.Fprintln(out, "Debugging output enabled")
	return args, true
}

// printError writes a startup failure that has no protocol code.
func printError(w io.Writer, message string) {
	fmt.Fprintf(w, "Error: %s\n", message)
}

// setupSignalHandler runs cleanup and exits with status 0 on SIGINT or
// SIGTERM. The returned function stops listening.
//
// GO CONCEPT: Signals as Channel Values
// -------------------------------------
// signal.Notify does not install a callback. It delivers each signal as a
// value on a channel, and the program decides where to receive it. Here a
// goroutine blocks in a select on two channels: sigCh fires when the user
// interrupts, done fires when run returns normally. Whichever arrives
// first wins; the other case is never taken.
//
// The buffer of 1 on sigCh matters: signal.Notify never blocks, so a signal
// that arrives before the goroutine reaches its select would be dropped on
// an unbuffered channel.
func setupSignalHandler(out io.Writer, cleanup func()) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			interrupt(out, cleanup)
			os.Exit(0)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// interrupt ends the line the prompt left open and runs cleanup.
func interrupt(out io.Writer, cleanup func()) {
	fmt.Fprintln(out)
	cleanup()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one csdict process and returns its exit status.
func run(argv []string, stdin *os.File, stdout, stderr io.Writer) int {
	args, ok := parseArguments(argv, stdout)
	if !ok {
		return 0
	}

	cfg, path, err := config.Resolve()
	if err != nil {
		printError(stderr, fmt.Sprintf("Failed to load configuration: %v", err))
		return 1
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		printError(stderr, err.Error())
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	if path != "" {
		logger.Debug("configuration loaded", zap.String("path", path))
	}

	session := dictprotocol.NewSession(dictprotocol.SessionConfig{
		Stdout:         stdout,
		Stderr:         stderr,
		Debug:          args.debug,
		DefaultPort:    cfg.Connection.DefaultPort,
		ConnectTimeout: cfg.Connection.ConnectTimeout,
		Logger:         logger.Named("session"),
	})

	editor := NewLineEditor(stdin, stdout, cfg.Shell, logger.Named("editor"))
	defer editor.Close()

	// The cleanup closure runs on the signal goroutine while the loop below
	// may be blocked inside session.Execute waiting for the server. Shutdown
	// only says goodbye when it can take the session lock without waiting;
	// otherwise os.Exit releases the socket.
	stop := setupSignalHandler(stdout, func() {
		if !session.Shutdown() {
			logger.Debug("command in flight, dropping connection at exit")
		}
		editor.Close()
	})
	defer stop()

	sh := &shell{
		session: session,
		input:   editor,
		prompt:  cfg.Shell.Prompt,
		stderr:  stderr,
		log:     logger,
	}
	return sh.run(context.Background())
}
