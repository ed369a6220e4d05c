// Package dictprotocol implements the client side of a subset of the
// Dictionary Server Protocol (RFC 2229) used by the csdict shell.
//
// # Protocol Overview
//
// DICT is a line-oriented text protocol over TCP (default port 2628).
// Every reply line is either a status line, which starts with a three
// digit code, or a content line. Multi-line blocks end with a line that
// holds a single period.
//
//	C: DEFINE * hello
//	S: 150 1 definitions retrieved
//	S: 151 "hello" wn "WordNet (r) 3.0 (2006)"
//	S: hello
//	S:     n 1: an expression of greeting
//	S: .
//	S: 250 ok
//
// # Basic Usage
//
// A Session owns the connection, the active dictionary and the connection
// state. Feed it one command line at a time:
//
//	session := dictprotocol.NewSession(dictprotocol.SessionConfig{
//	    Stdout: os.Stdout,
//	    Stderr: os.Stderr,
//	})
//	_ = session.Execute(ctx, "open dict.org")
//	_ = session.Execute(ctx, "define hello")
//	if err := session.Execute(ctx, "quit"); errors.Is(err, dictprotocol.ErrQuit) {
//	    os.Exit(0)
//	}
//
// # Commands
//
// The shell understands a fixed verb set: open, dict, set, currdict,
// define, match, prefixmatch, close and quit. Before a command runs, the
// Command Gate checks that the verb is known (900) and legal in the current
// connection state (903). Each handler then checks its own argument count
// (901). Rejected commands never reach the wire.
//
// # Diagnostics
//
// Local failures are reported as coded Diagnostic values such as
// "901 Incorrect number of arguments." or "930 Dictionary does not exist".
//
// # Thread Safety
//
// A Session serialises its callers: one command and its reply are
// processed to completion before the next command is accepted, and the
// accessors wait for a running command to finish. Shutdown never waits; it
// gives up when a command holds the session.
package dictprotocol
