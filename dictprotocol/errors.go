package dictprotocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the DICT session.
var (
	// ErrQuit is returned by Session.Execute after a quit command. The
	// caller should terminate with a success status.
	ErrQuit = errors.New("quit requested")

	// ErrNotConnected indicates an I/O operation without an open connection.
	ErrNotConnected = errors.New("not connected")

	// ErrConnectionClosed indicates the server closed the connection while
	// a reply was still expected.
	ErrConnectionClosed = errors.New("connection closed by server")
)

// Diagnostic is a coded, user-facing error. It prints as "<code> <text>",
// matching the numbering scheme the server uses for its own replies.
type Diagnostic struct {
	Code int
	Text string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%03d %s", d.Code, d.Text)
}

// Diagnostics with fixed text. They are compared by identity, so
// errors.Is works on them.
var (
	ErrInvalidCommand     = &Diagnostic{Code: 900, Text: "Invalid command."}
	ErrArgumentCount      = &Diagnostic{Code: 901, Text: "Incorrect number of arguments."}
	ErrInvalidArgument    = &Diagnostic{Code: 902, Text: "Invalid argument."}
	ErrUnexpectedCommand  = &Diagnostic{Code: 903, Text: "Supplied command not expected at this time."}
	ErrControlIO          = &Diagnostic{Code: 925, Text: "Control connection I/O error, closing control connection."}
	ErrNoSuchDictionary   = &Diagnostic{Code: 930, Text: "Dictionary does not exist"}
	ErrTooManyOptions     = &Diagnostic{Code: 996, Text: "Too many command line options - Only -d is allowed"}
	ErrInvalidOption      = &Diagnostic{Code: 997, Text: "Invalid command line option - Only -d is allowed"}
	ErrInputFailure       = &Diagnostic{Code: 998, Text: "Input error while reading commands, terminating."}
	ErrNotADictionaryHost = &Diagnostic{Code: 999, Text: "Processing error. Server may not be running a DICT server. Closing connection."}
)

// ConnectFailedDiagnostic returns the 920 diagnostic for a failed open.
func ConnectFailedDiagnostic(host string, port int) *Diagnostic {
	return &Diagnostic{
		Code: 920,
		Text: fmt.Sprintf("Control connection to %s on port %d failed to open.", host, port),
	}
}

// ConnectionError represents a failure to establish or use the control
// connection.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}
