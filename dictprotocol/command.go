package dictprotocol

import (
	"fmt"

	"golang.org/x/text/cases"
)

// Verb identifies a shell command.
type Verb int

const (
	// Connection commands
	VerbOpen Verb = iota
	VerbClose
	VerbQuit

	// Dictionary selection
	VerbDict
	VerbSet
	VerbCurrDict

	// Lookups
	VerbDefine
	VerbMatch
	VerbPrefixMatch
)

// verbNames maps the case-folded command token to its verb.
var verbNames = map[string]Verb{
	"open":        VerbOpen,
	"close":       VerbClose,
	"quit":        VerbQuit,
	"dict":        VerbDict,
	"set":         VerbSet,
	"currdict":    VerbCurrDict,
	"define":      VerbDefine,
	"match":       VerbMatch,
	"prefixmatch": VerbPrefixMatch,
}

// ParseVerb looks up a command token, ignoring case.
func ParseVerb(token string) (Verb, bool) {
	v, ok := verbNames[cases.Fold().String(token)]
	return v, ok
}

// String returns the command token for the verb.
func (v Verb) String() string {
	switch v {
	case VerbOpen:
		return "open"
	case VerbClose:
		return "close"
	case VerbQuit:
		return "quit"
	case VerbDict:
		return "dict"
	case VerbSet:
		return "set"
	case VerbCurrDict:
		return "currdict"
	case VerbDefine:
		return "define"
	case VerbMatch:
		return "match"
	case VerbPrefixMatch:
		return "prefixmatch"
	default:
		return fmt.Sprintf("verb(%d)", int(v))
	}
}

// Arity returns the inclusive range of parameters the verb accepts.
func (v Verb) Arity() (lo, hi int) {
	switch v {
	case VerbOpen:
		// host [port]
		return 1, 2
	case VerbSet, VerbDefine, VerbMatch, VerbPrefixMatch:
		return 1, 1
	case VerbDict, VerbCurrDict, VerbClose, VerbQuit:
		return 0, 0
	default:
		return 0, 0
	}
}

// SendsRequest reports whether a successful command of this verb leaves a
// server reply that must be consumed. close and quit read their own reply
// during teardown.
func (v Verb) SendsRequest() bool {
	switch v {
	case VerbOpen, VerbDict, VerbDefine, VerbMatch, VerbPrefixMatch:
		return true
	default:
		return false
	}
}

// Command is a parsed shell command line.
type Command struct {
	Verb   Verb
	Params []string
}

// NewCommand creates a command with the given parameters.
func NewCommand(verb Verb, params ...string) Command {
	return Command{Verb: verb, Params: params}
}

// CheckArity returns ErrArgumentCount when the parameter count is out of
// range for the verb.
func (c Command) CheckArity() error {
	lo, hi := c.Verb.Arity()
	if n := len(c.Params); n < lo || n > hi {
		return ErrArgumentCount
	}
	return nil
}

// Word returns the first parameter, or "" when there is none.
func (c Command) Word() string {
	if len(c.Params) == 0 {
		return ""
	}
	return c.Params[0]
}

// Request returns the protocol line for the command, using dictionary as
// the database name. ok is false for commands that send nothing (open,
// set and currdict are handled locally or by the dialer).
func (c Command) Request(dictionary string) (line string, ok bool) {
	switch c.Verb {
	case VerbDict:
		return "show db", true
	case VerbDefine:
		return fmt.Sprintf("DEFINE %s %s", dictionary, c.Word()), true
	case VerbMatch:
		return fmt.Sprintf("MATCH %s exact %s", dictionary, c.Word()), true
	case VerbPrefixMatch:
		return fmt.Sprintf("MATCH %s prefix %s", dictionary, c.Word()), true
	case VerbClose, VerbQuit:
		return QuitRequest, true
	default:
		return "", false
	}
}

// QuitRequest ends the server session.
const QuitRequest = "quit"

// DefaultMatchRequest is the fallback search issued when DEFINE finds
// nothing: every database, server default strategy.
func DefaultMatchRequest(word string) string {
	return fmt.Sprintf("MATCH %s %s %s", WildcardDictionary, DefaultMatchStrategy, word)
}
