package dictprotocol

import "strings"

// ExpectedIn reports whether the verb is legal in the given connection
// state. While disconnected only open and quit are accepted; once
// connected everything except open is.
func (v Verb) ExpectedIn(state ConnectionState) bool {
	switch state {
	case Disconnected:
		return v == VerbOpen || v == VerbQuit
	case Connected:
		return v != VerbOpen
	default:
		return false
	}
}

// Evaluate runs both gate checks on a command token: the verb must be
// known (ErrInvalidCommand) and expected in state (ErrUnexpectedCommand).
func Evaluate(token string, state ConnectionState) (Verb, error) {
	verb, ok := ParseVerb(token)
	if !ok {
		return 0, ErrInvalidCommand
	}
	if !verb.ExpectedIn(state) {
		return verb, ErrUnexpectedCommand
	}
	return verb, nil
}

// Admit splits a command line on whitespace and passes its first token
// through Evaluate. The argument count is not checked here; handlers do
// that themselves.
func Admit(line string, state ConnectionState) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrInvalidCommand
	}

	verb, err := Evaluate(fields[0], state)
	if err != nil {
		return Command{}, err
	}
	return NewCommand(verb, fields[1:]...), nil
}
