package dictprotocol

import (
	"strconv"
	"strings"
	"unicode"
)

// StatusCode is a three digit DICT reply code.
type StatusCode int

// Reply codes the client acts on.
const (
	StatusDefinitionsFound   StatusCode = 150 // n definitions retrieved
	StatusDefinitionFollows  StatusCode = 151 // word database description
	StatusMatchesFound       StatusCode = 152 // n matches found
	StatusBanner             StatusCode = 220 // server ready
	StatusClosing            StatusCode = 221 // closing connection
	StatusOK                 StatusCode = 250 // command complete
	StatusInvalidDatabase    StatusCode = 550 // no such database
	StatusNoMatch            StatusCode = 552 // no match / no definition
	StatusNoDatabasesPresent StatusCode = 554 // server has no databases
)

// Known reports whether the code is one of the named constants.
func (c StatusCode) Known() bool {
	switch c {
	case StatusDefinitionsFound, StatusDefinitionFollows, StatusMatchesFound,
		StatusBanner, StatusClosing, StatusOK,
		StatusInvalidDatabase, StatusNoMatch, StatusNoDatabasesPresent:
		return true
	default:
		return false
	}
}

// String returns the code as three digits.
func (c StatusCode) String() string {
	s := strconv.Itoa(int(c))
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// ReplyLine is one classified line received from the server.
type ReplyLine struct {
	// Raw is the line without its line terminator.
	Raw string

	// IsStatus is true when the first token is exactly three digits.
	IsStatus bool

	// Code is the parsed status code; zero for content lines.
	Code StatusCode

	// Fields are the whitespace-separated tokens of a status line,
	// including the code itself.
	Fields []string
}

// ParseReplyLine classifies a server line. The first token is the text
// before the first whitespace character, so indented content lines such
// as "   100 yards" are never mistaken for status lines.
func ParseReplyLine(line string) ReplyLine {
	reply := ReplyLine{Raw: line}

	token := line
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		token = line[:i]
	}
	if !isStatusToken(token) {
		return reply
	}

	code, _ := strconv.Atoi(token)
	reply.IsStatus = true
	reply.Code = StatusCode(code)
	reply.Fields = strings.Fields(line)
	return reply
}

// IsTerminator reports whether the line ends a multi-line block.
func (r ReplyLine) IsTerminator() bool {
	return r.Raw == Terminator
}

// Arg returns the i-th argument after the status code, or "".
func (r ReplyLine) Arg(i int) string {
	if i+1 >= len(r.Fields) {
		return ""
	}
	return r.Fields[i+1]
}

// Args returns the arguments from index i onwards.
func (r ReplyLine) Args(i int) []string {
	if i+1 >= len(r.Fields) {
		return nil
	}
	return r.Fields[i+1:]
}

func isStatusToken(token string) bool {
	if len(token) != 3 {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}
