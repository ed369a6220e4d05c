package dictprotocol

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Messages printed when a lookup comes back empty.
const (
	NoDefinitionMessage    = "***No definition found***"
	NoMatchesMessage       = "****No matching word(s) found****"
	NoPrefixMatchesMessage = "*****No prefix matches found*****"
	NoDictionariesMessage  = "***No dictionaries have a definition for this word***"
)

// interpret consumes the reply to a request sent for cmd.
func (s *Session) interpret(cmd Command) error {
	switch cmd.Verb {
	case VerbOpen:
		return s.readBanner()
	case VerbDict:
		return s.readDatabases()
	case VerbDefine:
		return s.readDefinitions(cmd.Word())
	case VerbMatch:
		return s.readMatches(NoMatchesMessage)
	case VerbPrefixMatch:
		return s.readMatches(NoPrefixMatchesMessage)
	default:
		return nil
	}
}

func (s *Session) readReply() (ReplyLine, error) {
	line, err := s.conn.ReadLine()
	if err != nil {
		return ReplyLine{}, err
	}
	return ParseReplyLine(line), nil
}

// echo shows content lines always and status lines only when tracing.
func (s *Session) echo(r ReplyLine) {
	if !r.IsStatus {
		fmt.Fprintln(s.out, r.Raw)
		return
	}
	s.traceReceived(r)
}

func (s *Session) traceReceived(r ReplyLine) {
	if s.debug {
		fmt.Fprintln(s.out, TracePrefixReceived+r.Raw)
	}
}

func (s *Session) ignore(r ReplyLine) {
	if !r.Code.Known() {
		s.log.Warn("unrecognised status line", zap.String("line", r.Raw))
	}
}

// readBanner reads the single greeting line. Anything but 220 means the
// peer is not a DICT server and the connection is closed again.
func (s *Session) readBanner() error {
	r, err := s.readReply()
	if err != nil {
		return err
	}
	s.echo(r)

	if r.IsStatus && r.Code == StatusBanner {
		return nil
	}
	s.report(ErrNotADictionaryHost)
	s.closeConnection()
	return nil
}

// readDatabases prints the SHOW DB listing. It stops on 554 or on the
// line after the terminator.
func (s *Session) readDatabases() error {
	var prev ReplyLine
	for {
		r, err := s.readReply()
		if err != nil {
			return err
		}
		s.echo(r)

		if r.IsStatus && r.Code == StatusNoDatabasesPresent {
			return nil
		}
		if prev.IsTerminator() {
			return nil
		}
		prev = r
	}
}

// readDefinitions prints a DEFINE reply. remaining starts at 1, is replaced
// by the count in a 150 line, and drops by one for every line that follows
// a terminator. A 552 triggers a default-strategy match across all
// dictionaries before giving up.
func (s *Session) readDefinitions(word string) error {
	remaining := 1
	var prev ReplyLine
	failed := false

	for {
		r, err := s.readReply()
		if err != nil {
			return err
		}

		if r.IsStatus {
			s.traceReceived(r)

			switch r.Code {
			case StatusNoMatch:
				fmt.Fprintln(s.out, NoDefinitionMessage)
				if err := s.send(DefaultMatchRequest(word)); err != nil {
					return err
				}
				if err := s.readMatches(NoDictionariesMessage); err != nil {
					return err
				}
				failed = true
			case StatusDefinitionsFound:
				n, err := strconv.Atoi(r.Arg(0))
				if err != nil {
					s.log.Warn("bad definition count", zap.String("line", r.Raw))
					break
				}
				remaining = n
			case StatusDefinitionFollows:
				// 151 <word> <database> <description...>
				header := append([]string{"@"}, r.Args(1)...)
				fmt.Fprintln(s.out, strings.Join(header, " "))
			case StatusInvalidDatabase:
				s.report(ErrNoSuchDictionary)
				failed = true
			case StatusOK:
			default:
				s.ignore(r)
			}
		} else {
			fmt.Fprintln(s.out, r.Raw)
		}

		if prev.IsTerminator() {
			remaining--
		}
		if remaining <= 0 || failed {
			return nil
		}
		prev = r
	}
}

// readMatches prints a MATCH reply, or notFound when the server has no
// match. It stops on the line after the terminator or on an error code.
func (s *Session) readMatches(notFound string) error {
	var prev ReplyLine
	failed := false

	for {
		r, err := s.readReply()
		if err != nil {
			return err
		}

		if r.IsStatus {
			s.traceReceived(r)

			switch r.Code {
			case StatusNoMatch:
				fmt.Fprintln(s.out, notFound)
				failed = true
			case StatusInvalidDatabase:
				s.report(ErrNoSuchDictionary)
				failed = true
			case StatusMatchesFound, StatusOK:
			default:
				s.ignore(r)
			}
		} else {
			fmt.Fprintln(s.out, r.Raw)
		}

		if prev.IsTerminator() || failed {
			return nil
		}
		prev = r
	}
}
