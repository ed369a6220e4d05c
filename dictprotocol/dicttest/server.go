// Package dicttest provides a scripted DICT server for tests.
package dicttest

import (
	"bufio"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultBanner is the greeting sent by NewServer.
const DefaultBanner = "220 dicttest <auth.mime> <1.1@dicttest>"

// Handler maps one request line to the reply lines sent back. A nil or
// empty result sends nothing.
type Handler func(request string) []string

// Server is a DICT server on a loopback TCP port. It records every request
// it receives. Each connection gets the banner, then a reply per request;
// "quit" closes the connection after its reply.
type Server struct {
	listener net.Listener
	banner   string
	handler  Handler

	// mu protects requests and conns.
	mu       sync.Mutex
	requests []string
	conns    []net.Conn

	wg sync.WaitGroup
}

// NewServer starts a server that greets with DefaultBanner.
func NewServer(handler Handler) (*Server, error) {
	return NewServerWithBanner(DefaultBanner, handler)
}

// NewServerWithBanner starts a server with a custom greeting line.
func NewServerWithBanner(banner string, handler Handler) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	if handler == nil {
		handler = NewDictionaryHandler()
	}

	s := &Server{
		listener: listener,
		banner:   banner,
		handler:  handler,
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Requests returns a copy of the request lines received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close stops the listener, drops open connections and waits for every
// connection goroutine to finish.
func (s *Server) Close() error {
	err := s.listener.Close()

	s.mu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	w := bufio.NewWriter(conn)
	if s.banner != "" {
		writeLines(w, []string{s.banner})
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		request := strings.TrimRight(scanner.Text(), "\r")

		s.mu.Lock()
		s.requests = append(s.requests, request)
		s.mu.Unlock()

		if err := writeLines(w, s.handler(request)); err != nil {
			return
		}
		if strings.EqualFold(strings.TrimSpace(request), "quit") {
			return
		}
	}
}

func writeLines(w *bufio.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := w.WriteString(line + "\r\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Script returns a handler that answers requests from a fixed table.
// Requests missing from the table get a 500 reply, except quit which
// gets 221.
func Script(replies map[string][]string) Handler {
	return func(request string) []string {
		if lines, ok := replies[request]; ok {
			return lines
		}
		if strings.EqualFold(request, "quit") {
			return []string{"221 bye"}
		}
		return []string{"500 unknown command"}
	}
}

// Database is one dictionary served by NewDictionaryHandler.
type Database struct {
	Name        string
	Description string

	// Entries maps a headword to its definition text.
	Entries map[string]string
}

// NewDictionaryHandler returns a handler implementing SHOW DB, DEFINE and
// MATCH (exact, prefix and the "." default strategy) over the given
// databases. Database "*" searches all of them.
func NewDictionaryHandler(dbs ...Database) Handler {
	return func(request string) []string {
		args := splitArgs(request)
		if len(args) == 0 {
			return []string{"500 unknown command"}
		}

		switch strings.ToLower(args[0]) {
		case "show":
			if len(args) == 2 && strings.EqualFold(args[1], "db") {
				return showDatabases(dbs)
			}
		case "define":
			if len(args) == 3 {
				return define(dbs, args[1], args[2])
			}
		case "match":
			if len(args) == 4 {
				return match(dbs, args[1], args[2], args[3])
			}
		case "quit":
			return []string{"221 bye"}
		}
		return []string{"501 syntax error, illegal parameters"}
	}
}

func showDatabases(dbs []Database) []string {
	if len(dbs) == 0 {
		return []string{"554 No databases present"}
	}
	lines := []string{fmt.Sprintf("110 %d databases present", len(dbs))}
	for _, db := range dbs {
		lines = append(lines, fmt.Sprintf("%s %s", db.Name, strconv.Quote(db.Description)))
	}
	return append(lines, ".", "250 ok")
}

func selectDatabases(dbs []Database, name string) ([]Database, bool) {
	if name == "*" || name == "!" {
		return dbs, true
	}
	for _, db := range dbs {
		if db.Name == name {
			return []Database{db}, true
		}
	}
	return nil, false
}

func define(dbs []Database, name, word string) []string {
	selected, ok := selectDatabases(dbs, name)
	if !ok {
		return []string{`550 Invalid database, use "SHOW DB" for list of databases`}
	}

	var body []string
	count := 0
	for _, db := range selected {
		text, ok := db.Entries[word]
		if !ok {
			continue
		}
		count++
		body = append(body, fmt.Sprintf("151 %s %s %s", strconv.Quote(word), db.Name, strconv.Quote(db.Description)))
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(line, ".") {
				line = "." + line
			}
			body = append(body, line)
		}
		body = append(body, ".")
	}
	if count == 0 {
		return []string{"552 No match"}
	}

	lines := append([]string{fmt.Sprintf("150 %d definitions retrieved", count)}, body...)
	return append(lines, "250 ok")
}

func match(dbs []Database, name, strategy, word string) []string {
	selected, ok := selectDatabases(dbs, name)
	if !ok {
		return []string{`550 Invalid database, use "SHOW DB" for list of databases`}
	}

	var found []string
	for _, db := range selected {
		for headword := range db.Entries {
			if matches(strategy, headword, word) {
				found = append(found, fmt.Sprintf("%s %s", db.Name, strconv.Quote(headword)))
			}
		}
	}
	if len(found) == 0 {
		return []string{"552 No match"}
	}
	sort.Strings(found)

	lines := append([]string{fmt.Sprintf("152 %d matches found", len(found))}, found...)
	return append(lines, ".", "250 ok")
}

func matches(strategy, headword, word string) bool {
	switch strategy {
	case "exact":
		return strings.EqualFold(headword, word)
	case "prefix", ".":
		return strings.HasPrefix(strings.ToLower(headword), strings.ToLower(word))
	default:
		return false
	}
}

// splitArgs splits a request into words, honouring double quotes.
func splitArgs(line string) []string {
	var args []string
	var cur strings.Builder
	inQuote, inWord := false, false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			inWord = true
		case c == '\\' && inQuote && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case (c == ' ' || c == '\t') && !inQuote:
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteByte(c)
			inWord = true
		}
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args
}
