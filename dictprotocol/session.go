package dictprotocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionConfig configures a Session. Zero values select the defaults.
type SessionConfig struct {
	// Stdout receives protocol output and debug traces.
	Stdout io.Writer

	// Stderr receives coded diagnostics.
	Stderr io.Writer

	// Debug echoes every sent line and every received status line.
	Debug bool

	// DefaultPort is used when open is given no port.
	DefaultPort int

	// ConnectTimeout bounds each open attempt.
	ConnectTimeout time.Duration

	// Logger receives internal events. Nil disables logging.
	Logger *zap.Logger
}

// Session holds everything one shell needs between commands: the control
// connection, its state and the active dictionary. The active dictionary
// survives close and reopen.
//
// Commands run one at a time; Shutdown may be called from another goroutine.
type Session struct {
	mu sync.Mutex

	out    io.Writer
	errOut io.Writer
	debug  bool

	defaultPort    int
	connectTimeout time.Duration
	log            *zap.Logger

	state      ConnectionState
	dictionary string
	conn       *Conn
}

// NewSession creates a disconnected session using the wildcard dictionary.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		out:            cfg.Stdout,
		errOut:         cfg.Stderr,
		debug:          cfg.Debug,
		defaultPort:    cfg.DefaultPort,
		connectTimeout: cfg.ConnectTimeout,
		log:            cfg.Logger,
		state:          Disconnected,
		dictionary:     WildcardDictionary,
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.errOut == nil {
		s.errOut = io.Discard
	}
	if s.defaultPort == 0 {
		s.defaultPort = DefaultPort
	}
	if s.connectTimeout <= 0 {
		s.connectTimeout = ConnectionTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// State returns the current connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dictionary returns the active dictionary.
func (s *Session) Dictionary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dictionary
}

// Debug reports whether protocol tracing is on.
func (s *Session) Debug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debug
}

// Execute runs one command line: the gate, the command handler and, when
// a request went out, the matching reply interpreter. Usage and protocol
// errors are printed and absorbed. Execute returns ErrQuit after a quit
// command and nil otherwise.
func (s *Session) Execute(ctx context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := Admit(line, s.state)
	if err != nil {
		s.report(err)
		return nil
	}

	handled, err := s.dispatch(ctx, cmd)
	if err != nil {
		if errors.Is(err, ErrQuit) {
			return ErrQuit
		}
		s.transportFailure(err)
		return nil
	}
	if !handled || !cmd.Verb.SendsRequest() {
		return nil
	}

	if err := s.interpret(cmd); err != nil {
		s.transportFailure(err)
	}
	return nil
}

// dispatch runs the handler for an admitted command. handled is false
// when the handler printed a diagnostic instead of acting, in which case
// no request went out and there is no reply to read.
func (s *Session) dispatch(ctx context.Context, cmd Command) (handled bool, err error) {
	if err := cmd.CheckArity(); err != nil {
		s.report(err)
		return false, nil
	}

	switch cmd.Verb {
	case VerbOpen:
		return s.open(ctx, cmd), nil

	case VerbSet:
		s.dictionary = cmd.Word()
		return true, nil

	case VerbCurrDict:
		fmt.Fprintln(s.out, s.dictionary)
		return true, nil

	case VerbDict, VerbDefine, VerbMatch, VerbPrefixMatch:
		request, _ := cmd.Request(s.dictionary)
		if err := s.send(request); err != nil {
			return false, err
		}
		return true, nil

	case VerbClose:
		s.closeConnection()
		return true, nil

	case VerbQuit:
		if s.state == Connected {
			s.closeConnection()
		}
		return true, ErrQuit

	default:
		s.report(ErrInvalidCommand)
		return false, nil
	}
}

// open establishes the control connection. It reports whether the
// connection came up, leaving the server banner to be read.
func (s *Session) open(ctx context.Context, cmd Command) bool {
	host := cmd.Params[0]
	port := s.defaultPort
	if len(cmd.Params) == 2 {
		p, err := ParsePort(cmd.Params[1])
		if err != nil {
			s.report(err)
			return false
		}
		port = p
	}

	s.trace(fmt.Sprintf("OPEN %s %d", host, port))

	conn, err := Dial(ctx, host, port, s.connectTimeout)
	if err != nil {
		s.log.Debug("open failed",
			zap.String("host", host),
			zap.Int("port", port),
			zap.Error(err))
		s.report(ConnectFailedDiagnostic(host, port))
		return false
	}

	s.attach(conn)
	s.log.Debug("connected", zap.String("addr", conn.RemoteAddr()))
	return true
}

// attach installs an open connection.
func (s *Session) attach(conn *Conn) {
	s.conn = conn
	s.state = Connected
}

// send writes one request line, echoing it first when tracing.
func (s *Session) send(line string) error {
	s.trace(line)
	return s.conn.WriteLine(line)
}

// closeConnection tells the server goodbye and closes the socket. The
// session is disconnected afterwards whatever happens on the wire.
func (s *Session) closeConnection() {
	defer s.detach()

	if err := s.send(QuitRequest); err != nil {
		s.log.Debug("quit not delivered", zap.Error(err))
		s.report(ErrControlIO)
		return
	}

	if s.debug {
		line, err := s.conn.ReadLine()
		if err != nil {
			s.log.Debug("no reply to quit", zap.Error(err))
			s.report(ErrControlIO)
			return
		}
		fmt.Fprintln(s.out, TracePrefixReceived+line)
	}
}

// transportFailure handles a broken connection: report it and tear down
// without any further protocol exchange.
func (s *Session) transportFailure(err error) {
	s.log.Debug("control connection failed", zap.Error(err))
	s.report(ErrControlIO)
	s.detach()
}

// Abandon closes the socket without sending quit.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach()
}

// Shutdown closes the control connection politely if no command is in
// flight. It reports false when a command holds the session, in which case
// the connection is left to the caller's process exit.
func (s *Session) Shutdown() bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	if s.state == Connected {
		s.closeConnection()
	}
	return true
}

func (s *Session) detach() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Debug("close failed", zap.Error(err))
		}
		s.conn = nil
	}
	s.state = Disconnected
}

// trace echoes an outgoing line in debug mode.
func (s *Session) trace(line string) {
	if s.debug {
		fmt.Fprintln(s.out, TracePrefixSent+line)
	}
}

func (s *Session) report(err error) {
	fmt.Fprintln(s.errOut, err)
}
