package dictprotocol

import (
	"net"
	"strconv"
	"time"
)

// Protocol constants.
const (
	// DefaultPort is the well-known DICT port.
	DefaultPort = 2628

	// ConnectionTimeout bounds a single connection attempt.
	ConnectionTimeout = 30 * time.Second

	// Terminator is the line that ends a multi-line block.
	Terminator = "."

	// WildcardDictionary selects every database on the server.
	WildcardDictionary = "*"

	// DefaultMatchStrategy asks the server to use its own default strategy.
	DefaultMatchStrategy = "."

	// MaxPort is the largest valid TCP port number.
	MaxPort = 65535

	// TracePrefixSent marks outgoing protocol lines in debug output.
	TracePrefixSent = "--> "

	// TracePrefixReceived marks incoming status lines in debug output.
	TracePrefixReceived = "<-- "
)

// ConnectionState tells whether the session holds an open connection.
type ConnectionState int

const (
	// Disconnected means no server connection is open.
	Disconnected ConnectionState = iota
	// Connected means a control connection to a DICT server is open.
	Connected
)

// String returns the upper-case state name.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ParsePort parses a decimal port number in the range 0-65535.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidArgument
	}
	if port < 0 || port > MaxPort {
		return 0, ErrInvalidArgument
	}
	return port, nil
}

// Address joins a host and port into a dialable address.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
