package dictprotocol

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"time"
)

// Conn is a line-oriented control connection to a DICT server. Lines are
// written with CRLF terminators and read with the terminator stripped.
//
// A Conn is owned by a single Session and is not safe for concurrent use.
type Conn struct {
	rwc  io.ReadWriteCloser
	text *textproto.Conn
}

// NewConn wraps an established stream.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{rwc: rwc, text: textproto.NewConn(rwc)}
}

// Dial opens a TCP control connection to host:port. The attempt is
// bounded by timeout; reads on the returned Conn have no deadline.
func Dial(ctx context.Context, host string, port int, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		timeout = ConnectionTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(connectCtx, "tcp", Address(host, port))
	if err != nil {
		return nil, NewConnectionError("failed to connect", err)
	}
	return NewConn(conn), nil
}

// WriteLine sends one protocol line.
func (c *Conn) WriteLine(line string) error {
	if c == nil {
		return ErrNotConnected
	}
	if err := c.text.PrintfLine("%s", line); err != nil {
		return NewConnectionError("failed to send command", err)
	}
	return nil
}

// ReadLine reads one reply line. A clean end of stream is reported as
// ErrConnectionClosed since every caller is waiting for more data.
func (c *Conn) ReadLine() (string, error) {
	if c == nil {
		return "", ErrNotConnected
	}
	line, err := c.text.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", NewConnectionError("read failed", ErrConnectionClosed)
		}
		return "", NewConnectionError("read failed", err)
	}
	return line, nil
}

// RemoteAddr returns the peer address, or "" for non-network streams.
func (c *Conn) RemoteAddr() string {
	if nc, ok := c.rwc.(net.Conn); ok {
		return nc.RemoteAddr().String()
	}
	return ""
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}
	return c.text.Close()
}
