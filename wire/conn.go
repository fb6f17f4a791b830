package wire

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// Transport carries protocol messages between a client and a
// compositor. The production implementation is Conn; tests substitute
// in-memory fakes.
type Transport interface {
	// ReadMessage blocks until a complete message has been read.
	ReadMessage() (*MessageBuffer, error)

	// WriteMessage encodes and sends a single message, along with any
	// file descriptors attached to it.
	WriteMessage(msg *MessageBuilder) error

	Close() error
}

// ConnectError indicates that a connection to the compositor could
// not be established.
type ConnectError struct {
	Err error
}

func (err *ConnectError) Error() string {
	return fmt.Sprintf("connect to compositor: %v", err.Err)
}

func (err *ConnectError) Unwrap() error { return err.Err }

// SocketPath determines the path to the compositor's Unix domain
// socket based on the contents of the $WAYLAND_DISPLAY environment
// variable. It does not attempt to determine if the value corresponds
// to an actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if !ok {
		dir = fmt.Sprintf("/var/run/user/%v", os.Getuid())
	}

	return filepath.Join(dir, v)
}

// Conn is the production Transport, wrapping a Unix domain socket
// connection to the compositor.
type Conn struct {
	conn *net.UnixConn
}

// NewConn creates a Conn that wraps c. After this is called, close c
// through the returned Conn rather than directly.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{conn: c}
}

// Dial opens a connection to the compositor socket based on the
// current environment, following the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, &ConnectError{Err: fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)}
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, &ConnectError{Err: fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)}
		}
		return NewConn(c.(*net.UnixConn)), nil
	}

	s, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	return NewConn(s.(*net.UnixConn)), nil
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
