// Package transport provides the local datagram channel used to reach analysisd.
//
// Platform error codes stop here: dial failures caused by a missing listener are
// reported as ErrConnRefused, everything else is passed through wrapped, so callers
// never inspect errno values themselves.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Network is the socket type analysisd listens on.
const Network = "unixgram"

// ErrConnRefused reports that nothing is bound to the destination socket.
var ErrConnRefused = errors.New("connection refused")

// Conn is a connected datagram socket. Each Write sends exactly one datagram.
type Conn interface {
	Write(p []byte) (int, error)
	Close() error
}

// Dialer opens a Conn to a socket path.
type Dialer interface {
	Dial(ctx context.Context, path string) (Conn, error)
}

// UnixDialer dials unixgram sockets.
type UnixDialer struct{}

// Dial creates a datagram socket and connects it to path. It does not set
// deadlines; writes block for as long as the kernel lets them.
func (UnixDialer) Dial(ctx context.Context, path string) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, Network, path)
	if err != nil {
		return nil, Classify(err)
	}
	return conn, nil
}

// Classify maps a raw socket error onto the transport taxonomy. ECONNREFUSED
// becomes ErrConnRefused (the original error remains reachable through
// errors.Unwrap); any other error is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConnRefused) {
		return err
	}
	if isRefused(err) {
		return &refusedError{err: err}
	}
	return err
}

// isRefused reports whether err carries ECONNREFUSED.
func isRefused(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED)
}

type refusedError struct {
	err error
}

func (e *refusedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnRefused, e.err)
}

func (e *refusedError) Is(target error) bool {
	return target == ErrConnRefused
}

func (e *refusedError) Unwrap() error {
	return e.err
}
