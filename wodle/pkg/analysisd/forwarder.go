// Package analysisd delivers integration events to the local analysisd queue.
//
// A Forwarder wraps each payload in the envelope analysisd expects and writes it
// as a single datagram to a unixgram socket. Integrations own a Forwarder, open
// its connection once, and must close that connection on every exit path:
//
//	conn, err := fwd.EstablishConnection(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	for _, event := range events {
//		if err := fwd.SendMessage(ctx, fwd.FormatMessage(event)); err != nil {
//			return err
//		}
//	}
//
// A Forwarder is not safe for concurrent use.
package analysisd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/telhawk-systems/telhawk-wodles/common/logging"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/analysisd/transport"
)

// Logger is the subset of *logging.Logger a Forwarder writes to.
type Logger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	CriticalContext(ctx context.Context, msg string, args ...any)
}

// Forwarder formats and sends events for a single Source.
type Forwarder struct {
	source     Source
	socketPath string
	dialer     transport.Dialer
	logger     Logger

	conn *Connection
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithSocketPath overrides DefaultSocketPath.
func WithSocketPath(path string) Option {
	return func(f *Forwarder) {
		f.socketPath = path
	}
}

// WithDialer replaces the unixgram dialer.
func WithDialer(d transport.Dialer) Option {
	return func(f *Forwarder) {
		f.dialer = d
	}
}

// New returns a Forwarder for source. No socket is opened until
// EstablishConnection is called.
func New(logger Logger, source Source, opts ...Option) *Forwarder {
	f := &Forwarder{
		source:     source,
		socketPath: DefaultSocketPath,
		dialer:     transport.UnixDialer{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Source returns the source this Forwarder writes as.
func (f *Forwarder) Source() Source {
	return f.source
}

// SocketPath returns the destination socket path.
func (f *Forwarder) SocketPath() string {
	return f.socketPath
}

// FormatMessage embeds body in the integration envelope.
func (f *Forwarder) FormatMessage(body string) string {
	return f.source.Format(body)
}

// EstablishConnection connects to the analysisd socket and returns the handle.
// The caller owns the handle and must Close it. Failures are logged at
// critical level and returned as *Error.
func (f *Forwarder) EstablishConnection(ctx context.Context) (*Connection, error) {
	if f.conn != nil {
		return nil, ErrAlreadyConnected
	}

	raw, err := f.dialer.Dial(ctx, f.socketPath)
	if err != nil {
		if errors.Is(err, transport.ErrConnRefused) {
			f.logger.CriticalContext(ctx, "analysisd must be running",
				logging.Destination(f.socketPath),
				logging.Error(err),
			)
			return nil, &Error{Reason: ReasonDestinationUnavailable, Destination: f.socketPath, Err: err}
		}
		f.logger.CriticalContext(ctx, "Error initializing "+f.socketPath+" socket",
			logging.Destination(f.socketPath),
			logging.Error(err),
		)
		return nil, &Error{Reason: ReasonTransportInit, Destination: f.socketPath, Err: err}
	}

	f.conn = &Connection{owner: f, conn: raw}
	return f.conn, nil
}

// SendMessage writes the header followed by msg as one datagram. It returns
// ErrNotConnected when called without an open connection.
func (f *Forwarder) SendMessage(ctx context.Context, msg string) error {
	if f.conn == nil {
		return ErrNotConnected
	}

	frame := f.source.Frame(msg)
	f.logger.DebugContext(ctx, "Sending message to analysisd",
		slog.String("event", string(frame)),
		logging.Bytes(len(frame)),
	)

	if _, err := f.conn.conn.Write(frame); err != nil {
		err = transport.Classify(err)
		f.logger.CriticalContext(ctx, "Error sending event to analysisd",
			logging.Destination(f.socketPath),
			logging.Error(err),
		)
		return &Error{Reason: ReasonDeliveryFailed, Destination: f.socketPath, Err: err}
	}
	return nil
}

// Connection is the socket handle returned by EstablishConnection.
type Connection struct {
	owner  *Forwarder
	conn   transport.Conn
	closed bool
}

// Close releases the socket. After Close the owning Forwarder may establish
// a new connection. Close is idempotent.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.owner.conn == c {
		c.owner.conn = nil
	}
	return c.conn.Close()
}
