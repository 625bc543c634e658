package analysisd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-wodles/common/logging"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/analysisd/transport"
)

// fakeConn records datagrams written to it.
type fakeConn struct {
	writes   [][]byte
	writeErr error
	closed   int
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

// fakeDialer hands out conn, or fails with err.
type fakeDialer struct {
	conn  *fakeConn
	err   error
	dials int
	path  string
}

func (d *fakeDialer) Dial(_ context.Context, path string) (transport.Conn, error) {
	d.dials++
	d.path = path
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func newTestLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWithWriter(&buf, slog.LevelDebug, "json"), &buf
}

func countLevel(buf *bytes.Buffer, level string) int {
	return strings.Count(buf.String(), `"level":"`+level+`"`)
}

func TestForwarder_New_Defaults(t *testing.T) {
	logger, _ := newTestLogger()
	fwd := New(logger, GCloud)

	assert.Equal(t, DefaultSocketPath, fwd.SocketPath())
	assert.Equal(t, GCloud, fwd.Source())
	assert.IsType(t, transport.UnixDialer{}, fwd.dialer)
	assert.Nil(t, fwd.conn, "no connection must be opened by New")
}

func TestForwarder_FormatMessage(t *testing.T) {
	logger, buf := newTestLogger()
	fwd := New(logger, GCloud)

	got := fwd.FormatMessage(`{"a":1}`)
	assert.Equal(t, `{"integration": "gcp", "gcp": {"a":1}}`, got)
	assert.Equal(t, got, fwd.FormatMessage(`{"a":1}`))
	assert.Zero(t, buf.Len(), "formatting must not log")
}

func TestForwarder_SendMessage_WritesHeaderAndMessage(t *testing.T) {
	logger, buf := newTestLogger()
	conn := &fakeConn{}
	dialer := &fakeDialer{conn: conn}
	fwd := New(logger, GCloud, WithDialer(dialer), WithSocketPath("/tmp/queue"))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, fwd.SendMessage(context.Background(), "x"))

	require.Len(t, conn.writes, 1)
	assert.Equal(t, "1:Wazuh-GCloud:x", string(conn.writes[0]))
	assert.Equal(t, "/tmp/queue", dialer.path)
	assert.Equal(t, 1, countLevel(buf, "DEBUG"))
	assert.Contains(t, buf.String(), `"event":"1:Wazuh-GCloud:x"`)
	assert.Zero(t, countLevel(buf, "CRITICAL"))
}

func TestForwarder_SendMessage_PreservesOrder(t *testing.T) {
	logger, _ := newTestLogger()
	conn := &fakeConn{}
	fwd := New(logger, GCloud, WithDialer(&fakeDialer{conn: conn}))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, fwd.SendMessage(context.Background(), msg))
	}

	require.Len(t, conn.writes, 3)
	assert.Equal(t, "1:Wazuh-GCloud:first", string(conn.writes[0]))
	assert.Equal(t, "1:Wazuh-GCloud:second", string(conn.writes[1]))
	assert.Equal(t, "1:Wazuh-GCloud:third", string(conn.writes[2]))
}

func TestForwarder_SendMessage_ReplacesInvalidUTF8(t *testing.T) {
	logger, _ := newTestLogger()
	conn := &fakeConn{}
	fwd := New(logger, GCloud, WithDialer(&fakeDialer{conn: conn}))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, fwd.SendMessage(context.Background(), "caf\xe9"))
	require.Len(t, conn.writes, 1)
	assert.Equal(t, "1:Wazuh-GCloud:caf?", string(conn.writes[0]))
}

func TestForwarder_SendMessage_NotConnected(t *testing.T) {
	logger, buf := newTestLogger()
	fwd := New(logger, GCloud, WithDialer(&fakeDialer{conn: &fakeConn{}}))

	err := fwd.SendMessage(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, buf.Len())
}

func TestForwarder_SendMessage_WriteFailure(t *testing.T) {
	logger, buf := newTestLogger()
	conn := &fakeConn{writeErr: os.NewSyscallError("write", syscall.ENOBUFS)}
	fwd := New(logger, GCloud, WithDialer(&fakeDialer{conn: conn}))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	err = fwd.SendMessage(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, syscall.ENOBUFS)

	reason, ok := ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, ReasonDeliveryFailed, reason)

	assert.Equal(t, 1, countLevel(buf, "CRITICAL"))
	assert.Contains(t, buf.String(), "Error sending event to analysisd")
}

func TestForwarder_EstablishConnection_Refused(t *testing.T) {
	logger, buf := newTestLogger()
	dialer := &fakeDialer{err: transport.Classify(&net.OpError{
		Op:  "dial",
		Net: transport.Network,
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	})}
	fwd := New(logger, GCloud, WithDialer(dialer))

	handle, err := fwd.EstablishConnection(context.Background())
	require.Error(t, err)
	assert.Nil(t, handle)
	assert.ErrorIs(t, err, ErrDestinationUnavailable)
	assert.NotErrorIs(t, err, ErrTransportInit)

	var fwdErr *Error
	require.True(t, errors.As(err, &fwdErr))
	assert.Equal(t, ReasonDestinationUnavailable, fwdErr.Reason)
	assert.Equal(t, DefaultSocketPath, fwdErr.Destination)

	assert.Equal(t, 1, countLevel(buf, "CRITICAL"))
	assert.Contains(t, buf.String(), "analysisd must be running")
	assert.Nil(t, fwd.conn)
}

func TestForwarder_EstablishConnection_OtherFailure(t *testing.T) {
	logger, buf := newTestLogger()
	dialer := &fakeDialer{err: os.NewSyscallError("connect", syscall.EACCES)}
	fwd := New(logger, GCloud, WithDialer(dialer), WithSocketPath("/queue"))

	_, err := fwd.EstablishConnection(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportInit)
	assert.ErrorIs(t, err, syscall.EACCES)
	assert.NotErrorIs(t, err, ErrDestinationUnavailable)

	assert.Equal(t, 1, countLevel(buf, "CRITICAL"))
	assert.Contains(t, buf.String(), "Error initializing /queue socket")
}

func TestForwarder_EstablishConnection_SingleHandle(t *testing.T) {
	logger, _ := newTestLogger()
	conn := &fakeConn{}
	dialer := &fakeDialer{conn: conn}
	fwd := New(logger, GCloud, WithDialer(dialer))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)

	_, err = fwd.EstablishConnection(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.Equal(t, 1, dialer.dials)

	require.NoError(t, handle.Close())
	require.NoError(t, handle.Close())
	assert.Equal(t, 1, conn.closed, "Close must be idempotent")

	assert.ErrorIs(t, fwd.SendMessage(context.Background(), "x"), ErrNotConnected)

	again, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 2, dialer.dials)
}

func TestForwarder_SendMessage_AfterFailureKeepsHandle(t *testing.T) {
	logger, _ := newTestLogger()
	conn := &fakeConn{writeErr: errors.New("boom")}
	dialer := &fakeDialer{conn: conn}
	fwd := New(logger, GCloud, WithDialer(dialer))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	require.Error(t, fwd.SendMessage(context.Background(), "x"))
	require.Error(t, fwd.SendMessage(context.Background(), "y"))
	assert.Equal(t, 1, dialer.dials, "failed sends must not reconnect")
}

// socketPath returns a short path for a unixgram socket; sun_path is limited to 108 bytes.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wodle")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "queue")
}

func TestForwarder_UnixSocket_RoundTrip(t *testing.T) {
	path := socketPath(t)
	server, err := net.ListenUnixgram(transport.Network, &net.UnixAddr{Name: path, Net: transport.Network})
	require.NoError(t, err)
	defer server.Close()

	logger, _ := newTestLogger()
	fwd := New(logger, GCloud, WithSocketPath(path))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, fwd.SendMessage(context.Background(), fwd.FormatMessage(`{"a":1}`)))

	buf := make([]byte, 256)
	n, _, err := server.ReadFromUnix(buf)
	require.NoError(t, err)
	assert.Equal(t, `1:Wazuh-GCloud:{"integration": "gcp", "gcp": {"a":1}}`, string(buf[:n]))
}

func TestForwarder_UnixSocket_NotListening(t *testing.T) {
	path := socketPath(t)
	server, err := net.ListenUnixgram(transport.Network, &net.UnixAddr{Name: path, Net: transport.Network})
	require.NoError(t, err)
	require.NoError(t, server.Close())

	logger, buf := newTestLogger()
	fwd := New(logger, GCloud, WithSocketPath(path))

	_, err = fwd.EstablishConnection(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDestinationUnavailable)
	assert.Equal(t, 1, countLevel(buf, "CRITICAL"))
}

func TestForwarder_UnixSocket_DestinationStops(t *testing.T) {
	path := socketPath(t)
	server, err := net.ListenUnixgram(transport.Network, &net.UnixAddr{Name: path, Net: transport.Network})
	require.NoError(t, err)

	logger, buf := newTestLogger()
	fwd := New(logger, GCloud, WithSocketPath(path))

	handle, err := fwd.EstablishConnection(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, server.Close())

	err = fwd.SendMessage(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 1, countLevel(buf, "CRITICAL"))
}
