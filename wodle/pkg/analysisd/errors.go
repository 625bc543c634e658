package analysisd

import (
	"errors"
	"fmt"
)

// Reason distinguishes the transport failures a Forwarder reports.
type Reason string

const (
	// ReasonDestinationUnavailable means analysisd is not listening on the socket.
	ReasonDestinationUnavailable Reason = "destination_unavailable"
	// ReasonTransportInit covers every other failure to open the socket.
	ReasonTransportInit Reason = "transport_init"
	// ReasonDeliveryFailed means a datagram could not be written.
	ReasonDeliveryFailed Reason = "delivery_failed"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Reason.
var (
	ErrDestinationUnavailable = errors.New("analysisd is not running")
	ErrTransportInit          = errors.New("cannot initialize analysisd socket")
	ErrDeliveryFailed         = errors.New("cannot send event to analysisd")

	ErrNotConnected     = errors.New("analysisd connection not established")
	ErrAlreadyConnected = errors.New("analysisd connection already established")
)

// Error is returned for every transport failure. Err holds the underlying
// socket error.
type Error struct {
	Reason      Reason
	Destination string
	Err         error
}

func (e *Error) Error() string {
	msg := string(e.Reason)
	if s := e.sentinel(); s != nil {
		msg = s.Error()
	}
	return fmt.Sprintf("%s (%s): %v", msg, e.Destination, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for e.Reason.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Reason {
	case ReasonDestinationUnavailable:
		return ErrDestinationUnavailable
	case ReasonTransportInit:
		return ErrTransportInit
	case ReasonDeliveryFailed:
		return ErrDeliveryFailed
	default:
		return nil
	}
}

// ReasonOf extracts the Reason from err, if err is (or wraps) an *Error.
func ReasonOf(err error) (Reason, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}
