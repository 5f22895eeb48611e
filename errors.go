package serial

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound    = errors.New("serial device not found")
	ErrNotConnected      = errors.New("serial device not connected")
	ErrManagerClosed     = errors.New("serial manager is closed")
	ErrInvalidBaudRate   = errors.New("invalid baud rate")
	ErrInvalidConfig     = errors.New("invalid serial configuration")
	ErrHeartbeatMismatch = errors.New("heartbeat response mismatch")

	// USB-related errors
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)

// FaultKind classifies why the link was lost or could not be established.
type FaultKind int

const (
	FaultDeviceNotFound FaultKind = iota + 1
	FaultOpen
	FaultTransport
	FaultHeartbeatMismatch
)

func (k FaultKind) String() string {
	switch k {
	case FaultDeviceNotFound:
		return "device_not_found"
	case FaultOpen:
		return "open"
	case FaultTransport:
		return "transport"
	case FaultHeartbeatMismatch:
		return "heartbeat_mismatch"
	default:
		return "unknown"
	}
}

// Fault is returned by operations that lost the link. The underlying
// cause is available through errors.Unwrap.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s fault", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s fault: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// IsFault reports whether err carries a Fault of the given kind.
func IsFault(err error, kind FaultKind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}
