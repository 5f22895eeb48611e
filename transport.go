package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/allbin/reliable-serial/internal/port"
	bugst "go.bug.st/serial"
)

// Transport is an open serial device handle.
//
// Read returns (0, nil) when the read timeout expires without data.
// Probe touches the modem control lines and fails once the device is gone,
// which catches a handle left stale by an unplug before any I/O is tried.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Drain() error
	FlushInput() error
	FlushOutput() error
	Probe() error
	Close() error
}

// LineSettings is what an Opener needs to configure the device
type LineSettings struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	ReadTimeout time.Duration
	SyncWrite   bool
}

// Opener opens the device at path with the given line settings.
type Opener func(path string, s LineSettings) (Transport, error)

// NativeOpener opens devices with the built-in Linux termios driver. The
// read timeout is rounded up to the 100ms resolution of VTIME.
func NativeOpener(path string, s LineSettings) (Transport, error) {
	opts := []port.Option{
		port.WithBaudRate(s.BaudRate),
		port.WithDataBits(s.DataBits),
		port.WithStopBits(s.StopBits),
		port.WithParity(nativeParity[s.Parity]),
		port.WithReadTimeout(port.RoundReadTimeout(s.ReadTimeout)),
	}
	if s.SyncWrite {
		opts = append(opts, port.WithSyncWrite())
	}

	p, err := port.Open(path, opts...)
	if errors.Is(err, port.ErrInvalidBaudRate) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBaudRate, s.BaudRate)
	}
	if err != nil {
		return nil, err
	}
	return nativeTransport{p}, nil
}

var nativeParity = map[Parity]port.Parity{
	ParityNone: port.ParityNone,
	ParityOdd:  port.ParityOdd,
	ParityEven: port.ParityEven,
}

type nativeTransport struct {
	*port.Port
}

func (t nativeTransport) Probe() error {
	_, err := t.GetModemSignals()
	return err
}

// BugstOpener opens devices through go.bug.st/serial. SyncWrite is
// honoured by the Manager draining after each write.
func BugstOpener(path string, s LineSettings) (Transport, error) {
	mode := &bugst.Mode{
		BaudRate: s.BaudRate,
		DataBits: s.DataBits,
		Parity:   bugstParity[s.Parity],
		StopBits: bugst.OneStopBit,
	}
	if s.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	p, err := bugst.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(s.ReadTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return bugstTransport{p}, nil
}

var bugstParity = map[Parity]bugst.Parity{
	ParityNone: bugst.NoParity,
	ParityOdd:  bugst.OddParity,
	ParityEven: bugst.EvenParity,
}

type bugstTransport struct {
	bugst.Port
}

func (t bugstTransport) FlushInput() error {
	return t.ResetInputBuffer()
}

func (t bugstTransport) FlushOutput() error {
	return t.ResetOutputBuffer()
}

func (t bugstTransport) Probe() error {
	_, err := t.GetModemStatusBits()
	return err
}
