package serial

import (
	"errors"
	"sync"
	"time"
)

var errUnplugged = errors.New("input/output error")

// fakeTransport is an in-memory device. In loopback mode every write is
// queued as input; a responder replaces that with a custom reply.
type fakeTransport struct {
	mu        sync.Mutex
	path      string
	baud      int
	settings  LineSettings
	rx        []byte
	written   []byte
	calls     []string
	responder func(written []byte) []byte
	probeErr  error
	readErr   error
	writeErr  error
	closed    int
}

func (f *fakeTransport) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("read")
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("write")
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, p...)
	if f.responder != nil {
		f.rx = append(f.rx, f.responder(p)...)
	} else {
		f.rx = append(f.rx, p...)
	}
	return len(p), nil
}

func (f *fakeTransport) Drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("drain")
	return nil
}

func (f *fakeTransport) FlushInput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("flush_input")
	f.rx = nil
	return nil
}

func (f *fakeTransport) FlushOutput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("flush_output")
	return nil
}

func (f *fakeTransport) Probe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("probe")
	return f.probeErr
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTransport) setProbeErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeErr = err
}

func (f *fakeTransport) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// callLog returns the recorded calls with runs of reads collapsed, and
// clears the log.
func (f *fakeTransport) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c == "read" && len(out) > 0 && out[len(out)-1] == "read" {
			continue
		}
		out = append(out, c)
	}
	f.calls = nil
	return out
}

// fakeBus plays both locator and opener for one USB device.
type fakeBus struct {
	mu        sync.Mutex
	present   bool
	device    Device
	openErr   error
	responder func([]byte) []byte
	locates   int
	opened    []*fakeTransport
}

func newFakeBus(present bool) *fakeBus {
	return &fakeBus{
		present: present,
		device: Device{
			Path:      "/dev/ttyUSB0",
			Name:      "FTDI FT232R USB UART",
			VendorID:  "0403",
			ProductID: "6001",
		},
	}
}

func (b *fakeBus) Locate(vendorID, productID string) (Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locates++
	if !b.present || normalizeID(vendorID) != b.device.VendorID || normalizeID(productID) != b.device.ProductID {
		return Device{}, ErrDeviceNotFound
	}
	return b.device, nil
}

func (b *fakeBus) Open(path string, s LineSettings) (Transport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	t := &fakeTransport{path: path, baud: s.BaudRate, settings: s, responder: b.responder}
	b.opened = append(b.opened, t)
	return t, nil
}

func (b *fakeBus) setPresent(present bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.present = present
}

func (b *fakeBus) setOpenErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openErr = err
}

func (b *fakeBus) locateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locates
}

func (b *fakeBus) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.opened)
}

func (b *fakeBus) transport(i int) *fakeTransport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened[i]
}

// options wires the bus into a Manager with short timings for tests.
func (b *fakeBus) options(extra ...Option) []Option {
	return append([]Option{
		WithLocator(b),
		WithOpener(b.Open),
		WithReconnectDelay(10 * time.Millisecond),
		WithQueryDelay(time.Millisecond),
	}, extra...)
}
