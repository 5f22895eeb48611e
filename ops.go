package serial

import (
	"io"
	"strings"
	"time"
)

// maxLineLength caps ReadLine so a device streaming without newlines
// cannot hold the lock forever.
const maxLineLength = 64 * 1024

type queryOptions struct {
	eol   string
	delay time.Duration
}

// QueryOption adjusts a single Query call
type QueryOption func(*queryOptions)

// WithQueryEOL overrides the terminator appended to the command
func WithQueryEOL(eol string) QueryOption {
	return func(o *queryOptions) {
		o.eol = eol
	}
}

// WithResponseDelay overrides how long Query waits before reading the reply
func WithResponseDelay(delay time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.delay = delay
	}
}

// Write sends data verbatim; no terminator is appended.
func (m *Manager) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.transportLocked()
	if err != nil {
		return err
	}

	if err := t.Probe(); err != nil {
		return m.faultLocked("write", FaultTransport, err)
	}
	if err := writeFull(t, data); err != nil {
		return m.faultLocked("write", FaultTransport, err)
	}
	if m.cfg.SyncWrite {
		if err := t.Drain(); err != nil {
			return m.faultLocked("write", FaultTransport, err)
		}
	}
	return nil
}

// Read reads up to size bytes, returning early when the read timeout
// passes. An empty result is not an error. size below 1 reads one byte.
func (m *Manager) Read(size int) ([]byte, error) {
	if size < 1 {
		size = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.transportLocked()
	if err != nil {
		return nil, err
	}

	if err := t.Probe(); err != nil {
		return nil, m.faultLocked("read", FaultTransport, err)
	}

	buf := make([]byte, size)
	total := 0
	deadline := time.Now().Add(m.cfg.ReadTimeout)
	for total < size {
		n, err := t.Read(buf[total:])
		if err != nil {
			return nil, m.faultLocked("read", FaultTransport, err)
		}
		total += n
		if n == 0 || time.Now().After(deadline) {
			break
		}
	}
	return buf[:total], nil
}

// ReadLine reads until a newline or the read timeout and returns the line
// with surrounding whitespace removed.
func (m *Manager) ReadLine() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.transportLocked()
	if err != nil {
		return "", err
	}

	if err := t.Probe(); err != nil {
		return "", m.faultLocked("readline", FaultTransport, err)
	}
	line, _, err := readLine(t)
	if err != nil {
		return "", m.faultLocked("readline", FaultTransport, err)
	}
	return line, nil
}

// Query performs one request/response round trip: flush both buffers,
// write command plus EOL, wait for the device, read one line, flush again.
// The lock is held for the whole exchange.
func (m *Manager) Query(command string, opts ...QueryOption) (string, error) {
	o := queryOptions{eol: m.cfg.EOL, delay: m.cfg.QueryDelay}
	for _, opt := range opts {
		opt(&o)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.transportLocked()
	if err != nil {
		return "", err
	}

	resp, _, err := query(t, command, o)
	if err != nil {
		return "", m.faultLocked("query", FaultTransport, err)
	}
	return resp, nil
}

// transportLocked returns the open handle or the failure sentinel. A
// missing handle also makes sure a reconnect is pending. mu must be held.
func (m *Manager) transportLocked() (Transport, error) {
	if m.closed {
		return nil, ErrManagerClosed
	}
	if m.conn == nil {
		m.scheduleReconnect()
		return nil, ErrNotConnected
	}
	return m.conn.transport, nil
}

// query runs the flush/write/wait/read/flush sequence on t. The trailing
// flush runs on every path, best effort when the probe already failed.
// received reports whether the device sent anything at all.
func query(t Transport, command string, o queryOptions) (resp string, received bool, err error) {
	if err := t.Probe(); err != nil {
		_ = flush(t)
		return "", false, err
	}
	if err := flush(t); err != nil {
		_ = flush(t)
		return "", false, err
	}

	resp, received, err = func() (string, bool, error) {
		if err := writeFull(t, []byte(command+o.eol)); err != nil {
			return "", false, err
		}
		time.Sleep(o.delay)
		return readLine(t)
	}()

	if ferr := flush(t); err == nil {
		err = ferr
	}
	if err != nil {
		return "", false, err
	}
	return resp, received, nil
}

func flush(t Transport) error {
	if err := t.FlushInput(); err != nil {
		return err
	}
	return t.FlushOutput()
}

// writeFull writes all of data, retrying short writes
func writeFull(t Transport, data []byte) error {
	for len(data) > 0 {
		n, err := t.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

// readLine reads byte by byte until '\n', a timed out read or
// maxLineLength. received is false only when no byte arrived, which a
// trimmed line cannot tell apart from a bare newline.
func readLine(t Transport) (line string, received bool, err error) {
	var buf []byte
	b := make([]byte, 1)

	for len(buf) < maxLineLength {
		n, err := t.Read(b)
		if err != nil {
			return "", false, err
		}
		if n == 0 {
			break
		}
		buf = append(buf, b[0])
		if b[0] == '\n' {
			break
		}
	}

	return strings.TrimSpace(string(buf)), len(buf) > 0, nil
}
