package serial

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackWriteReadLine(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus)

	require.NoError(t, m.Write([]byte("testdata\n")))
	assertUnlocked(t, m)

	line, err := m.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "testdata", line)
	assertUnlocked(t, m)

	assert.Equal(t, "testdata\n", string(bus.transport(0).written), "write must not add a terminator")
}

func TestQueryLoopbackScenario(t *testing.T) {
	bus := newFakeBus(true)
	m, err := New("0403", "6001",
		WithLocator(bus),
		WithOpener(bus.Open),
		WithBaudRate(115200),
		WithHeartbeat("loopback heartbeat"),
		WithHeartbeatAck("loopback heartbeat"),
		WithHeartbeatInterval(5*time.Second),
	)
	require.NoError(t, err)
	defer m.Close()

	resp, err := m.Query("Knock knock", WithQueryEOL("\n"), WithResponseDelay(30*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "Knock knock", resp)
	assert.Equal(t, 115200, bus.transport(0).baud)
}

func TestQueryFlushesAroundExchange(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus)
	tr := bus.transport(0)
	tr.callLog()

	_, err := m.Query("status")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"probe", "flush_input", "flush_output", "write", "read", "flush_input", "flush_output",
	}, tr.callLog())

	tr.setReadErr(errUnplugged)
	_, err = m.Query("status")
	assert.True(t, IsFault(err, FaultTransport))
	assert.Equal(t, []string{
		"probe", "flush_input", "flush_output", "write", "read", "flush_input", "flush_output",
	}, tr.callLog())
	assertUnlocked(t, m)
}

func TestQueryFlushesAfterProbeFault(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus, WithReconnectDelay(time.Hour))
	tr := bus.transport(0)
	tr.callLog()
	tr.setProbeErr(errUnplugged)

	_, err := m.Query("status")
	assert.True(t, IsFault(err, FaultTransport))
	assert.Equal(t, []string{"probe", "flush_input", "flush_output"}, tr.callLog())
}

func TestReadLineReportsSilence(t *testing.T) {
	tr := &fakeTransport{}
	line, received, err := readLine(tr)
	require.NoError(t, err)
	assert.Equal(t, "", line)
	assert.False(t, received)

	tr.rx = []byte("\r\n")
	line, received, err = readLine(tr)
	require.NoError(t, err)
	assert.Equal(t, "", line)
	assert.True(t, received)
}

func TestSyncWriteDrains(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus, WithSyncWrite())
	tr := bus.transport(0)
	tr.callLog()

	require.NoError(t, m.Write([]byte("x")))
	assert.Equal(t, []string{"probe", "write", "drain"}, tr.callLog())

	plain := newFakeBus(true)
	m2 := newTestManager(t, plain)
	tr2 := plain.transport(0)
	tr2.callLog()
	require.NoError(t, m2.Write([]byte("x")))
	assert.Equal(t, []string{"probe", "write"}, tr2.callLog())
}

func TestQueryUsesConfiguredEOL(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus, WithEOL("\r\n"))

	resp, err := m.Query("AT")
	require.NoError(t, err)
	assert.Equal(t, "AT", resp)
	assert.Equal(t, "AT\r\n", string(bus.transport(0).written))

	_, err = m.Query("ATI", WithQueryEOL("\r"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(bus.transport(0).written), "ATI\r"))
}

func TestQueryDiscardsStaleInput(t *testing.T) {
	bus := newFakeBus(true)
	bus.responder = func(written []byte) []byte {
		return []byte("OK\n")
	}
	m := newTestManager(t, bus)

	tr := bus.transport(0)
	tr.mu.Lock()
	tr.rx = []byte("garbage from before\n")
	tr.mu.Unlock()

	resp, err := m.Query("AT")
	require.NoError(t, err)
	assert.Equal(t, "OK", resp)
}

func TestReadSizes(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus)

	require.NoError(t, m.Write([]byte("abcdef")))

	got, err := m.Read(4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))

	got, err = m.Read(0)
	require.NoError(t, err)
	assert.Equal(t, "e", string(got))

	got, err = m.Read(10)
	require.NoError(t, err)
	assert.Equal(t, "f", string(got))

	got, err = m.Read(1)
	require.NoError(t, err)
	assert.Empty(t, got, "timed out read returns no data without failing")
	assertUnlocked(t, m)
}

func TestReadLineWithoutTerminator(t *testing.T) {
	bus := newFakeBus(true)
	m := newTestManager(t, bus)

	require.NoError(t, m.Write([]byte("  partial  ")))
	line, err := m.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "partial", line)

	line, err = m.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "", line)
}

func TestTransportFaultsDropHandle(t *testing.T) {
	tests := []struct {
		name string
		op   string
		fail func(*fakeTransport)
		call func(*Manager) error
	}{
		{
			name: "write probe",
			op:   "write",
			fail: func(f *fakeTransport) { f.setProbeErr(errUnplugged) },
			call: func(m *Manager) error { return m.Write([]byte("x")) },
		},
		{
			name: "write error",
			op:   "write",
			fail: func(f *fakeTransport) {
				f.mu.Lock()
				f.writeErr = errUnplugged
				f.mu.Unlock()
			},
			call: func(m *Manager) error { return m.Write([]byte("x")) },
		},
		{
			name: "read error",
			op:   "read",
			fail: func(f *fakeTransport) { f.setReadErr(errUnplugged) },
			call: func(m *Manager) error { _, err := m.Read(1); return err },
		},
		{
			name: "readline error",
			op:   "readline",
			fail: func(f *fakeTransport) { f.setReadErr(errUnplugged) },
			call: func(m *Manager) error { _, err := m.ReadLine(); return err },
		},
		{
			name: "query probe",
			op:   "query",
			fail: func(f *fakeTransport) { f.setProbeErr(errUnplugged) },
			call: func(m *Manager) error { _, err := m.Query("x"); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus(true)
			m := newTestManager(t, bus, WithReconnectDelay(time.Hour))
			tr := bus.transport(0)
			tt.fail(tr)

			err := tt.call(m)
			var f *Fault
			require.True(t, errors.As(err, &f), "expected *Fault, got %v", err)
			assert.Equal(t, FaultTransport, f.Kind)
			assert.Equal(t, tt.op, f.Op)
			assert.ErrorIs(t, err, errUnplugged)

			assert.Equal(t, StateDisconnected, m.State())
			assert.Equal(t, 1, tr.closeCount())
			assert.True(t, m.reconnecting.Load())
			assertUnlocked(t, m)

			assert.ErrorIs(t, tt.call(m), ErrNotConnected)
			assert.Equal(t, 1, tr.closeCount())
		})
	}
}

func TestWriteFullRetriesShortWrites(t *testing.T) {
	sw := &shortWriter{fakeTransport: &fakeTransport{}}
	require.NoError(t, writeFull(sw, []byte("hello")))
	assert.Equal(t, "hello", string(sw.written))
	assert.Equal(t, 5, sw.writes)
}

// shortWriter accepts one byte per Write call
type shortWriter struct {
	*fakeTransport
	writes int
}

func (s *shortWriter) Write(p []byte) (int, error) {
	s.writes++
	return s.fakeTransport.Write(p[:1])
}
