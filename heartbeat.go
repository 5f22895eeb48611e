package serial

import (
	"fmt"
	"strings"
	"time"
)

// heartbeatLoop queries the heartbeat phrase every interval. The timer is
// re-armed after each tick finishes, so ticks never overlap.
func (m *Manager) heartbeatLoop() {
	interval := m.cfg.Heartbeat.Interval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-timer.C:
		}

		m.heartbeatTick()
		timer.Reset(interval)
	}
}

// heartbeatTick probes the link once. Query and verdict happen under one
// lock hold, so a failed heartbeat drops the handle exactly once.
func (m *Manager) heartbeatTick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.conn == nil {
		return
	}

	hb := m.cfg.Heartbeat
	resp, received, err := query(m.conn.transport, hb.Phrase, queryOptions{
		eol:   m.cfg.EOL,
		delay: m.cfg.QueryDelay,
	})
	if err != nil {
		m.faultLocked("heartbeat", FaultTransport, err)
		return
	}

	if !heartbeatAcknowledged(hb, resp, received) {
		m.faultLocked("heartbeat", FaultHeartbeatMismatch,
			fmt.Errorf("%w: got %q", ErrHeartbeatMismatch, resp))
		return
	}

	m.log.Trace().Str("response", resp).Msg("heartbeat ok")
}

// heartbeatAcknowledged compares a trimmed response against the trimmed
// ack. Silence never counts, whatever the ack. Without an ack any
// non-empty response counts.
func heartbeatAcknowledged(hb HeartbeatConfig, resp string, received bool) bool {
	if !received {
		return false
	}
	if !hb.AckSet {
		return resp != ""
	}
	return resp == strings.TrimSpace(hb.Ack)
}
