package serial

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the externally visible link state
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// connection is the open link. A nil *connection means disconnected.
type connection struct {
	transport Transport
	device    Device
	session   string
	since     time.Time
}

// Manager owns a single serial transport and keeps it connected.
//
// All I/O is serialized behind one lock, so callers on any goroutine see
// one logical user of the device at a time. Faults drop the handle and
// start the reconnect loop; they are never fatal. Only Close stops
// recovery.
type Manager struct {
	cfg Config
	log zerolog.Logger

	mu         sync.Mutex
	conn       *connection
	changed    chan struct{} // closed and replaced on every state change
	closed     bool
	openFaults int
	resetPath  string // device due for a USB reset, consumed by the reconnect loop

	state        atomic.Int32
	reconnecting atomic.Bool

	// lifeMu orders background goroutine starts against Close.
	lifeMu  sync.Mutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Manager for the device with the given USB vendor and
// product IDs and makes a first connection attempt. A missing device is
// not an error: the manager keeps retrying in the background.
func New(vendorID, productID string, opts ...Option) (*Manager, error) {
	cfg := DefaultConfig()
	cfg.VendorID = vendorID
	cfg.ProductID = productID
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:     cfg,
		changed: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		log: cfg.Logger.With().
			Str("vid", normalizeID(vendorID)).
			Str("pid", normalizeID(productID)).
			Logger(),
	}

	if err := m.connect(); err != nil {
		m.scheduleReconnect()
	}

	if cfg.Heartbeat.Enabled {
		m.spawn(m.heartbeatLoop)
	}

	if cfg.WatchHotplug {
		if err := m.startHotplug(); err != nil {
			m.log.Warn().Err(err).Msg("hotplug watcher unavailable")
		}
	}

	return m, nil
}

// State returns the current link state without waiting for in-flight I/O
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Device returns the connected device, if any
func (m *Manager) Device() (Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return Device{}, false
	}
	return m.conn.device, true
}

// WaitConnected blocks until the link is up, ctx is done or the manager is closed
func (m *Manager) WaitConnected(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return ErrManagerClosed
		}
		if m.conn != nil {
			m.mu.Unlock()
			return nil
		}
		changed := m.changed
		m.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the heartbeat and any pending reconnect, then closes the
// device. It waits for background goroutines to exit and is safe to call
// more than once.
func (m *Manager) Close() error {
	m.lifeMu.Lock()
	if m.stopped {
		m.lifeMu.Unlock()
		return nil
	}
	m.stopped = true
	m.cancel()
	m.lifeMu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	err := m.dropLocked()
	m.notifyLocked()
	return err
}

// spawn runs fn on a goroutine tracked by Close. It is a no-op after Close.
func (m *Manager) spawn(fn func()) bool {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.stopped {
		return false
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
	return true
}

// connect locates and opens the device. On success the reconnect flag is
// cleared while the lock is still held, so a fault observed right after
// can schedule a fresh attempt.
func (m *Manager) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if m.conn != nil {
		m.reconnecting.Store(false)
		return nil
	}

	dev, err := m.cfg.Locator.Locate(m.cfg.VendorID, m.cfg.ProductID)
	if err != nil {
		m.log.Warn().Err(err).Msg("no USB device found")
		return &Fault{Kind: FaultDeviceNotFound, Op: "connect", Err: err}
	}

	t, err := m.cfg.Opener(dev.Path, m.cfg.lineSettings())
	if errors.Is(err, ErrInvalidBaudRate) {
		// A reset cannot fix the configuration.
		m.log.Error().Err(err).Str("path", dev.Path).Msg("device rejected the baud rate")
		return &Fault{Kind: FaultOpen, Op: "connect", Err: err}
	}
	if err != nil {
		m.openFaults++
		m.log.Warn().Err(err).
			Str("path", dev.Path).
			Int("attempt", m.openFaults).
			Msg("can't connect to device")
		if m.cfg.USBResetAfter > 0 && m.openFaults >= m.cfg.USBResetAfter {
			m.openFaults = 0
			m.resetPath = dev.Path
		}
		return &Fault{Kind: FaultOpen, Op: "connect", Err: err}
	}

	m.openFaults = 0
	m.conn = &connection{
		transport: t,
		device:    dev,
		session:   uuid.NewString(),
		since:     time.Now(),
	}
	m.notifyLocked()
	m.reconnecting.Store(false)

	m.log.Info().
		Str("path", dev.Path).
		Str("device", dev.Name).
		Str("session", m.conn.session).
		Msg("successfully connected")

	return nil
}

// scheduleReconnect starts the reconnect loop unless one is already
// pending. It never blocks and may be called with mu held.
func (m *Manager) scheduleReconnect() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.stopped {
		return
	}
	if !m.reconnecting.CompareAndSwap(false, true) {
		return
	}

	m.log.Debug().Dur("delay", m.cfg.ReconnectDelay).Msg("reconnect scheduled")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reconnectLoop()
	}()
}

// reconnectLoop retries connect every ReconnectDelay until it succeeds or
// the manager is closed.
func (m *Manager) reconnectLoop() {
	ticker := time.NewTicker(m.cfg.ReconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.reconnecting.Store(false)
			return
		case <-ticker.C:
		}

		err := m.connect()
		if err == nil {
			return
		}
		if errors.Is(err, ErrManagerClosed) {
			m.reconnecting.Store(false)
			return
		}

		m.resetUSBIfDue()
	}
}

// resetUSBIfDue performs a USB reset requested by connect, outside the lock
func (m *Manager) resetUSBIfDue() {
	m.mu.Lock()
	path := m.resetPath
	m.resetPath = ""
	m.mu.Unlock()

	if path == "" {
		return
	}

	m.log.Warn().Str("path", path).Msg("resetting USB device after repeated open faults")
	if err := resetUSBDevice(m.ctx, path); err != nil {
		m.log.Error().Err(err).Str("path", path).Msg("USB reset failed")
	}
}

// faultLocked drops the handle, schedules a reconnect and returns the
// fault for the caller. mu must be held.
func (m *Manager) faultLocked(op string, kind FaultKind, cause error) error {
	m.log.Warn().Err(cause).
		Str("op", op).
		Stringer("fault", kind).
		Msg("device error, attempting to autoconnect")

	if err := m.dropLocked(); err != nil {
		m.log.Debug().Err(err).Msg("closing faulted handle")
	}
	m.scheduleReconnect()

	return &Fault{Kind: kind, Op: op, Err: cause}
}

// dropLocked closes and forgets the current handle. mu must be held.
func (m *Manager) dropLocked() error {
	if m.conn == nil {
		return nil
	}

	c := m.conn
	m.conn = nil
	m.notifyLocked()

	m.log.Info().
		Str("path", c.device.Path).
		Str("session", c.session).
		Dur("uptime", time.Since(c.since)).
		Msg("disconnected")

	return c.transport.Close()
}

// notifyLocked publishes the current state and wakes WaitConnected callers.
func (m *Manager) notifyLocked() {
	if m.conn != nil {
		m.state.Store(int32(StateConnected))
	} else {
		m.state.Store(int32(StateDisconnected))
	}
	close(m.changed)
	m.changed = make(chan struct{})
}
