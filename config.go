package serial

import (
	"time"

	"github.com/allbin/reliable-serial/internal/port"
	"github.com/rs/zerolog"
)

// Default values applied by DefaultConfig
const (
	DefaultBaudRate          = 115200
	DefaultReadTimeout       = 200 * time.Millisecond
	DefaultReconnectDelay    = 1 * time.Second
	DefaultHeartbeatInterval = 1 * time.Second
	DefaultQueryDelay        = 30 * time.Millisecond
	DefaultEOL               = "\n"
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// HeartbeatConfig controls the liveness monitor. The monitor runs only
// when Enabled is set, which WithHeartbeat does.
type HeartbeatConfig struct {
	Enabled  bool
	Phrase   string
	Ack      string
	AckSet   bool // when false any non-empty response counts as alive
	Interval time.Duration
}

// Config holds the configuration of a Manager. It is copied at
// construction and never changed afterwards.
type Config struct {
	VendorID       string
	ProductID      string
	BaudRate       int
	DataBits       int
	StopBits       int
	Parity         Parity
	ReadTimeout    time.Duration
	ReconnectDelay time.Duration
	QueryDelay     time.Duration
	EOL            string
	Heartbeat      HeartbeatConfig

	// USBResetAfter resets the USB device after this many consecutive
	// open faults on a device that was found. Zero disables it.
	USBResetAfter int
	// SyncWrite opens the device O_SYNC (native driver) and drains the
	// output queue after every Write.
	SyncWrite bool
	// WatchHotplug drops the handle as soon as its /dev node disappears.
	WatchHotplug bool

	Locator Locator
	Opener  Opener
	Logger  zerolog.Logger

	// nativeDriver is set while Opener is the default NativeOpener, whose
	// baud rates are limited to the termios speed table.
	nativeDriver bool
}

// Option is a functional option for configuring a Manager
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:       DefaultBaudRate,
		DataBits:       8,
		StopBits:       1,
		Parity:         ParityNone,
		ReadTimeout:    DefaultReadTimeout,
		ReconnectDelay: DefaultReconnectDelay,
		QueryDelay:     DefaultQueryDelay,
		EOL:            DefaultEOL,
		Heartbeat: HeartbeatConfig{
			Interval: DefaultHeartbeatInterval,
		},
		Locator: SysfsLocator{},
		Opener:  NativeOpener,
		Logger:  zerolog.Nop(),

		nativeDriver: true,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParityEven {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithSyncWrite makes Write return only after the data left the UART
func WithSyncWrite() Option {
	return func(c *Config) error {
		c.SyncWrite = true
		return nil
	}
}

// WithReadTimeout sets the per-read timeout used when opening the device
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithReconnectDelay sets the interval between autoconnect attempts
func WithReconnectDelay(delay time.Duration) Option {
	return func(c *Config) error {
		if delay <= 0 {
			return ErrInvalidConfig
		}
		c.ReconnectDelay = delay
		return nil
	}
}

// WithQueryDelay sets the default time Query waits for the device to answer
func WithQueryDelay(delay time.Duration) Option {
	return func(c *Config) error {
		if delay < 0 {
			return ErrInvalidConfig
		}
		c.QueryDelay = delay
		return nil
	}
}

// WithEOL sets the default terminator Query appends to commands
func WithEOL(eol string) Option {
	return func(c *Config) error {
		c.EOL = eol
		return nil
	}
}

// WithHeartbeat enables the liveness monitor, sending phrase every interval
func WithHeartbeat(phrase string) Option {
	return func(c *Config) error {
		c.Heartbeat.Enabled = true
		c.Heartbeat.Phrase = phrase
		return nil
	}
}

// WithHeartbeatAck sets the exact response expected for the heartbeat phrase
func WithHeartbeatAck(ack string) Option {
	return func(c *Config) error {
		c.Heartbeat.Ack = ack
		c.Heartbeat.AckSet = true
		return nil
	}
}

// WithHeartbeatInterval sets the heartbeat period
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 {
			return ErrInvalidConfig
		}
		c.Heartbeat.Interval = interval
		return nil
	}
}

// WithUSBResetAfter enables a usbreset of the device after n consecutive
// open faults
func WithUSBResetAfter(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return ErrInvalidConfig
		}
		c.USBResetAfter = n
		return nil
	}
}

// WithHotplugWatch enables the /dev watcher
func WithHotplugWatch() Option {
	return func(c *Config) error {
		c.WatchHotplug = true
		return nil
	}
}

// WithLocator replaces the device locator
func WithLocator(l Locator) Option {
	return func(c *Config) error {
		if l == nil {
			return ErrInvalidConfig
		}
		c.Locator = l
		return nil
	}
}

// WithOpener replaces the transport opener. Use WithNativeDriver rather
// than WithOpener(NativeOpener) to keep the baud rate check in New.
func WithOpener(o Opener) Option {
	return func(c *Config) error {
		if o == nil {
			return ErrInvalidConfig
		}
		c.Opener = o
		c.nativeDriver = false
		return nil
	}
}

// WithNativeDriver selects NativeOpener, the default
func WithNativeDriver() Option {
	return func(c *Config) error {
		c.Opener = NativeOpener
		c.nativeDriver = true
		return nil
	}
}

// WithLogger sets the logger used for connection lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// validate checks the fields that options cannot check on their own
func (c *Config) validate() error {
	if !validID(c.VendorID) || !validID(c.ProductID) {
		return ErrInvalidConfig
	}
	if c.BaudRate <= 0 {
		return ErrInvalidBaudRate
	}
	if c.nativeDriver && !port.SupportedBaudRate(c.BaudRate) {
		return ErrInvalidBaudRate
	}
	return nil
}

func (c *Config) lineSettings() LineSettings {
	return LineSettings{
		BaudRate:    c.BaudRate,
		DataBits:    c.DataBits,
		StopBits:    c.StopBits,
		Parity:      c.Parity,
		ReadTimeout: c.ReadTimeout,
		SyncWrite:   c.SyncWrite,
	}
}
