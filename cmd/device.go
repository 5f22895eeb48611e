/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	serial "github.com/allbin/reliable-serial"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var errMissingIDs = errors.New("--vid and --pid are required")

// deviceIDs returns the configured vendor and product ID
func deviceIDs() (string, string, error) {
	vid, pid := viper.GetString("vid"), viper.GetString("pid")
	if vid == "" || pid == "" {
		return "", "", errMissingIDs
	}
	return vid, pid, nil
}

// locatorFromConfig maps the --locator setting to a serial.Locator
func locatorFromConfig() (serial.Locator, error) {
	switch strings.ToLower(viper.GetString("locator")) {
	case "", "sysfs":
		return serial.SysfsLocator{}, nil
	case "enumerator":
		return serial.EnumeratorLocator{}, nil
	default:
		return nil, fmt.Errorf("unknown locator %q (want sysfs or enumerator)", viper.GetString("locator"))
	}
}

// driverOption maps the --driver setting to the option selecting its opener
func driverOption() (serial.Option, error) {
	switch strings.ToLower(viper.GetString("driver")) {
	case "", "native":
		return serial.WithNativeDriver(), nil
	case "bugst":
		return serial.WithOpener(serial.BugstOpener), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want native or bugst)", viper.GetString("driver"))
	}
}

// parityFromConfig maps the --parity setting to a serial.Parity
func parityFromConfig() (serial.Parity, error) {
	switch strings.ToLower(viper.GetString("parity")) {
	case "", "none", "n":
		return serial.ParityNone, nil
	case "odd", "o":
		return serial.ParityOdd, nil
	case "even", "e":
		return serial.ParityEven, nil
	default:
		return serial.ParityNone, fmt.Errorf("unknown parity %q (want none, odd or even)", viper.GetString("parity"))
	}
}

// managerOptions builds the manager options from flags, environment and config file
func managerOptions(ctx context.Context) ([]serial.Option, error) {
	locator, err := locatorFromConfig()
	if err != nil {
		return nil, err
	}
	driver, err := driverOption()
	if err != nil {
		return nil, err
	}
	parity, err := parityFromConfig()
	if err != nil {
		return nil, err
	}

	opts := []serial.Option{
		driver,
		serial.WithBaudRate(viper.GetInt("baud")),
		serial.WithDataBits(viper.GetInt("data-bits")),
		serial.WithStopBits(viper.GetInt("stop-bits")),
		serial.WithParity(parity),
		serial.WithReconnectDelay(viper.GetDuration("reconnect-delay")),
		serial.WithUSBResetAfter(viper.GetInt("usb-reset-after")),
		serial.WithLocator(locator),
		serial.WithLogger(*zerolog.Ctx(ctx)),
	}

	if phrase := viper.GetString("heartbeat"); phrase != "" {
		opts = append(opts,
			serial.WithHeartbeat(unescape(phrase)),
			serial.WithHeartbeatInterval(viper.GetDuration("heartbeat-interval")),
		)
		if viper.IsSet("heartbeat-ack") {
			opts = append(opts, serial.WithHeartbeatAck(unescape(viper.GetString("heartbeat-ack"))))
		}
	}

	if viper.GetBool("sync-write") {
		opts = append(opts, serial.WithSyncWrite())
	}

	if viper.GetBool("hotplug") {
		opts = append(opts, serial.WithHotplugWatch())
	}

	return opts, nil
}

// connectManager creates a manager and waits up to --wait for the device.
// The caller owns the returned manager.
func connectManager(ctx context.Context) (*serial.Manager, error) {
	vid, pid, err := deviceIDs()
	if err != nil {
		return nil, err
	}

	opts, err := managerOptions(ctx)
	if err != nil {
		return nil, errorx.Decorate(err, "build options")
	}

	m, err := serial.New(vid, pid, opts...)
	if err != nil {
		return nil, errorx.Decorate(err, "create manager for %s:%s", vid, pid)
	}

	waitCtx, cancel := context.WithTimeout(ctx, viper.GetDuration("wait"))
	defer cancel()

	if err := m.WaitConnected(waitCtx); err != nil {
		_ = m.Close()
		return nil, errorx.Decorate(err, "wait for device %s:%s", vid, pid)
	}

	return m, nil
}

// unescape turns the \r, \n and \t escapes typed on a command line into
// control characters
func unescape(s string) string {
	return strings.NewReplacer(`\r`, "\r", `\n`, "\n", `\t`, "\t").Replace(s)
}
