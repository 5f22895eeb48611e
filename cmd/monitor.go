/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	serial "github.com/allbin/reliable-serial"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Keep the link up and report its state until interrupted",
	Long: `Run the connection manager with the configured heartbeat and log every
change of link state. Unlike the other commands this does not wait for the
device first: start it, then plug the device in.

Example usage:
  reliable-serial monitor --vid 0403 --pid 6001 --heartbeat "loopback heartbeat" --heartbeat-interval 5s
  reliable-serial monitor --vid 0403 --pid 6001 --heartbeat '\r' --heartbeat-ack OK --hotplug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", interval)
		}

		vid, pid, err := deviceIDs()
		if err != nil {
			return err
		}
		opts, err := managerOptions(cmd.Context())
		if err != nil {
			return errorx.Decorate(err, "build options")
		}

		logger := zerolog.Ctx(cmd.Context())
		if viper.GetString("heartbeat") == "" {
			logger.Warn().Msg("no --heartbeat phrase set, silent link failures will not be detected")
		}

		m, err := serial.New(vid, pid, opts...)
		if err != nil {
			return errorx.Decorate(err, "create manager for %s:%s", vid, pid)
		}
		defer m.Close()

		watchState(cmd.Context(), m, interval)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Duration("interval", 250*time.Millisecond, "How often to sample the link state")
}

// stateSource is the part of the manager watchState needs
type stateSource interface {
	State() serial.State
	Device() (serial.Device, bool)
}

// watchState logs link state transitions of s until ctx is done
func watchState(ctx context.Context, s stateSource, interval time.Duration) {
	logger := zerolog.Ctx(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := s.State()
	var since time.Time
	report := func(state serial.State) {
		if state == serial.StateConnected {
			dev, _ := s.Device()
			logger.Info().
				Str("path", dev.Path).
				Str("device", dev.Name).
				Str("ids", fmt.Sprintf("%s:%s", dev.VendorID, dev.ProductID)).
				Msg("link up")
		} else {
			ev := logger.Warn()
			if !since.IsZero() {
				ev = ev.Dur("uptime", time.Since(since).Round(time.Millisecond))
			}
			ev.Msg("link down")
		}
		since = time.Now()
	}

	if last == serial.StateConnected {
		report(last)
	} else {
		logger.Info().Msg("waiting for device")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if state := s.State(); state != last {
				last = state
				report(state)
			}
		}
	}
}
