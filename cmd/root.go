/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	serial "github.com/allbin/reliable-serial"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "RSERIAL"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reliable-serial",
	Short: "Talk to a USB serial device that may come and go",
	Long: `reliable-serial finds a USB serial device by vendor and product ID,
keeps the connection alive across unplugs and resets, and exposes simple
write, read and query operations.

Settings can be given as flags, as RSERIAL_* environment variables
(RSERIAL_VID, RSERIAL_HEARTBEAT_INTERVAL, ...) or in a YAML config file:

  vid: "0403"
  pid: "6001"
  baud: 115200
  heartbeat: "loopback heartbeat"
  heartbeat-interval: 5s`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		logger, err := newLogger(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reliable-serial.yaml)")
	flags.String("vid", "", "USB vendor ID of the device (hex, e.g. 0403)")
	flags.String("pid", "", "USB product ID of the device (hex, e.g. 6001)")
	flags.IntP("baud", "b", serial.DefaultBaudRate, "Baud rate")
	flags.Int("data-bits", 8, "Data bits: 5, 6, 7, 8")
	flags.String("parity", "none", "Parity: none, odd, even")
	flags.Int("stop-bits", 1, "Stop bits: 1, 2")
	flags.Bool("sync-write", false, "Wait until written data has left the UART")
	flags.String("driver", "native", "Serial driver: native, bugst")
	flags.String("locator", "sysfs", "Device locator: sysfs, enumerator")
	flags.String("heartbeat", "", "Heartbeat phrase; enables the liveness monitor")
	flags.String("heartbeat-ack", "", "Expected heartbeat response (default: any response)")
	flags.Duration("heartbeat-interval", serial.DefaultHeartbeatInterval, "Heartbeat period")
	flags.Duration("reconnect-delay", serial.DefaultReconnectDelay, "Interval between reconnect attempts")
	flags.Int("usb-reset-after", 0, "Reset the USB device after this many failed opens (0 disables)")
	flags.Bool("hotplug", false, "Drop the connection as soon as the device node disappears")
	flags.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	flags.Duration("wait", 10*time.Second, "How long to wait for the device to connect")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".reliable-serial")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errorx.Decorate(err, "read config")
		}
	}
	return nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), errorx.Decorate(err, "parse log level")
	}

	return zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(lvl), nil
}
