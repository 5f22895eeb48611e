/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	serial "github.com/allbin/reliable-serial"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [port]",
	Short: "Reset a USB serial device",
	Long: `Perform a USB-level reset on a serial device. This can recover devices
that are hung or unresponsive without physically unplugging them.

The device is chosen by port path, by --serial, or by --vid and --pid.
It re-enumerates after the reset, which may change its port path.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo reliable-serial reset /dev/ttyUSB0
  sudo reliable-serial reset --serial NC7ILXW1
  sudo reliable-serial reset --vid 0403 --pid 6001`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both port path and --serial flag")
		}
		return cobra.MaximumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !serial.IsUSBResetAvailable() {
			return fmt.Errorf("%w: install with sudo apt-get install usbutils", serial.ErrUSBResetNotAvailable)
		}

		serialFlag, _ := cmd.Flags().GetString("serial")

		var err error
		if serialFlag != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Resetting USB device with serial: %s\n", serialFlag)
			err = serial.ResetUSBDeviceBySerial(serialFlag)
		} else {
			portPath, perr := resolvePort(args)
			if perr != nil {
				return perr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resetting USB device: %s\n", portPath)
			err = serial.ResetUSBDeviceContext(cmd.Context(), portPath)
		}

		if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
			return errorx.Decorate(err, "this device does not appear to be a USB device")
		}
		if err != nil {
			return errorx.Decorate(err, "reset device")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "USB device reset successfully")
		fmt.Fprintln(cmd.OutOrStdout(), "Device will re-enumerate (port path may change)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial", "s", "", "Reset device by serial number")
}
