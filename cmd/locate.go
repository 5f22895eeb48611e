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

// locateCmd represents the locate command
var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find the device matching --vid and --pid",
	Long: `Print the port path and name of the first device whose USB vendor and
product ID match --vid and --pid. Nothing is opened.

Example usage:
  reliable-serial locate --vid 0403 --pid 6001
  reliable-serial locate --vid 2341 --pid 0043 --locator enumerator`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vid, pid, err := deviceIDs()
		if err != nil {
			return err
		}
		locator, err := locatorFromConfig()
		if err != nil {
			return err
		}

		dev, err := locator.Locate(vid, pid)
		if errors.Is(err, serial.ErrDeviceNotFound) {
			return fmt.Errorf("no USB device found at %s:%s", vid, pid)
		}
		if err != nil {
			return errorx.Decorate(err, "locate device")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", dev.Path, dev.Name)
		if dev.SerialNumber != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "serial\t%s\n", dev.SerialNumber)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
}
