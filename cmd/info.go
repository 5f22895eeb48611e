/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"

	serial "github.com/allbin/reliable-serial"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Without a port argument the device matching --vid and --pid is shown.

Examples:
  reliable-serial info /dev/ttyUSB0
  reliable-serial info --vid 0403 --pid 6001`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath, err := resolvePort(args)
		if err != nil {
			return err
		}

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			return errorx.Decorate(err, "get port info for %s", portPath)
		}

		printPortInfo(cmd.OutOrStdout(), info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// resolvePort returns the port given on the command line, or locates the
// device matching --vid and --pid
func resolvePort(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	vid, pid, err := deviceIDs()
	if err != nil {
		return "", fmt.Errorf("give a port or %w", err)
	}
	locator, err := locatorFromConfig()
	if err != nil {
		return "", err
	}
	dev, err := locator.Locate(vid, pid)
	if err != nil {
		return "", errorx.Decorate(err, "locate %s:%s", vid, pid)
	}
	return dev.Path, nil
}

func printPortInfo(w io.Writer, info *serial.PortInfo) {
	fmt.Fprintf(w, "Port Information: %s\n\n", info.Path)
	fmt.Fprintf(w, "  Name:        %s\n", info.Name)
	fmt.Fprintf(w, "  Description: %s\n", info.Description)

	if !info.IsUSB() {
		return
	}

	fmt.Fprintln(w, "\nUSB Device Information:")
	fields := []struct {
		label, value string
	}{
		{"Vendor ID:   ", info.VendorID},
		{"Product ID:  ", info.ProductID},
		{"Serial:      ", info.SerialNumber},
		{"Interface:   ", info.InterfaceNumber},
		{"Bus:         ", info.BusNumber},
		{"Device:      ", info.DeviceNumber},
		{"Manufacturer:", info.Manufacturer},
		{"Product:     ", info.Product},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(w, "  %s %s\n", f.label, f.value)
		}
	}
}
