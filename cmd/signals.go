/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/reliable-serial/internal/port"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals [port]",
	Short: "Display current modem signal states",
	Long: `Display the modem control lines of a port. DSR is the line the
connection manager probes before every operation; a read error here is what
the manager treats as an unplugged device.

Without a port argument the device matching --vid and --pid is used.

Examples:
  reliable-serial signals /dev/ttyUSB0
  reliable-serial signals --vid 0403 --pid 6001`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath, err := resolvePort(args)
		if err != nil {
			return err
		}

		p, err := port.Open(portPath)
		if err != nil {
			return errorx.Decorate(err, "open %s", portPath)
		}
		defer p.Close()

		signals, err := p.GetModemSignals()
		if err != nil {
			return errorx.Decorate(err, "read modem signals")
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Modem Signals for %s:\n\n", portPath)
		fmt.Fprintf(w, "  CTS (Clear To Send):       %s\n", formatSignalState(signals.CTS))
		fmt.Fprintf(w, "  DSR (Data Set Ready):      %s\n", formatSignalState(signals.DSR))
		fmt.Fprintf(w, "  RI  (Ring Indicator):      %s\n", formatSignalState(signals.RI))
		fmt.Fprintf(w, "  DCD (Data Carrier Detect): %s\n", formatSignalState(signals.DCD))
		fmt.Fprintf(w, "  RTS (Request To Send):     %s\n", formatSignalState(signals.RTS))
		fmt.Fprintf(w, "  DTR (Data Terminal Ready): %s\n", formatSignalState(signals.DTR))
		return nil
	},
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}
