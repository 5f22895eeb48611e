/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	serial "github.com/allbin/reliable-serial"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <command>",
	Short: "Send a command and print the device's one-line response",
	Long: `Connect to the device, send the command followed by the line terminator,
wait for the response delay and print the line the device answered with.

Input is flushed before and after the exchange so stale data never leaks
into the response.

Example usage:
  reliable-serial query "Knock knock" --vid 0403 --pid 6001
  reliable-serial query "AT+GMR" --eol '\r\n' --delay 100ms`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eol, _ := cmd.Flags().GetString("eol")
		delay, _ := cmd.Flags().GetDuration("delay")

		m, err := connectManager(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		resp, err := m.Query(args[0],
			serial.WithQueryEOL(unescape(eol)),
			serial.WithResponseDelay(delay),
		)
		if err != nil {
			return errorx.Decorate(err, "query %q", args[0])
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().String("eol", serial.DefaultEOL, `Line terminator appended to the command (escapes like \r\n allowed)`)
	queryCmd.Flags().Duration("delay", serial.DefaultQueryDelay, "Time to wait for the response")
}
