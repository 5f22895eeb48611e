/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	serial "github.com/allbin/reliable-serial"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print lines received from the device until interrupted",
	Long: `Connect to the device matching --vid and --pid and print every line it
sends. When the device goes away the command waits for it to come back and
carries on, so it can be left running across unplugs and resets.

Example usage:
  reliable-serial listen --vid 0403 --pid 6001
  reliable-serial listen --vid 0403 --pid 6001 --raw`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawMode, _ := cmd.Flags().GetBool("raw")

		m, err := connectManager(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		return listenLines(cmd.Context(), m, cmd.OutOrStdout(), rawMode)
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Bool("raw", false, "Raw output mode: no timestamps")
}

// lineReader is the part of the manager listenLines needs
type lineReader interface {
	ReadLine() (string, error)
	WaitConnected(ctx context.Context) error
}

// listenLines copies lines from r to w until ctx is done
func listenLines(ctx context.Context, r lineReader, w io.Writer, raw bool) error {
	logger := zerolog.Ctx(ctx)
	timestampStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	for ctx.Err() == nil {
		line, err := r.ReadLine()
		switch {
		case errors.Is(err, serial.ErrManagerClosed):
			return nil
		case err != nil:
			logger.Warn().Err(err).Msg("link lost, waiting for device")
			if err := r.WaitConnected(ctx); err != nil {
				if errors.Is(err, serial.ErrManagerClosed) || ctx.Err() != nil {
					return nil
				}
				return err
			}
			logger.Info().Msg("link restored")
			continue
		case line == "":
			continue
		}

		if raw {
			fmt.Fprintln(w, line)
		} else {
			fmt.Fprintf(w, "%s %s\n", timestampStyle.Render(time.Now().Format("15:04:05.000")), line)
		}
	}
	return nil
}
