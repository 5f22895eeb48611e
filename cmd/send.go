/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data]",
	Short: "Send raw data to the device",
	Long: `Connect to the device matching --vid and --pid and write data to it.

Data can be provided as:
- Command line argument: send "Hello World"
- From stdin (pipe): echo "test data" | reliable-serial send

Example usage:
  reliable-serial send "Hello World" --vid 0403 --pid 6001
  reliable-serial send "AT+GMR" --newline
  reliable-serial send --hex "48656c6c6f"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		var data string
		if len(args) == 1 {
			data = args[0]
		} else {
			stat, err := os.Stdin.Stat()
			if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
				return fmt.Errorf("no data given and nothing piped on stdin")
			}
			stdinData, err := io.ReadAll(os.Stdin)
			if err != nil {
				return errorx.Decorate(err, "read stdin")
			}
			data = strings.TrimRight(string(stdinData), "\r\n")
		}

		if hexMode {
			processed, err := parseHexString(data)
			if err != nil {
				return errorx.Decorate(err, "invalid hex data")
			}
			data = processed
		}

		if addNewline && !hexMode {
			data += "\n"
		}

		m, err := connectManager(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Write([]byte(data)); err != nil {
			return errorx.Decorate(err, "send %d bytes", len(data))
		}

		successStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)
		infoStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

		dev, _ := m.Device()
		fmt.Fprintf(cmd.OutOrStdout(), "%s Sent %d bytes to %s\n", successStyle.Render("✓"), len(data), dev.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "%s Data: %s\n", infoStyle.Render("📋"), preview(data, 50))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
}

func parseHexString(hexStr string) (string, error) {
	// Remove common hex prefixes and whitespace
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr)%2 != 0 {
		return "", fmt.Errorf("hex string must have even length")
	}

	var result strings.Builder
	for i := 0; i < len(hexStr); i += 2 {
		hexByte := hexStr[i : i+2]
		var b byte
		if _, err := fmt.Sscanf(hexByte, "%x", &b); err != nil {
			return "", fmt.Errorf("invalid hex byte '%s': %v", hexByte, err)
		}
		result.WriteByte(b)
	}

	return result.String(), nil
}

// preview shortens data to max characters and replaces non-printable ones
func preview(data string, max int) string {
	if len(data) > max {
		data = data[:max] + "..."
	}
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, data)
}
