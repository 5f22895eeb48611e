/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	serial "github.com/allbin/reliable-serial"
	"github.com/charmbracelet/lipgloss"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// portEntry is one row of the list output
type portEntry struct {
	Path         string `yaml:"path"`
	Type         string `yaml:"type"`
	Description  string `yaml:"description"`
	VendorID     string `yaml:"vid,omitempty"`
	ProductID    string `yaml:"pid,omitempty"`
	SerialNumber string `yaml:"serial,omitempty"`
	Name         string `yaml:"name,omitempty"`
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system with their USB metadata.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)

The VID and PID columns are the values to pass to --vid and --pid.

Example usage:
  reliable-serial list
  reliable-serial list --usb -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usbOnly, _ := cmd.Flags().GetBool("usb")
		output, _ := cmd.Flags().GetString("output")

		ports, err := serial.ListPorts()
		if err != nil {
			return errorx.Decorate(err, "list ports")
		}

		entries := collectPorts(ports, usbOnly)

		switch strings.ToLower(output) {
		case "table":
			renderTable(cmd.OutOrStdout(), entries)
			return nil
		case "yaml":
			return renderYAML(cmd.OutOrStdout(), entries)
		case "plain":
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), e.Path)
			}
			return nil
		default:
			return fmt.Errorf("unknown output format %q (want table, yaml or plain)", output)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("usb", false, "Only list USB devices")
	listCmd.Flags().StringP("output", "o", "table", "Output format: table, yaml, plain")
}

// collectPorts gathers the metadata of each port, optionally keeping USB devices only
func collectPorts(ports []string, usbOnly bool) []portEntry {
	entries := make([]portEntry, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			continue
		}
		if usbOnly && !info.IsUSB() {
			continue
		}

		e := portEntry{
			Path:         info.Path,
			Type:         getPortType(info.Name),
			Description:  info.Description,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			SerialNumber: info.SerialNumber,
		}
		if info.IsUSB() {
			e.Name = info.DisplayName()
		}
		entries = append(entries, e)
	}
	return entries
}

// renderTable renders the port list in a styled static table format
func renderTable(w io.Writer, entries []portEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No serial ports found")
		return
	}

	fmt.Fprintf(w, "Found %d serial port(s):\n\n", len(entries))

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	format := "%-15s %-16s %-10s %-14s %s"
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf(format, "Port", "Type", "VID:PID", "Serial", "Device")))

	for _, e := range entries {
		ids := "-"
		if e.VendorID != "" {
			ids = e.VendorID + ":" + e.ProductID
		}
		name := e.Name
		if name == "" {
			name = e.Description
		}
		row := fmt.Sprintf(format, strings.TrimPrefix(e.Path, "/dev/"), e.Type, ids, orDash(e.SerialNumber), name)
		fmt.Fprintln(w, cellStyle.Render(row))
	}
}

func renderYAML(w io.Writer, entries []portEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return errorx.Decorate(err, "encode yaml")
	}
	return enc.Close()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
