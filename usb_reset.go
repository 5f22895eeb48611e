package serial

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// usbSettleTime is how long a reset device takes to re-enumerate
const usbSettleTime = 2 * time.Second

// resetUSBDevice is swapped out in tests.
var resetUSBDevice = ResetUSBDeviceContext

// ResetUSBDevice performs a USB-level reset of the device
// This can recover hardware that is in a hung/unresponsive state
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
func ResetUSBDevice(portPath string) error {
	return ResetUSBDeviceContext(context.Background(), portPath)
}

// ResetUSBDeviceContext is ResetUSBDevice with cancellation of the reset
// command and of the wait for re-enumeration.
func ResetUSBDeviceContext(ctx context.Context, portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	usbPath, err := usbBusPath(info.BusNumber, info.DeviceNumber)
	if err != nil {
		return err
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	cmd := exec.CommandContext(ctx, "usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	timer := time.NewTimer(usbSettleTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// usbBusPath formats bus and device numbers the way usbreset expects (BBB/DDD)
func usbBusPath(bus, device string) (string, error) {
	b, err := strconv.Atoi(bus)
	if err != nil {
		return "", ErrUSBInfoNotAvailable
	}
	d, err := strconv.Atoi(device)
	if err != nil {
		return "", ErrUSBInfoNotAvailable
	}
	return fmt.Sprintf("%03d/%03d", b, d), nil
}

// ResetUSBDeviceBySerial resets a USB device by its serial number
// Useful when device paths change after reboot or when multiple devices are connected
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
