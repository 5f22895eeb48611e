package serial

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Device identifies the serial device a Locator selected.
type Device struct {
	Path         string
	Name         string
	VendorID     string
	ProductID    string
	SerialNumber string
}

// Locator finds the attached device matching a USB vendor and product ID.
// Implementations must be safe for concurrent use and return
// ErrDeviceNotFound when nothing matches.
type Locator interface {
	Locate(vendorID, productID string) (Device, error)
}

// SysfsLocator matches devices using ListPorts and the sysfs USB attributes.
type SysfsLocator struct{}

// Locate implements Locator.
func (SysfsLocator) Locate(vendorID, productID string) (Device, error) {
	ports, err := ListPorts()
	if err != nil {
		return Device{}, fmt.Errorf("list ports: %w", err)
	}

	infos := make([]*PortInfo, 0, len(ports))
	for _, p := range ports {
		info, err := GetPortInfo(p)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}

	return matchDevice(infos, vendorID, productID)
}

// detailedPortsList is swapped out in tests.
var detailedPortsList = enumerator.GetDetailedPortsList

// EnumeratorLocator matches devices using go.bug.st/serial/enumerator. It
// works on every platform the enumerator supports but reports less
// metadata than SysfsLocator.
type EnumeratorLocator struct{}

// Locate implements Locator.
func (EnumeratorLocator) Locate(vendorID, productID string) (Device, error) {
	ports, err := detailedPortsList()
	if err != nil {
		return Device{}, fmt.Errorf("enumerator error: %w", err)
	}

	infos := make([]*PortInfo, 0, len(ports))
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		infos = append(infos, &PortInfo{
			Name:         p.Name,
			Path:         p.Name,
			VendorID:     p.VID,
			ProductID:    p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	return matchDevice(infos, vendorID, productID)
}

// matchDevice returns the first port whose IDs equal vendorID and productID.
func matchDevice(infos []*PortInfo, vendorID, productID string) (Device, error) {
	vid, pid := normalizeID(vendorID), normalizeID(productID)

	for _, info := range infos {
		if !info.IsUSB() {
			continue
		}
		if normalizeID(info.VendorID) != vid || normalizeID(info.ProductID) != pid {
			continue
		}
		return Device{
			Path:         info.Path,
			Name:         info.DisplayName(),
			VendorID:     vid,
			ProductID:    pid,
			SerialNumber: info.SerialNumber,
		}, nil
	}

	return Device{}, ErrDeviceNotFound
}

// normalizeID lowercases a hex USB ID, drops a 0x prefix and pads it to
// four digits so "0x403" and "0403" compare equal.
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.TrimPrefix(id, "0x")
	for len(id) < 4 {
		id = "0" + id
	}
	return id
}

// validID reports whether id is a 1-4 digit hex number, optionally 0x prefixed.
func validID(id string) bool {
	id = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
	if len(id) == 0 || len(id) > 4 {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
