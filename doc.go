// Package serial keeps a USB serial device connected across unplugs,
// resets and hangs.
//
// A Manager finds the device by USB vendor and product ID, opens it, and
// serializes every read, write and query behind a single lock. Any I/O
// fault drops the handle and starts a background reconnect loop that
// retries at a fixed interval until the device shows up again. An
// optional heartbeat queries the device periodically and forces a
// reconnect when the expected acknowledgment does not come back.
//
// # Basic Usage
//
//	m, err := serial.New("0403", "6001",
//	    serial.WithBaudRate(115200),
//	    serial.WithHeartbeat("loopback heartbeat"),
//	    serial.WithHeartbeatAck("loopback heartbeat"),
//	    serial.WithHeartbeatInterval(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	if err := m.Write([]byte("testdata\n")); err != nil {
//	    // not connected yet, or the device went away
//	}
//	line, err := m.ReadLine()
//	resp, err := m.Query("Knock knock")
//
// # Failure Reporting
//
// Operations never panic and never block on a missing device. Without an
// open handle they return ErrNotConnected and make sure a reconnect is
// pending. When I/O fails they return a *Fault describing the kind of
// failure:
//
//	var f *serial.Fault
//	if errors.As(err, &f) && f.Kind == serial.FaultTransport {
//	    // the handle was dropped, a reconnect is scheduled
//	}
//
// # Port Discovery
//
// List available serial ports and get USB device metadata:
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// SysfsLocator (the default) and EnumeratorLocator plug discovery into a
// Manager; NativeOpener (the default, Linux termios) and BugstOpener
// (go.bug.st/serial) open the device.
//
// # Default Configuration
//
//   - BaudRate: 115200, 8 data bits, no parity, 1 stop bit
//   - ReadTimeout: 200ms
//   - ReconnectDelay: 1s
//   - Heartbeat: disabled, 1s interval once enabled
//   - Query: "\n" terminator, 30ms response delay
package serial
