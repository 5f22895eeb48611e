package serial

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// startHotplug watches the device directory so an unplug is noticed
// without waiting for the next I/O call.
func (m *Manager) startHotplug() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(devDir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", devDir, err)
	}

	if !m.spawn(func() { m.watchHotplug(w) }) {
		w.Close()
	}
	return nil
}

func (m *Manager) watchHotplug(w *fsnotify.Watcher) {
	defer w.Close()

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Remove) {
				m.deviceRemoved(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.log.Warn().Err(err).Msg("hotplug watcher error")
		}
	}
}

// deviceRemoved treats removal of the open device node as a transport fault
func (m *Manager) deviceRemoved(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.conn.device.Path != path {
		return
	}
	m.faultLocked("hotplug", FaultTransport, fmt.Errorf("%s removed", path))
}
