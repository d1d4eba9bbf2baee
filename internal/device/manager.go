// Package device holds device-wide session state (silent mode, per-side
// battery readings) and issues the commands that mutate device behavior.
package device

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/arclens/glassctl/internal/glass"
	"github.com/arclens/glassctl/internal/protocol"
	"github.com/arclens/glassctl/internal/transport"
)

// Dispatcher correlates a command frame with its response on a connection.
type Dispatcher interface {
	SendCommand(conn transport.Conn, frame []byte, expectResponse bool) ([]byte, error)
}

// StatusNotifier is poked after a confirmed silent-mode change so the owner
// can refresh whatever status surface it maintains.
type StatusNotifier interface {
	RefreshStatus()
}

// Manager is the device session state holder. The battery map is mutated from
// transport telemetry callbacks, so access is guarded even though command
// traffic itself is caller-serialized.
type Manager struct {
	dispatcher Dispatcher
	notifier   StatusNotifier
	log        *slog.Logger

	mu         sync.Mutex
	silentMode bool
	battery    map[glass.Side]*int
	conns      map[glass.Side]transport.Conn
}

// New returns a Manager sending commands through d.
func New(d Dispatcher, log *slog.Logger) *Manager {
	return &Manager{
		dispatcher: d,
		log:        log,
		battery:    map[glass.Side]*int{glass.Left: nil, glass.Right: nil},
		conns:      make(map[glass.Side]transport.Conn),
	}
}

// SetStatusNotifier installs the refresh hook. Optional.
func (m *Manager) SetStatusNotifier(n StatusNotifier) {
	m.notifier = n
}

// SetConn binds the live connection for one side.
func (m *Manager) SetConn(side glass.Side, conn transport.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[side] = conn
}

func (m *Manager) conn(side glass.Side) transport.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns[side]
}

// SilentMode returns the current silent mode state.
func (m *Manager) SilentMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.silentMode
}

// SetSilentMode toggles silent mode on the device. Setting the current state
// again is a no-op success. The command goes to the right side only; state
// changes locally only after the device acknowledges.
func (m *Manager) SetSilentMode(enabled bool) error {
	m.mu.Lock()
	current := m.silentMode
	conn := m.conns[glass.Right]
	m.mu.Unlock()

	if enabled == current {
		return nil
	}
	if conn == nil {
		return fmt.Errorf("%w: right glass not connected", glass.ErrConnection)
	}

	resp, err := m.dispatcher.SendCommand(conn, protocol.SilentModeFrame(enabled), true)
	if err != nil {
		m.log.Error("error setting silent mode", "error", err)
		return fmt.Errorf("%w: %v", glass.ErrConnection, err)
	}

	if !protocol.IsAck(resp) {
		m.log.Warn("failed to set silent mode: unexpected response", "response", responseCode(resp))
		return fmt.Errorf("%w: silent mode response %s", glass.ErrProtocol, responseCode(resp))
	}

	m.mu.Lock()
	m.silentMode = enabled
	m.mu.Unlock()

	m.log.Info("silent mode changed", "enabled", enabled)
	if m.notifier != nil {
		m.notifier.RefreshStatus()
	}
	return nil
}

// BatteryLevel returns a copy of the per-side battery readings. A nil entry
// means no reading has arrived for that side yet.
func (m *Manager) BatteryLevel() map[glass.Side]*int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[glass.Side]*int, len(m.battery))
	for side, level := range m.battery {
		if level == nil {
			out[side] = nil
			continue
		}
		v := *level
		out[side] = &v
	}
	return out
}

// UpdateBatteryLevel records a battery reading for one side. Readings for
// unrecognized sides are dropped without error; the transport layer's
// telemetry callbacks occasionally deliver junk side labels.
func (m *Manager) UpdateBatteryLevel(side glass.Side, level int) {
	if !side.Valid() {
		return
	}
	m.mu.Lock()
	v := level
	m.battery[side] = &v
	m.mu.Unlock()
	m.log.Debug("battery level updated", "side", side, "level", level)
}

// RefreshBatteryLevels queries each connected side for its battery level.
// Per-side failures are logged and skipped; the call only fails when neither
// side has a connection to ask.
func (m *Manager) RefreshBatteryLevels() error {
	asked := 0
	for _, side := range glass.Sides() {
		conn := m.conn(side)
		if conn == nil {
			m.log.Debug("skipping battery query, side not connected", "side", side)
			continue
		}
		asked++

		resp, err := m.dispatcher.SendCommand(conn, protocol.BatteryQueryFrame(), true)
		if err != nil {
			m.log.Warn("battery query failed", "side", side, "error", err)
			continue
		}
		level, err := protocol.ParseBatteryResponse(resp)
		if err != nil {
			m.log.Warn("bad battery response", "side", side, "error", err)
			continue
		}
		m.UpdateBatteryLevel(side, level)
	}
	if asked == 0 {
		return fmt.Errorf("%w: no glass connected", glass.ErrConnection)
	}
	return nil
}

func responseCode(resp []byte) string {
	if len(resp) < 2 {
		return "None"
	}
	return fmt.Sprintf("0x%02X", resp[1])
}
