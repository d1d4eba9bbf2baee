// Package connector wires the transport, settings, pairing and device layers
// into one owned session with a connect/disconnect lifecycle.
package connector

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arclens/glassctl/internal/device"
	"github.com/arclens/glassctl/internal/dispatch"
	"github.com/arclens/glassctl/internal/glass"
	"github.com/arclens/glassctl/internal/pairing"
	"github.com/arclens/glassctl/internal/protocol"
	"github.com/arclens/glassctl/internal/settings"
	"github.com/arclens/glassctl/internal/transport"
)

const (
	connectTimeout      = 20 * time.Second
	initialStateTimeout = 5 * time.Second
)

// Connector owns one session with the glasses. Lifecycle: verify or pair,
// then Connect opens both sides for command traffic.
type Connector struct {
	Pairing *pairing.Manager
	Device  *device.Manager

	settings   *settings.Settings
	transport  transport.Transport
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
	conns      map[glass.Side]transport.Conn
}

// New assembles a Connector around the given transport and settings.
func New(t transport.Transport, s *settings.Settings, log *slog.Logger) *Connector {
	c := &Connector{
		settings:   s,
		transport:  t,
		dispatcher: dispatch.New(0),
		log:        log,
		conns:      make(map[glass.Side]transport.Conn),
	}
	c.Pairing = pairing.New(t, s, log)
	c.Pairing.SetInitialStateFunc(c.queryInitialState)
	c.Device = device.New(c.dispatcher, log)
	c.Device.SetStatusNotifier(c)
	return c
}

// Connect establishes command connections to both sides. A missing pairing
// record triggers a full discovery+pairing pass first; any other verification
// failure is surfaced to the caller, who decides whether to re-pair.
func (c *Connector) Connect() error {
	if err := c.Pairing.VerifyPairing(); err != nil {
		if !errors.Is(err, glass.ErrConfigIncomplete) {
			return err
		}
		c.log.Info("no saved pairing, starting first-time pairing")
		if err := c.Pairing.PairGlasses(); err != nil {
			return err
		}
	}

	for _, side := range glass.Sides() {
		conn, err := c.transport.Connect(c.settings.Address(side), connectTimeout)
		if err != nil {
			c.Disconnect()
			return fmt.Errorf("%w: %s glass: %v", glass.ErrConnection, side, err)
		}
		c.conns[side] = conn
		c.Device.SetConn(side, conn)
	}

	c.log.Info("connected to both glasses")
	return nil
}

// Disconnect closes whichever side connections are open.
func (c *Connector) Disconnect() {
	for side, conn := range c.conns {
		if conn != nil {
			conn.Disconnect()
		}
		delete(c.conns, side)
	}
}

// RefreshStatus logs the current session snapshot. Invoked by the device
// manager after a confirmed silent-mode change.
func (c *Connector) RefreshStatus() {
	battery := c.Device.BatteryLevel()
	c.log.Info("status",
		"silent_mode", c.Device.SilentMode(),
		"battery_left", levelString(battery[glass.Left]),
		"battery_right", levelString(battery[glass.Right]),
	)
}

// queryInitialState is the best-effort post-pair state read: a short
// connection to the freshly paired side and one battery query.
func (c *Connector) queryInitialState(side glass.Side, address string) error {
	conn, err := c.transport.Connect(address, initialStateTimeout)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	resp, err := c.dispatcher.SendCommand(conn, protocol.BatteryQueryFrame(), true)
	if err != nil {
		return err
	}
	level, err := protocol.ParseBatteryResponse(resp)
	if err != nil {
		return err
	}
	c.Device.UpdateBatteryLevel(side, level)
	return nil
}

func levelString(level *int) string {
	if level == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d%%", *level)
}
