// Package transport abstracts the BLE link: scanning for advertising devices,
// connecting to one address, the bonding handshake, and raw command frames on
// an established connection. The pairing and device layers consume only the
// interfaces here; the concrete implementation lives in bluetooth.go.
package transport

import "time"

// Advertisement is one device seen during a scan.
type Advertisement struct {
	Name    string
	Address string
	RSSI    int16
}

// Conn is an established connection to one physical unit.
type Conn interface {
	// Address returns the transport-level identifier this connection targets.
	Address() string

	// Pair performs the radio-stack bonding handshake. Pairing an already
	// bonded device succeeds.
	Pair() error

	// Disconnect closes the connection. Safe to call more than once.
	Disconnect() error

	// IsConnected reports whether the link is still up.
	IsConnected() bool

	// WriteCommand sends a raw command frame to the device.
	WriteCommand(frame []byte) error

	// Subscribe registers a handler for frames the device pushes back.
	// Only one handler is active at a time; a second call replaces the first.
	Subscribe(handler func(frame []byte)) error
}

// Transport opens connections and scans the radio medium.
type Transport interface {
	// Scan observes advertising devices for up to timeout and returns
	// everything seen. Duplicate advertisements from one address collapse to
	// the most recently observed one.
	Scan(timeout time.Duration) ([]Advertisement, error)

	// Connect establishes a connection to address, failing after timeout.
	Connect(address string, timeout time.Duration) (Conn, error)
}
