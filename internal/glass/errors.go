package glass

import "errors"

// Error kinds for the connector. Lower-level failures are wrapped in one of
// these at each public operation boundary so callers can branch with
// errors.Is without inspecting transport internals.
var (
	// ErrDiscovery is a scan failure. Non-fatal: discovery returns an empty
	// result alongside it and the caller retries.
	ErrDiscovery = errors.New("discovery failed")

	// ErrConnection is a timeout or transport rejection during connect or
	// the bonding handshake.
	ErrConnection = errors.New("connection failed")

	// ErrProtocol is an unexpected or malformed command response. State is
	// never mutated on this path.
	ErrProtocol = errors.New("unexpected device response")

	// ErrConfigIncomplete means saved addresses are missing; verification
	// short-circuits without attempting a connection.
	ErrConfigIncomplete = errors.New("missing saved addresses")
)
