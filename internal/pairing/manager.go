// Package pairing drives the discovery, pairing and verification workflow for
// the two glasses units. One discovery-or-pairing sequence runs at a time per
// process; verify and unpair rely on the caller's serial orchestration.
package pairing

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/arclens/glassctl/internal/glass"
	"github.com/arclens/glassctl/internal/settings"
	"github.com/arclens/glassctl/internal/transport"
)

const (
	// DefaultScanTimeout bounds a discovery scan.
	DefaultScanTimeout = 15 * time.Second

	// DefaultMaxAttempts caps connect+pair retries per side.
	DefaultMaxAttempts = 3

	cacheMaxAge    = 60 * time.Second
	connectTimeout = 20 * time.Second
	verifyTimeout  = 5 * time.Second
	retryDelay     = 2 * time.Second
	settleDelay    = 1 * time.Second
)

// DiscoveryResult maps each side to its best candidate from one scan. At most
// one entry per side is retained; the last matching advertisement wins.
type DiscoveryResult map[glass.Side]glass.Unit

// InitialStateFunc queries device state for one side right after it pairs.
// Failures are logged as warnings, never treated as pairing failures.
type InitialStateFunc func(side glass.Side, address string) error

// Manager owns the pairing workflow. All collaborators are injected; the
// discovery cache and its timestamp are the only internal state.
type Manager struct {
	transport    transport.Transport
	settings     *settings.Settings
	log          *slog.Logger
	initialState InitialStateFunc

	mu       sync.Mutex // discovery and pairing never run concurrently
	cache    DiscoveryResult
	lastScan time.Time

	sleep func(time.Duration)
	now   func() time.Time
}

// New returns a Manager using t for radio access and s for durable state.
func New(t transport.Transport, s *settings.Settings, log *slog.Logger) *Manager {
	return &Manager{
		transport: t,
		settings:  s,
		log:       log,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// SetInitialStateFunc installs the best-effort post-pair state query.
func (m *Manager) SetInitialStateFunc(f InitialStateFunc) {
	m.initialState = f
}

// DiscoverGlasses scans for up to timeout and classifies advertisements by
// the side markers in their names. A scan failure is non-fatal: the empty
// result comes back alongside an ErrDiscovery and the cache is left alone.
func (m *Manager) DiscoverGlasses(timeout time.Duration) (DiscoveryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discoverLocked(timeout)
}

func (m *Manager) discoverLocked(timeout time.Duration) (DiscoveryResult, error) {
	m.log.Info("starting glasses discovery")

	ads, err := m.transport.Scan(timeout)
	if err != nil {
		m.log.Error("discovery failed", "error", err)
		return DiscoveryResult{}, fmt.Errorf("%w: %v", glass.ErrDiscovery, err)
	}

	discovered := DiscoveryResult{}
	for _, ad := range ads {
		if ad.Name == "" {
			continue
		}
		switch {
		case strings.Contains(ad.Name, glass.Left.Marker()):
			discovered[glass.Left] = glass.Unit{Side: glass.Left, Address: ad.Address, Name: ad.Name, RSSI: ad.RSSI}
			m.log.Info("found left glass", "name", ad.Name, "address", ad.Address)
		case strings.Contains(ad.Name, glass.Right.Marker()):
			discovered[glass.Right] = glass.Unit{Side: glass.Right, Address: ad.Address, Name: ad.Name, RSSI: ad.RSSI}
			m.log.Info("found right glass", "name", ad.Name, "address", ad.Address)
		}
	}

	m.cache = discovered
	m.lastScan = m.now()
	return discovered, nil
}

// PairGlasses pairs with both discovered units, left first. The discovery
// cache is refreshed when empty or older than a minute. Addresses and names
// are saved before any handshake; paired flags only after each side's
// handshake succeeds.
func (m *Manager) PairGlasses() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.cache) == 0 || m.now().Sub(m.lastScan) > cacheMaxAge {
		if _, err := m.discoverLocked(DefaultScanTimeout); err != nil {
			// Non-fatal: the missing-side check below reports the failure.
			m.log.Warn("rescan before pairing failed", "error", err)
		}
	}

	left, okL := m.cache[glass.Left]
	right, okR := m.cache[glass.Right]
	if !okL || !okR {
		m.log.Error("could not find both glasses")
		return fmt.Errorf("%w: could not find both glasses", glass.ErrDiscovery)
	}

	m.settings.SetAddress(glass.Left, left.Address)
	m.settings.SetName(glass.Left, left.Name)
	m.settings.SetAddress(glass.Right, right.Address)
	m.settings.SetName(glass.Right, right.Name)
	if err := m.settings.Save(); err != nil {
		return fmt.Errorf("failed to save discovered addresses: %w", err)
	}

	if err := m.attemptPairing(left.Address, glass.Left, DefaultMaxAttempts); err != nil {
		return err
	}
	if err := m.attemptPairing(right.Address, glass.Right, DefaultMaxAttempts); err != nil {
		return err
	}

	m.log.Info("successfully paired with both glasses")
	return nil
}

// attemptPairing runs the connect+pair sequence for one side, retrying with a
// fixed delay up to maxAttempts times.
func (m *Manager) attemptPairing(address string, side glass.Side, maxAttempts int) error {
	m.log.Info("performing first-time pairing", "side", side)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := m.pairOnce(address, side)
		if err == nil {
			m.log.Info("glass paired", "side", side)
			return nil
		}
		lastErr = err
		m.log.Error("connection attempt failed", "side", side, "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			m.log.Info("retrying connection", "side", side)
			m.sleep(retryDelay)
		}
	}
	return fmt.Errorf("%w: pairing %s glass failed after %d attempts: %v",
		glass.ErrConnection, side, maxAttempts, lastErr)
}

func (m *Manager) pairOnce(address string, side glass.Side) error {
	conn, err := m.transport.Connect(address, connectTimeout)
	if err != nil {
		return err
	}
	m.log.Debug("connection established", "side", side)

	if err := conn.Pair(); err != nil {
		conn.Disconnect()
		return err
	}
	m.log.Debug("pairing successful", "side", side)

	// Durability before declaring success.
	m.settings.SetPaired(side, true)
	if err := m.settings.Save(); err != nil {
		conn.Disconnect()
		return err
	}

	// Disconnect and give the platform a moment to finalize the bond.
	conn.Disconnect()
	m.sleep(settleDelay)

	if m.initialState != nil {
		if err := m.initialState(side, address); err != nil {
			m.log.Warn("could not get initial state", "side", side, "error", err)
		}
	}
	return nil
}

// VerifyPairing checks a previously saved pairing. Pass one is a pure
// reachability probe per side. If either paired flag is still unset, pass two
// redoes the bonding handshake per side, persisting each flag as it lands.
func (m *Manager) VerifyPairing() error {
	m.log.Debug("verifying pairing")

	if !m.settings.HasAddresses() {
		m.log.Debug("no saved addresses found")
		return glass.ErrConfigIncomplete
	}

	for _, side := range glass.Sides() {
		if err := m.probe(side, false); err != nil {
			return err
		}
	}
	m.log.Info("pairing verification successful")

	if m.settings.Paired(glass.Left) && m.settings.Paired(glass.Right) {
		return nil
	}

	m.log.Info("first time connection detected, completing pairing for both sides")
	for _, side := range glass.Sides() {
		if err := m.probe(side, true); err != nil {
			return err
		}
		m.settings.SetPaired(side, true)
		if err := m.settings.Save(); err != nil {
			return err
		}
	}
	m.log.Info("pairing verification successful")
	return nil
}

// probe opens a short-timeout connection to one side and closes it again,
// optionally running the bonding handshake in between.
func (m *Manager) probe(side glass.Side, pair bool) error {
	addr := m.settings.Address(side)
	conn, err := m.transport.Connect(addr, verifyTimeout)
	if err != nil {
		m.log.Warn("could not verify glass pairing", "side", side, "error", err)
		return fmt.Errorf("%w: %s glass unreachable: %v", glass.ErrConnection, side, err)
	}
	if pair {
		if err := conn.Pair(); err != nil {
			conn.Disconnect()
			m.log.Warn("could not verify glass pairing", "side", side, "error", err)
			return fmt.Errorf("%w: %s glass pairing handshake: %v", glass.ErrConnection, side, err)
		}
	}
	conn.Disconnect()
	m.log.Debug("verified glass pairing", "side", side)
	return nil
}

// UnpairGlasses clears all saved per-side state. No transport-level unpair
// handshake is attempted; the underlying stack has none.
func (m *Manager) UnpairGlasses() error {
	m.settings.Clear()
	if err := m.settings.Save(); err != nil {
		m.log.Error("error unpairing", "error", err)
		return err
	}
	m.log.Info("unpaired from glasses")
	return nil
}
