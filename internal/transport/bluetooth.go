package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"tinygo.org/x/bluetooth"

	"github.com/arclens/glassctl/internal/config"
)

// Bluetooth is the real Transport backed by the platform BLE stack. GATT
// traffic goes through tinygo's bluetooth adapter; the bonding handshake goes
// through BlueZ on the system bus.
type Bluetooth struct {
	adapter *bluetooth.Adapter

	enableOnce sync.Once
	enableErr  error
	bus        *dbus.Conn
}

// NewBluetooth returns a Transport on the default adapter. The adapter is
// enabled lazily on first use.
func NewBluetooth() *Bluetooth {
	return &Bluetooth{adapter: bluetooth.DefaultAdapter}
}

func (b *Bluetooth) enable() error {
	b.enableOnce.Do(func() {
		if err := b.adapter.Enable(); err != nil {
			b.enableErr = fmt.Errorf("failed to enable bluetooth: %w", err)
			return
		}
		bus, err := dbus.SystemBus()
		if err != nil {
			b.enableErr = fmt.Errorf("failed to connect to system D-Bus: %w", err)
			return
		}
		b.bus = bus
	})
	return b.enableErr
}

// Scan observes advertising devices for up to timeout. Repeated
// advertisements from the same address overwrite earlier ones, so the
// returned slice holds the last observation per device.
func (b *Bluetooth) Scan(timeout time.Duration) ([]Advertisement, error) {
	if err := b.enable(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	seen := make(map[string]Advertisement)
	order := []string{}

	timer := time.AfterFunc(timeout, func() {
		b.adapter.StopScan()
	})
	defer timer.Stop()

	err := b.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		addr := result.Address.String()
		if config.Verbose && name != "" {
			config.Debugf("scan: '%s' (%s) rssi=%d", name, addr, result.RSSI)
		}

		mu.Lock()
		if _, ok := seen[addr]; !ok {
			order = append(order, addr)
		}
		seen[addr] = Advertisement{Name: name, Address: addr, RSSI: result.RSSI}
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	results := make([]Advertisement, 0, len(order))
	for _, addr := range order {
		results = append(results, seen[addr])
	}
	return results, nil
}

// Connect establishes a connection to address with a bounded timeout.
func (b *Bluetooth) Connect(address string, timeout time.Duration) (Conn, error) {
	if err := b.enable(); err != nil {
		return nil, err
	}

	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	addr := bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}

	device, err := b.adapter.Connect(addr, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	return &bleConn{
		bus:     b.bus,
		device:  device,
		address: address,
		up:      true,
	}, nil
}

// bleConn is one live connection. The UART characteristics are discovered
// lazily: a bare reachability probe (connect then disconnect) never touches
// GATT discovery.
type bleConn struct {
	bus     *dbus.Conn
	device  bluetooth.Device
	address string

	mu         sync.Mutex
	up         bool
	writeChar  *bluetooth.DeviceCharacteristic
	notifyChar *bluetooth.DeviceCharacteristic
}

func (c *bleConn) Address() string { return c.address }

func (c *bleConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *bleConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.up {
		return nil
	}
	c.up = false
	return c.device.Disconnect()
}

// Pair runs the BlueZ bonding handshake for this device. An already bonded
// device reports AlreadyExists, which counts as success.
func (c *bleConn) Pair() error {
	obj := c.bus.Object(bluezBusName, devicePath(c.address))

	call := obj.Call(bluezDeviceInterface+".Pair", 0)
	if call.Err != nil {
		var dErr dbus.Error
		if errors.As(call.Err, &dErr) && dErr.Name == bluezErrAlreadyExists {
			config.Debugf("device %s already bonded", c.address)
			return nil
		}
		return fmt.Errorf("pairing failed for %s: %w", c.address, call.Err)
	}

	// Confirm the Paired property actually flipped.
	variant, err := obj.GetProperty(bluezDeviceInterface + ".Paired")
	if err != nil {
		config.Debugf("could not read Paired property for %s: %v", c.address, err)
		return nil
	}
	if paired, ok := variant.Value().(bool); ok && !paired {
		return fmt.Errorf("device %s reports unpaired after handshake", c.address)
	}
	return nil
}

func (c *bleConn) WriteCommand(frame []byte) error {
	if err := c.ensureUART(); err != nil {
		return err
	}
	if _, err := c.writeChar.WriteWithoutResponse(frame); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

func (c *bleConn) Subscribe(handler func([]byte)) error {
	if err := c.ensureUART(); err != nil {
		return err
	}
	if err := c.notifyChar.EnableNotifications(handler); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	// Let the subscription settle before the first write.
	time.Sleep(100 * time.Millisecond)
	return nil
}

// ensureUART discovers the UART service characteristics on first use.
func (c *bleConn) ensureUART() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.up {
		return fmt.Errorf("connection to %s is closed", c.address)
	}
	if c.writeChar != nil && c.notifyChar != nil {
		return nil
	}

	config.Debugf("discovering services on %s...", c.address)
	services, err := c.device.DiscoverServices(nil)
	if err != nil {
		return fmt.Errorf("failed to discover services: %w", err)
	}

	var uart *bluetooth.DeviceService
	for i := range services {
		if strings.EqualFold(services[i].UUID().String(), UARTServiceUUID) {
			uart = &services[i]
			break
		}
	}
	if uart == nil {
		return fmt.Errorf("UART service not found on %s", c.address)
	}

	chars, err := uart.DiscoverCharacteristics(nil)
	if err != nil {
		return fmt.Errorf("failed to discover characteristics: %w", err)
	}
	for i := range chars {
		uuidStr := chars[i].UUID().String()
		config.Debugf("found characteristic: %s", uuidStr)
		if strings.EqualFold(uuidStr, UARTWriteUUID) {
			c.writeChar = &chars[i]
		}
		if strings.EqualFold(uuidStr, UARTNotifyUUID) {
			c.notifyChar = &chars[i]
		}
	}
	if c.writeChar == nil {
		return fmt.Errorf("write characteristic not found on %s", c.address)
	}
	if c.notifyChar == nil {
		return fmt.Errorf("notify characteristic not found on %s", c.address)
	}
	return nil
}

// devicePath maps a MAC address to its BlueZ object path
// (AA:BB:CC:DD:EE:FF -> /org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF).
func devicePath(address string) dbus.ObjectPath {
	formatted := strings.ReplaceAll(strings.ToUpper(address), ":", "_")
	return dbus.ObjectPath(bluezAdapterPath + "/dev_" + formatted)
}
