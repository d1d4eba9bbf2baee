package transport

// The glasses expose a Nordic UART style service on both sides. Commands are
// written to the RX characteristic and responses arrive as notifications on
// the TX characteristic.
const (
	UARTServiceUUID = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"
	UARTWriteUUID   = "6E400002-B5A3-F393-E0A9-E50E24DCCA9E" // Write - commands to device
	UARTNotifyUUID  = "6E400003-B5A3-F393-E0A9-E50E24DCCA9E" // Notify - responses from device
)

// BlueZ D-Bus names for the bonding handshake, which tinygo's GATT API does
// not cover.
const (
	bluezBusName          = "org.bluez"
	bluezDeviceInterface  = "org.bluez.Device1"
	bluezAdapterPath      = "/org/bluez/hci0"
	bluezErrAlreadyExists = "org.bluez.Error.AlreadyExists"
)
