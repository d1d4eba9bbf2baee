package protocol

// Command opcodes (first byte of a command frame).
const (
	CmdSilentMode   = 0x03
	CmdBatteryQuery = 0x2C
	CmdHeartbeat    = 0x25
)

// Event categories (second byte of a response frame).
const (
	CatCommandAck = 0xC9
	CatCommandErr = 0xCA
)

// Argument bytes.
const (
	ArgEnable  = 0x01
	ArgDisable = 0x00
)
