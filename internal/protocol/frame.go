package protocol

import "fmt"

// SilentModeFrame builds the two-byte silent mode command.
func SilentModeFrame(enabled bool) []byte {
	arg := byte(ArgDisable)
	if enabled {
		arg = ArgEnable
	}
	return []byte{CmdSilentMode, arg}
}

// BatteryQueryFrame builds the battery level query command.
func BatteryQueryFrame() []byte {
	return []byte{CmdBatteryQuery, ArgEnable}
}

// IsAck reports whether a response frame is a command acknowledgement.
// The device echoes the opcode in byte 0 and puts the event category in byte 1.
func IsAck(resp []byte) bool {
	return len(resp) >= 2 && resp[1] == CatCommandAck
}

// ResponseCategory returns the event category byte of a response, or an error
// for frames too short to carry one.
func ResponseCategory(resp []byte) (byte, error) {
	if len(resp) < 2 {
		return 0, fmt.Errorf("response too short: %d bytes", len(resp))
	}
	return resp[1], nil
}

// ParseBatteryResponse extracts the battery percentage from a battery query
// response. Layout: opcode, category, level (0-100).
func ParseBatteryResponse(resp []byte) (int, error) {
	if len(resp) < 3 {
		return 0, fmt.Errorf("battery response too short: %d bytes", len(resp))
	}
	if resp[0] != CmdBatteryQuery {
		return 0, fmt.Errorf("unexpected opcode 0x%02X", resp[0])
	}
	if resp[1] != CatCommandAck {
		return 0, fmt.Errorf("battery query not acknowledged (category 0x%02X)", resp[1])
	}
	level := int(resp[2])
	if level > 100 {
		return 0, fmt.Errorf("battery level out of range: %d", level)
	}
	return level, nil
}
