package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilentModeFrame(t *testing.T) {
	assert.Equal(t, []byte{CmdSilentMode, ArgEnable}, SilentModeFrame(true))
	assert.Equal(t, []byte{CmdSilentMode, ArgDisable}, SilentModeFrame(false))
}

func TestIsAck(t *testing.T) {
	assert.True(t, IsAck([]byte{CmdSilentMode, CatCommandAck}))
	assert.False(t, IsAck([]byte{CmdSilentMode, CatCommandErr}))
	assert.False(t, IsAck([]byte{CmdSilentMode}))
	assert.False(t, IsAck(nil))
}

func TestResponseCategory(t *testing.T) {
	cat, err := ResponseCategory([]byte{CmdSilentMode, CatCommandAck, 0x00})
	require.NoError(t, err)
	assert.Equal(t, byte(CatCommandAck), cat)

	_, err = ResponseCategory([]byte{CmdSilentMode})
	assert.Error(t, err)
}

func TestParseBatteryResponse(t *testing.T) {
	level, err := ParseBatteryResponse([]byte{CmdBatteryQuery, CatCommandAck, 87})
	require.NoError(t, err)
	assert.Equal(t, 87, level)
}

func TestParseBatteryResponseRejectsBadFrames(t *testing.T) {
	_, err := ParseBatteryResponse([]byte{CmdBatteryQuery, CatCommandAck})
	assert.Error(t, err, "short frame")

	_, err = ParseBatteryResponse([]byte{CmdSilentMode, CatCommandAck, 50})
	assert.Error(t, err, "wrong opcode")

	_, err = ParseBatteryResponse([]byte{CmdBatteryQuery, CatCommandErr, 50})
	assert.Error(t, err, "not acknowledged")

	_, err = ParseBatteryResponse([]byte{CmdBatteryQuery, CatCommandAck, 130})
	assert.Error(t, err, "level out of range")
}
