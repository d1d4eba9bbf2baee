package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConn responds to writes synchronously through the subscribed
// notification handler.
type scriptedConn struct {
	address        string
	handler        func([]byte)
	writes         [][]byte
	respond        func(frame []byte) []byte
	writeErr       error
	subscribeErr   error
	subscribeCalls int
}

func (c *scriptedConn) Address() string   { return c.address }
func (c *scriptedConn) Pair() error       { return nil }
func (c *scriptedConn) Disconnect() error { return nil }
func (c *scriptedConn) IsConnected() bool { return true }

func (c *scriptedConn) Subscribe(handler func([]byte)) error {
	c.subscribeCalls++
	if c.subscribeErr != nil {
		return c.subscribeErr
	}
	c.handler = handler
	return nil
}

func (c *scriptedConn) WriteCommand(frame []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, frame)
	if c.respond != nil && c.handler != nil {
		c.handler(c.respond(frame))
	}
	return nil
}

func TestSendCommandReturnsResponse(t *testing.T) {
	conn := &scriptedConn{address: "AA"}
	conn.respond = func(frame []byte) []byte {
		return []byte{frame[0], 0xC9}
	}
	d := New(time.Second)

	resp, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0xC9}, resp)
	require.Len(t, conn.writes, 1)
	assert.Equal(t, []byte{0x03, 0x01}, conn.writes[0])
}

func TestSendCommandNoResponseExpected(t *testing.T) {
	conn := &scriptedConn{address: "AA"}
	d := New(time.Second)

	resp, err := d.SendCommand(conn, []byte{0x25}, false)

	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Zero(t, conn.subscribeCalls, "fire-and-forget never subscribes")
	assert.Len(t, conn.writes, 1)
}

func TestSendCommandTimeout(t *testing.T) {
	conn := &scriptedConn{address: "AA"}
	d := New(20 * time.Millisecond)

	_, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)

	assert.Error(t, err)
}

func TestSendCommandDrainsStaleResponse(t *testing.T) {
	conn := &scriptedConn{address: "AA"}
	d := New(20 * time.Millisecond)

	// First request times out; its response arrives late and sits buffered.
	_, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)
	require.Error(t, err)
	conn.handler([]byte{0x03, 0xFF})

	conn.respond = func(frame []byte) []byte {
		return []byte{frame[0], 0xC9}
	}
	resp, err := d.SendCommand(conn, []byte{0x2C, 0x01}, true)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x2C, 0xC9}, resp, "stale response must not satisfy a new request")
}

func TestSendCommandWriteError(t *testing.T) {
	conn := &scriptedConn{address: "AA", writeErr: errors.New("gatt write failed")}
	d := New(time.Second)

	_, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)

	assert.Error(t, err)
}

func TestSendCommandSubscribeError(t *testing.T) {
	conn := &scriptedConn{address: "AA", subscribeErr: errors.New("notify unsupported")}
	d := New(time.Second)

	_, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)

	assert.Error(t, err)
	assert.Empty(t, conn.writes, "no write without a response channel")
}

func TestSubscribeOncePerConnection(t *testing.T) {
	conn := &scriptedConn{address: "AA"}
	conn.respond = func(frame []byte) []byte { return []byte{frame[0], 0xC9} }
	d := New(time.Second)

	_, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)
	require.NoError(t, err)
	_, err = d.SendCommand(conn, []byte{0x03, 0x00}, true)
	require.NoError(t, err)

	assert.Equal(t, 1, conn.subscribeCalls)
}

func TestResubscribesOnNewConnectionToSameAddress(t *testing.T) {
	respond := func(frame []byte) []byte { return []byte{frame[0], 0xC9} }
	first := &scriptedConn{address: "AA", respond: respond}
	d := New(50 * time.Millisecond)

	_, err := d.SendCommand(first, []byte{0x2C, 0x01}, true)
	require.NoError(t, err)

	// Same address, fresh connection. The old subscription died with the old
	// connection, so the dispatcher must subscribe again.
	second := &scriptedConn{address: "AA", respond: respond}
	resp, err := d.SendCommand(second, []byte{0x03, 0x01}, true)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0xC9}, resp)
	assert.Equal(t, 1, second.subscribeCalls)
}

func TestResponseBufferIsCopied(t *testing.T) {
	shared := []byte{0x03, 0xC9}
	conn := &scriptedConn{address: "AA"}
	conn.respond = func([]byte) []byte { return shared }
	d := New(time.Second)

	resp, err := d.SendCommand(conn, []byte{0x03, 0x01}, true)
	require.NoError(t, err)

	shared[1] = 0x00
	assert.Equal(t, []byte{0x03, 0xC9}, resp, "notification buffer may be reused by the stack")
}
