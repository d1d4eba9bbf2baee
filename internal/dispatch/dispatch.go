// Package dispatch correlates an outgoing command frame with its response on
// an established connection, exposing a single synchronous request/response
// call. One request is in flight per connection at a time.
package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/arclens/glassctl/internal/config"
	"github.com/arclens/glassctl/internal/transport"
)

// DefaultResponseTimeout bounds the wait for a device response.
const DefaultResponseTimeout = 5 * time.Second

// Dispatcher serializes command traffic per connection. Responses arrive as
// notification frames; the first frame after a write is taken as the
// response to that write.
type Dispatcher struct {
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex // one in-flight request per connection
	conn     transport.Conn
	respChan chan []byte
}

// New returns a Dispatcher with the given response timeout. A zero timeout
// means DefaultResponseTimeout.
func New(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	return &Dispatcher{
		timeout:  timeout,
		sessions: make(map[string]*session),
	}
}

func (d *Dispatcher) session(conn transport.Conn) *session {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[conn.Address()]
	if !ok {
		s = &session{respChan: make(chan []byte, 1)}
		d.sessions[conn.Address()] = s
	}
	return s
}

// SendCommand writes frame to conn. With expectResponse it waits for the next
// notification frame and returns it; otherwise it returns immediately with a
// nil response.
func (d *Dispatcher) SendCommand(conn transport.Conn, frame []byte, expectResponse bool) ([]byte, error) {
	s := d.session(conn)
	s.mu.Lock()
	defer s.mu.Unlock()

	// The same address can reconnect (a probe connection during pairing is
	// closed before the session connection opens), so the subscription must
	// follow the Conn, not the address.
	if expectResponse && s.conn != conn {
		err := conn.Subscribe(func(buf []byte) {
			resp := make([]byte, len(buf))
			copy(resp, buf)
			select {
			case s.respChan <- resp:
			default:
			}
		})
		if err != nil {
			return nil, err
		}
		s.conn = conn
	}

	// Drain any stale response left over from a timed-out request.
	select {
	case <-s.respChan:
	default:
	}

	config.Debugf("sending command to %s: %X", conn.Address(), frame)
	if err := conn.WriteCommand(frame); err != nil {
		return nil, err
	}

	if !expectResponse {
		return nil, nil
	}

	select {
	case resp := <-s.respChan:
		config.Debugf("response from %s: %X", conn.Address(), resp)
		return resp, nil
	case <-time.After(d.timeout):
		return nil, fmt.Errorf("timeout waiting for response from %s", conn.Address())
	}
}
