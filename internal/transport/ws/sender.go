package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// connSender adapts one gorilla connection to the registry.Sender contract.
// Writes serialize on a mutex because gorilla allows only one concurrent
// writer per connection.
type connSender struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newConnSender(conn *websocket.Conn) *connSender {
	return &connSender{conn: conn}
}

func (s *connSender) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	return s.conn.WriteJSON(v)
}

func (s *connSender) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *connSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
