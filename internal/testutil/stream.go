package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
)

// StreamServer is an httptest websocket endpoint. Each accepted connection is
// handed to the handler; the connection is closed when the handler returns.
type StreamServer struct {
	*httptest.Server
	accepted atomic.Int32
}

// NewStreamServer starts a websocket test server and registers its cleanup.
func NewStreamServer(t *testing.T, handler func(conn *websocket.Conn)) *StreamServer {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s := &StreamServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.accepted.Add(1)
		handler(conn)
	}))
	t.Cleanup(s.Close)
	return s
}

// WSURL returns the ws:// address of the server.
func (s *StreamServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// Accepted returns how many connections were upgraded.
func (s *StreamServer) Accepted() int {
	return int(s.accepted.Load())
}

// DrainUntilClose reads until the peer closes, answering the close handshake.
func DrainUntilClose(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WriteText sends raw text frames in order, stopping at the first error.
func WriteText(conn *websocket.Conn, frames ...string) error {
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			return err
		}
	}
	return nil
}
