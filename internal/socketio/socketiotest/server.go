// Package socketiotest runs an in-process Socket.IO server for tests.
package socketiotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const acceptTimeout = 5 * time.Second

// Server accepts websocket clients and completes the Engine.IO open and
// Socket.IO connect handshakes for them.
type Server struct {
	*httptest.Server

	// RejectConnect, when non-empty, answers the connect packet with a
	// CONNECT_ERROR carrying this message.
	RejectConnect string
	// PingInterval is announced in the open packet, in milliseconds.
	PingInterval int

	mu      sync.Mutex
	queries []string
	conns   chan *Conn
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{PingInterval: 25000, conns: make(chan *Conn, 8)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/socket.io/" {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.RawQuery)
	s.mu.Unlock()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	open := fmt.Sprintf(`0{"sid":"eio-test","upgrades":[],"pingInterval":%d,"pingTimeout":20000,"maxPayload":1000000}`, s.PingInterval)
	if err := ws.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
		_ = ws.Close()
		return
	}
	_, msg, err := ws.ReadMessage()
	if err != nil || string(msg) != "40" {
		_ = ws.Close()
		return
	}
	if s.RejectConnect != "" {
		body, _ := json.Marshal(map[string]string{"message": s.RejectConnect})
		_ = ws.WriteMessage(websocket.TextMessage, append([]byte("44"), body...))
		_ = ws.Close()
		return
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"sio-test"}`)); err != nil {
		_ = ws.Close()
		return
	}
	s.conns <- &Conn{ws: ws}
}

// Queries returns the raw query strings of all upgrade requests.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Accept waits for the next connected client.
func (s *Server) Accept(t testing.TB) *Conn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(acceptTimeout):
		t.Fatalf("no client connected within %v", acceptTimeout)
		return nil
	}
}

// Conn is the server side of one connected client.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Emit sends a text event.
func (c *Conn) Emit(event string, args ...any) error {
	data, err := json.Marshal(append([]any{event}, args...))
	if err != nil {
		return err
	}
	return c.WriteText("42" + string(data))
}

// EmitBinary sends a binary event whose arguments are all attachments.
func (c *Conn) EmitBinary(event string, attachments ...[]byte) error {
	parts := []any{event}
	for i := range attachments {
		parts = append(parts, map[string]any{"_placeholder": true, "num": i})
	}
	data, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("45%d-%s", len(attachments), data))); err != nil {
		return err
	}
	for _, a := range attachments {
		if err := c.ws.WriteMessage(websocket.BinaryMessage, a); err != nil {
			return err
		}
	}
	return nil
}

// WriteText sends a raw text frame.
func (c *Conn) WriteText(s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(s))
}

// ReadText returns the next text frame from the client.
func (c *Conn) ReadText(timeout time.Duration) (string, error) {
	_ = c.ws.SetReadDeadline(time.Now().Add(timeout))
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		if mt == websocket.TextMessage {
			return string(data), nil
		}
	}
}

// Event is an event received from the client.
type Event struct {
	Name string
	Args []json.RawMessage
}

// NextEvent returns the next event from the client, skipping pongs.
func (c *Conn) NextEvent(timeout time.Duration) (Event, error) {
	for {
		msg, err := c.ReadText(timeout)
		if err != nil {
			return Event{}, err
		}
		if !strings.HasPrefix(msg, "42") {
			continue
		}
		var parts []json.RawMessage
		if err := json.Unmarshal([]byte(msg[2:]), &parts); err != nil || len(parts) == 0 {
			return Event{}, fmt.Errorf("bad event frame %q", msg)
		}
		var ev Event
		if err := json.Unmarshal(parts[0], &ev.Name); err != nil {
			return Event{}, fmt.Errorf("bad event name in %q", msg)
		}
		ev.Args = parts[1:]
		return ev, nil
	}
}

// Close drops the connection without a close packet.
func (c *Conn) Close() error {
	return c.ws.Close()
}
