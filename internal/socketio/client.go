package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("socketio: connection closed")
	// ErrDisconnected is returned when the server closes the session.
	ErrDisconnected = errors.New("socketio: disconnected by server")
)

// ConnectError is returned when the server refuses the namespace connect.
type ConnectError struct {
	Message string
}

func (e *ConnectError) Error() string {
	return "socketio: connect rejected: " + e.Message
}

type openPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Options configures Dial.
type Options struct {
	Header http.Header
	Dialer *websocket.Dialer
}

// Client is one Socket.IO session on a websocket.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex // serialises all conn writes (events, pongs)

	sid          string
	pingInterval time.Duration
	pingTimeout  time.Duration

	closeOnce sync.Once
	closed    atomic.Bool
}

// EndpointURL turns a server URL such as "https://host" into the Engine.IO
// websocket endpoint "wss://host/socket.io/?EIO=4&transport=websocket".
func EndpointURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, serverURL)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket.io/"
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens the websocket and completes the Engine.IO open and Socket.IO
// connect handshakes on the default namespace.
func Dial(ctx context.Context, serverURL string, opts Options) (*Client, error) {
	endpoint, err := EndpointURL(serverURL)
	if err != nil {
		return nil, err
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{conn: conn}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	err = c.handshake()
	if !stop() {
		_ = conn.Close()
		return nil, ctx.Err()
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake() error {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read open packet: %w", err)
	}
	if mt != websocket.TextMessage || len(data) == 0 || data[0] != eioOpen {
		return fmt.Errorf("%w: expected open packet, got %.32q", errMalformedPacket, data)
	}
	var open openPayload
	if err := json.Unmarshal(data[1:], &open); err != nil {
		return fmt.Errorf("decode open packet: %w", err)
	}
	c.sid = open.SID
	c.pingInterval = time.Duration(open.PingInterval) * time.Millisecond
	c.pingTimeout = time.Duration(open.PingTimeout) * time.Millisecond
	c.extendReadDeadline()

	connect := string(eioMessage) + encodePacket(packet{Type: packetConnect, Namespace: defaultNamespace, ID: -1})
	if err := c.writeText(connect); err != nil {
		return fmt.Errorf("send connect: %w", err)
	}

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("await connect: %w", err)
		}
		c.extendReadDeadline()
		if mt != websocket.TextMessage || len(data) == 0 {
			continue
		}
		switch data[0] {
		case eioPing:
			if err := c.writeText(string(eioPong)); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}
		case eioClose:
			return ErrDisconnected
		case eioMessage:
			p, err := decodePacket(string(data[1:]))
			if err != nil {
				return err
			}
			if p.Namespace != defaultNamespace {
				continue
			}
			switch p.Type {
			case packetConnect:
				return nil
			case packetConnectError:
				var body struct {
					Message string `json:"message"`
				}
				if json.Unmarshal(p.Data, &body) != nil || body.Message == "" {
					body.Message = string(p.Data)
				}
				return &ConnectError{Message: body.Message}
			}
		}
	}
}

// SID returns the Engine.IO session id announced by the server.
func (c *Client) SID() string { return c.sid }

// Emit sends an event on the default namespace.
func (c *Client) Emit(ctx context.Context, event string, args ...any) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := encodeEvent(event, args...)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		if c.closed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// Listen reads frames until the session ends, answering pings and passing
// every event on the default namespace to handle in arrival order. It
// returns ctx.Err() on cancellation, ErrClosed after Close, ErrDisconnected
// when the server ends the session, and the read error otherwise.
func (c *Client) Listen(ctx context.Context, handle func(Event)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	var pending *packet
	var buffers [][]byte

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.closed.Load() {
				return ErrClosed
			}
			return fmt.Errorf("read: %w", err)
		}
		c.extendReadDeadline()

		if mt == websocket.BinaryMessage {
			if pending == nil {
				continue
			}
			buffers = append(buffers, data)
			if len(buffers) == pending.Attachments {
				c.dispatch(*pending, buffers, handle)
				pending, buffers = nil, nil
			}
			continue
		}
		if len(data) == 0 {
			continue
		}

		switch data[0] {
		case eioPing:
			if err := c.writeText(string(eioPong)); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}
		case eioClose:
			return ErrDisconnected
		case eioMessage:
			p, err := decodePacket(string(data[1:]))
			if err != nil || p.Namespace != defaultNamespace {
				continue
			}
			switch p.Type {
			case packetEvent:
				c.dispatch(p, nil, handle)
			case packetBinaryEvent:
				if p.Attachments == 0 {
					c.dispatch(p, nil, handle)
					continue
				}
				pending = &p
				buffers = make([][]byte, 0, p.Attachments)
			case packetDisconnect:
				return ErrDisconnected
			}
		}
	}
}

func (c *Client) dispatch(p packet, attachments [][]byte, handle func(Event)) {
	ev, err := decodeEvent(p.Data, attachments)
	if err != nil {
		return
	}
	handle(ev)
}

// Close tears down the websocket. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writeText(s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Time{})
	return c.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// extendReadDeadline applies the liveness window announced in the open
// packet: the server pings every pingInterval and expects the session to
// be dropped after pingTimeout of silence.
func (c *Client) extendReadDeadline() {
	if c.pingInterval <= 0 {
		return
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pingInterval + c.pingTimeout))
}
