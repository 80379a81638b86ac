package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/theoremus-urban-solutions/rapidbus-avl/internal/socketio"
	"github.com/theoremus-urban-solutions/rapidbus-avl/payload"
	"github.com/theoremus-urban-solutions/rapidbus-avl/session"
)

// Event names on the dashboard backend.
const (
	EventReload = "onFts-reload"
	EventClient = "onFts-client"
	EventError  = "error"
)

// RefreshRequest is the body of every onFts-reload emission.
type RefreshRequest struct {
	SID      string `json:"sid"`
	UID      string `json:"uid"`
	Provider string `json:"provider"`
	Route    string `json:"route"`
}

// NewRefreshRequest builds the subscription request for a session.
func NewRefreshRequest(s session.Session) RefreshRequest {
	return RefreshRequest{SID: s.SID, UID: "", Provider: s.Provider, Route: s.Route}
}

// Transport is a live push-protocol session.
type Transport interface {
	Emit(ctx context.Context, event string, args ...any) error
	Listen(ctx context.Context, handle func(socketio.Event)) error
	Close() error
}

// DialFunc establishes a Transport to serverURL.
type DialFunc func(ctx context.Context, serverURL string) (Transport, error)

// SocketIODialer dials the backend with the websocket Socket.IO client.
func SocketIODialer(opts socketio.Options) DialFunc {
	return func(ctx context.Context, serverURL string) (Transport, error) {
		c, err := socketio.Dial(ctx, serverURL, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Connection is the single live subscription of a run.
type Connection struct {
	session  session.Session
	reporter Reporter
	logger   *slog.Logger
	dial     DialFunc
	handlers map[string]func(args []any)

	state     atomic.Int32
	transport Transport
	done      chan struct{}
	termOnce  sync.Once

	errMu sync.Mutex
	err   error
}

// Option configures a Connection.
type Option func(*Connection)

// WithDialer replaces the default Socket.IO dialer.
func WithDialer(d DialFunc) Option {
	return func(c *Connection) { c.dial = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

func newConnection(sess session.Session, reporter Reporter, opts ...Option) *Connection {
	c := &Connection{
		session:  sess,
		reporter: reporter,
		logger:   slog.Default(),
		dial:     SocketIODialer(socketio.Options{}),
		done:     make(chan struct{}),
	}
	c.handlers = map[string]func([]any){
		EventClient: c.handleClientData,
		EventError:  c.handleError,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the connection and sends the subscription handshake.
// ctx bounds the whole lifetime of the connection, not just the dial.
func Connect(ctx context.Context, serverURL string, sess session.Session, reporter Reporter, opts ...Option) (*Connection, error) {
	c := newConnection(sess, reporter, opts...)
	c.setState(StateConnecting)

	t, err := c.dial(ctx, serverURL)
	if err != nil {
		cerr := &ConnectError{URL: serverURL, Err: err}
		c.reporter.Error(cerr)
		c.terminate(cerr)
		return nil, cerr
	}
	c.transport = t
	c.setState(StateConnected)
	c.logger.Info("feed connected", slog.String("url", serverURL))

	if err := c.Emit(ctx, EventReload, NewRefreshRequest(sess)); err != nil {
		eerr := &EmitError{Event: EventReload, Phase: PhaseHandshake, Err: err}
		c.reporter.Error(eerr)
		c.terminate(eerr)
		return nil, eerr
	}
	c.logger.Debug("subscription requested",
		slog.String("sid", sess.SID),
		slog.String("provider", sess.Provider),
		slog.String("route", sess.Route),
	)

	go c.listen(ctx)
	return c, nil
}

// Emit writes one event. A failed write terminates the connection.
func (c *Connection) Emit(ctx context.Context, event string, payload any) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	if err := c.transport.Emit(ctx, event, payload); err != nil {
		if errors.Is(err, socketio.ErrClosed) {
			// Closed by terminate or ctx; the cause is reported there.
			return ErrNotConnected
		}
		c.terminate(fmt.Errorf("emit %s: %w", event, err))
		return err
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Session returns the session the connection subscribed with.
func (c *Connection) Session() session.Session {
	return c.session
}

// Done is closed once the connection is terminated.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns what terminated the connection, or nil for a local Close.
func (c *Connection) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close terminates the connection.
func (c *Connection) Close() error {
	c.terminate(nil)
	return nil
}

func (c *Connection) listen(ctx context.Context) {
	err := c.transport.Listen(ctx, func(ev socketio.Event) {
		c.handleEvent(ev.Name, ev.Args)
	})
	if c.State() == StateTerminated || ctx.Err() != nil || errors.Is(err, socketio.ErrClosed) {
		c.terminate(nil)
		return
	}
	terr := &TransportError{Err: err}
	c.reporter.Error(terr)
	c.terminate(terr)
}

// handleEvent is the single entry point for inbound events.
func (c *Connection) handleEvent(name string, args []any) {
	h, ok := c.handlers[name]
	if !ok {
		c.logger.Debug("ignoring inbound event", slog.String("event", name), slog.Int("args", len(args)))
		return
	}
	h(args)
}

func (c *Connection) handleClientData(args []any) {
	for _, arg := range args {
		item := classify(arg)
		switch item.Kind {
		case ItemText:
			msg, err := payload.Decode(item.Text)
			if err != nil {
				c.reporter.Error(err)
				continue
			}
			c.reporter.Decoded(msg)
		case ItemBinary:
			c.reporter.Binary(len(item.Data))
		default:
			c.reporter.Unrecognized(item.Raw)
		}
	}
}

func (c *Connection) handleError(args []any) {
	detail := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		// RawMessage passes through; attachments become base64 strings.
		b, err := json.Marshal(arg)
		if err != nil {
			continue
		}
		detail = append(detail, b)
	}
	c.reporter.Error(&RemoteError{Detail: detail})
}

func (c *Connection) setState(s State) {
	if old := State(c.state.Swap(int32(s))); old != s {
		c.reporter.StateChanged(s)
	}
}

func (c *Connection) terminate(err error) {
	c.termOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		c.setState(StateTerminated)
		if c.transport != nil {
			_ = c.transport.Close()
		}
		close(c.done)
	})
}
