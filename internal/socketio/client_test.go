package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/rapidbus-avl/internal/socketio/socketiotest"
)

const testTimeout = 5 * time.Second

func dialTest(t *testing.T, srv *socketiotest.Server) (*Client, *socketiotest.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	c, err := Dial(ctx, srv.URL, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv.Accept(t)
}

func TestDial_Handshake(t *testing.T) {
	srv := socketiotest.NewServer(t)
	c, _ := dialTest(t, srv)

	assert.Equal(t, "eio-test", c.SID())
	require.Len(t, srv.Queries(), 1)
	assert.Equal(t, "EIO=4&transport=websocket", srv.Queries()[0])
}

func TestDial_ConnectRejected(t *testing.T) {
	srv := socketiotest.NewServer(t)
	srv.RejectConnect = "not authorized"

	_, err := Dial(context.Background(), srv.URL, Options{})

	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "not authorized", ce.Message)
}

func TestDial_Unreachable(t *testing.T) {
	srv := socketiotest.NewServer(t)
	url := srv.URL
	srv.Close()

	_, err := Dial(context.Background(), url, Options{})
	assert.Error(t, err)
}

func TestEmit(t *testing.T) {
	srv := socketiotest.NewServer(t)
	c, sc := dialTest(t, srv)

	require.NoError(t, c.Emit(context.Background(), "onFts-reload", map[string]string{"sid": "abc"}))

	ev, err := sc.NextEvent(testTimeout)
	require.NoError(t, err)
	assert.Equal(t, "onFts-reload", ev.Name)
	require.Len(t, ev.Args, 1)
	assert.JSONEq(t, `{"sid":"abc"}`, string(ev.Args[0]))
}

func TestEmit_AfterClose(t *testing.T) {
	srv := socketiotest.NewServer(t)
	c, _ := dialTest(t, srv)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Emit(context.Background(), "x"), ErrClosed)
}

func TestListen_DeliversEventsInOrder(t *testing.T) {
	srv := socketiotest.NewServer(t)
	c, sc := dialTest(t, srv)

	events := make(chan Event, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Listen(ctx, func(ev Event) { events <- ev }) }()

	require.NoError(t, sc.Emit("onFts-client", "first"))
	require.NoError(t, sc.EmitBinary("onFts-client", []byte{1, 2, 3}))
	require.NoError(t, sc.WriteText(`42/other,["ignored"]`))
	require.NoError(t, sc.Emit("error", map[string]string{"code": "E1"}))

	ev := <-events
	assert.Equal(t, "onFts-client", ev.Name)
	assert.Equal(t, []any{json.RawMessage(`"first"`)}, ev.Args)

	ev = <-events
	assert.Equal(t, []any{[]byte{1, 2, 3}}, ev.Args)

	ev = <-events
	assert.Equal(t, "error", ev.Name)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(testTimeout):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestListen_AnswersPing(t *testing.T) {
	srv := socketiotest.NewServer(t)
	c, sc := dialTest(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Listen(ctx, func(Event) {}) }()

	require.NoError(t, sc.WriteText("2"))
	msg, err := sc.ReadText(testTimeout)
	require.NoError(t, err)
	assert.Equal(t, "3", msg)
}

func TestListen_ServerDisconnect(t *testing.T) {
	for _, frame := range []string{"1", "41"} {
		t.Run(frame, func(t *testing.T) {
			srv := socketiotest.NewServer(t)
			c, sc := dialTest(t, srv)

			require.NoError(t, sc.WriteText(frame))
			err := c.Listen(context.Background(), func(Event) {})
			assert.ErrorIs(t, err, ErrDisconnected)
		})
	}
}

func TestListen_ConnectionDropped(t *testing.T) {
	srv := socketiotest.NewServer(t)
	c, sc := dialTest(t, srv)

	require.NoError(t, sc.Close())
	err := c.Listen(context.Background(), func(Event) {})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClosed)
	assert.NotErrorIs(t, err, context.Canceled)
}
