package feed

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by Emit outside the Connected state.
	ErrNotConnected = errors.New("feed: not connected")
	// ErrKeepAliveStopped is returned by Run once the loop has stopped.
	ErrKeepAliveStopped = errors.New("feed: keep-alive stopped")
	// ErrConnectionTerminated ends a keep-alive whose connection is gone.
	ErrConnectionTerminated = errors.New("feed: connection terminated")
)

// ConnectError means the transport could not be established at all.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Phase tells which emission failed.
type Phase string

const (
	PhaseHandshake Phase = "handshake"
	PhaseKeepAlive Phase = "keep-alive"
)

// EmitError means an outbound request could not be written. It ends the
// live phase.
type EmitError struct {
	Event string
	Phase Phase
	Err   error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s (%s): %v", e.Event, e.Phase, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// RemoteError carries the detail of an inbound error event.
type RemoteError struct {
	Detail []json.RawMessage
}

func (e *RemoteError) Error() string {
	if len(e.Detail) == 0 {
		return "remote error"
	}
	b, _ := json.Marshal(e.Detail)
	return "remote error: " + string(b)
}

// TransportError means the transport ended underneath a live connection.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
