package health

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/rapidbus-avl/feed"
	"github.com/theoremus-urban-solutions/rapidbus-avl/payload"
	"github.com/theoremus-urban-solutions/rapidbus-avl/utils"
)

// Health statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Counts is the per-kind message tally.
type Counts struct {
	Decoded      int64 `json:"decoded"`
	Raw          int64 `json:"raw"`
	Binary       int64 `json:"binary"`
	Unrecognized int64 `json:"unrecognized"`
	Errors       int64 `json:"errors"`
}

// Snapshot is the health response body.
type Snapshot struct {
	Status        string `json:"status"`
	State         string `json:"state"`
	Messages      Counts `json:"messages"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

// Tracker is a feed.Reporter that keeps counters for the health endpoint.
type Tracker struct {
	mu        sync.Mutex
	state     feed.State
	counts    Counts
	lastMsg   time.Time
	lastError string
	now       func() time.Time
}

var _ feed.Reporter = (*Tracker)(nil)

// NewTracker returns a tracker in the disconnected state.
func NewTracker() *Tracker {
	return &Tracker{state: feed.StateDisconnected, now: time.Now}
}

// Decoded counts structured and raw messages separately.
func (t *Tracker) Decoded(msg payload.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if msg.Kind == payload.KindStructured {
		t.counts.Decoded++
	} else {
		t.counts.Raw++
	}
	t.lastMsg = t.now()
}

// Binary counts a binary item.
func (t *Tracker) Binary(int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts.Binary++
	t.lastMsg = t.now()
}

// Unrecognized counts an unrecognized item.
func (t *Tracker) Unrecognized(json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts.Unrecognized++
	t.lastMsg = t.now()
}

// Error counts err and keeps its text as the last error.
func (t *Tracker) Error(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts.Errors++
	if err != nil {
		t.lastError = err.Error()
	}
}

// StateChanged records the connection state.
func (t *Tracker) StateChanged(state feed.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// Snapshot returns the current status. Status is ok only while connected.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := StatusDegraded
	if t.state == feed.StateConnected {
		status = StatusOK
	}
	return Snapshot{
		Status:        status,
		State:         t.state.String(),
		Messages:      t.counts,
		LastMessageAt: utils.Iso8601FromTime(t.lastMsg),
		LastError:     t.lastError,
	}
}
