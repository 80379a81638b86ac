package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/theoremus-urban-solutions/rapidbus-avl/session"
)

// DefaultRefreshInterval is how often the subscription is re-requested.
const DefaultRefreshInterval = 5 * time.Second

// Handle is the part of a Connection the keep-alive drives.
type Handle interface {
	Emit(ctx context.Context, event string, payload any) error
	Done() <-chan struct{}
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

// KeepAlive re-emits the subscription request on a fixed interval. A failed
// emission is how a silently dead connection gets noticed.
type KeepAlive struct {
	session  session.Session
	handle   Handle
	reporter Reporter
	logger   *slog.Logger
	interval time.Duration

	newTicker func(time.Duration) ticker
	stopped   atomic.Bool
}

// KeepAliveOption configures a KeepAlive.
type KeepAliveOption func(*KeepAlive)

// WithInterval overrides DefaultRefreshInterval.
func WithInterval(d time.Duration) KeepAliveOption {
	return func(k *KeepAlive) {
		if d > 0 {
			k.interval = d
		}
	}
}

// WithKeepAliveLogger sets the logger.
func WithKeepAliveLogger(l *slog.Logger) KeepAliveOption {
	return func(k *KeepAlive) { k.logger = l }
}

// NewKeepAlive creates a loop emitting on handle for sess.
func NewKeepAlive(sess session.Session, handle Handle, reporter Reporter, opts ...KeepAliveOption) *KeepAlive {
	k := &KeepAlive{
		session:   sess,
		handle:    handle,
		reporter:  reporter,
		logger:    slog.Default(),
		interval:  DefaultRefreshInterval,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Run emits one refresh per interval until an emission fails, the handle
// terminates, or ctx is cancelled. The first failure is reported once and
// returned as *EmitError; the loop then stays stopped and later calls
// return ErrKeepAliveStopped.
func (k *KeepAlive) Run(ctx context.Context) error {
	if k.stopped.Load() {
		return ErrKeepAliveStopped
	}

	t := k.newTicker(k.interval)
	defer t.Stop()
	req := NewRefreshRequest(k.session)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-k.handle.Done():
			k.stopped.Store(true)
			return ErrConnectionTerminated
		case <-t.C():
			select {
			case <-k.handle.Done():
				k.stopped.Store(true)
				return ErrConnectionTerminated
			default:
			}

			if err := k.handle.Emit(ctx, EventReload, req); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, ErrNotConnected) {
					k.stopped.Store(true)
					return ErrConnectionTerminated
				}
				if k.stopped.Swap(true) {
					return ErrKeepAliveStopped
				}
				eerr := &EmitError{Event: EventReload, Phase: PhaseKeepAlive, Err: err}
				k.reporter.Error(eerr)
				return eerr
			}
			k.logger.Debug("subscription refreshed", slog.String("route", req.Route))
		}
	}
}

// Stopped reports whether the loop has ended for good.
func (k *KeepAlive) Stopped() bool {
	return k.stopped.Load()
}
