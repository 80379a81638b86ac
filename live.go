package rapidbusavl

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/rapidbus-avl/config"
	"github.com/theoremus-urban-solutions/rapidbus-avl/feed"
	"github.com/theoremus-urban-solutions/rapidbus-avl/session"
)

type runOptions struct {
	logger    *slog.Logger
	dialer    feed.DialFunc
	transport http.RoundTripper
}

// Option configures RunLive.
type Option func(*runOptions)

// WithLogger sets the base logger. A run_id attribute is added to it.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// WithDialer replaces the Socket.IO dialer.
func WithDialer(d feed.DialFunc) Option {
	return func(o *runOptions) { o.dialer = d }
}

// WithHTTPTransport sets the round tripper for the kiosk page fetch.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(o *runOptions) { o.transport = rt }
}

// RunLive runs one live session: resolve, connect, keep alive.
//
// It blocks until the connection ends or ctx is cancelled. Cancellation
// is a clean exit and returns nil; otherwise the error that ended the
// connection is returned. There is no reconnect.
func RunLive(ctx context.Context, cfg config.AppConfig, reporter feed.Reporter, opts ...Option) error {
	o := runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(slog.String("run_id", uuid.NewString()))

	resolverOpts := []session.Option{
		session.WithUserAgent(cfg.Dashboard.UserAgent),
		session.WithLogger(logger),
	}
	if o.transport != nil {
		resolverOpts = append(resolverOpts, session.WithTransport(o.transport))
	}
	resolver := session.NewResolver(cfg.Dashboard.BaseURL, resolverOpts...)
	resolver.OnDegraded = reporter.Error

	sess := resolver.Resolve(ctx, cfg.Dashboard.RouteID)
	if ctx.Err() != nil {
		return nil
	}

	connOpts := []feed.Option{feed.WithLogger(logger)}
	if o.dialer != nil {
		connOpts = append(connOpts, feed.WithDialer(o.dialer))
	}
	conn, err := feed.Connect(ctx, cfg.Feed.ServerURL, sess, reporter, connOpts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() { _ = conn.Close() }()

	ka := feed.NewKeepAlive(sess, conn, reporter,
		feed.WithInterval(cfg.RefreshInterval()),
		feed.WithKeepAliveLogger(logger),
	)
	err = ka.Run(ctx)
	switch {
	case ctx.Err() != nil:
		logger.Info("live feed stopped")
		return nil
	case errors.Is(err, feed.ErrConnectionTerminated):
		if cerr := conn.Err(); cerr != nil {
			return cerr
		}
		return err
	default:
		return err
	}
}
