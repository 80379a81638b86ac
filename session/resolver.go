package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is sent when no other User-Agent is configured. The kiosk
// page only serves the session script to browser-looking clients.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// maxPageBytes bounds how much of the kiosk page is scanned.
const maxPageBytes = 4 << 20

// DegradedError describes why a resolution fell back to defaults.
type DegradedError struct {
	Reason  string
	Missing []string
	Err     error
}

func (e *DegradedError) Error() string {
	msg := "session degraded: " + e.Reason
	if len(e.Missing) > 0 {
		msg += " (defaults for " + strings.Join(e.Missing, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DegradedError) Unwrap() error { return e.Err }

// Resolver fetches kiosk pages and extracts sessions from them.
type Resolver struct {
	baseURL   string
	userAgent string
	transport http.RoundTripper
	logger    *slog.Logger

	// OnDegraded, when set, receives every degradation. Resolve still
	// returns a usable Session.
	OnDegraded func(error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithTransport sets the round tripper used for the page fetch.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Resolver) { r.transport = rt }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver for the dashboard at baseURL
// (e.g. "https://myrapidbus.prasarana.com.my").
func NewResolver(baseURL string, opts ...Option) *Resolver {
	r := &Resolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// KioskURL returns the kiosk page URL for a route.
func (r *Resolver) KioskURL(routeID string) string {
	return r.baseURL + "/kiosk/" + url.PathEscape(routeID)
}

// Resolve scrapes the session for routeID. It never fails.
func (r *Resolver) Resolve(ctx context.Context, routeID string) Session {
	pageURL := r.KioskURL(routeID)

	html, status, err := r.fetch(ctx, pageURL)
	if err != nil {
		r.degraded(&DegradedError{Reason: "kiosk page unavailable", Missing: []string{"sid", "prm", "no_route"}, Err: err})
		return Default()
	}

	s, missing := Extract(html)
	switch {
	case status < 200 || status >= 300:
		r.degraded(&DegradedError{Reason: fmt.Sprintf("kiosk page returned HTTP %d", status), Missing: missing})
	case len(missing) > 0:
		r.degraded(&DegradedError{Reason: "session fields not found", Missing: missing})
	}

	r.logger.Info("session resolved",
		slog.String("url", pageURL),
		slog.String("sid", s.SID),
		slog.String("provider", s.Provider),
		slog.String("route", s.Route),
	)
	return s
}

func (r *Resolver) fetch(ctx context.Context, pageURL string) (string, int, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return "", 0, fmt.Errorf("cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, Transport: r.transport}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read %s: %w", pageURL, err)
	}
	return string(body), resp.StatusCode, nil
}

func (r *Resolver) degraded(err *DegradedError) {
	r.logger.Warn("session resolution degraded", slog.Any("error", err))
	if r.OnDegraded != nil {
		r.OnDegraded(err)
	}
}
