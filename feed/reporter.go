package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/theoremus-urban-solutions/rapidbus-avl/payload"
	"github.com/theoremus-urban-solutions/rapidbus-avl/session"
)

// Reporter receives everything the live feed produces. Implementations
// must be safe for use from the connection's read goroutine and the
// keep-alive goroutine at the same time.
type Reporter interface {
	Decoded(msg payload.Message)
	Binary(length int)
	Unrecognized(raw json.RawMessage)
	Error(err error)
	StateChanged(state State)
}

// Tee fans every report out to several reporters in order.
type Tee []Reporter

// Decoded forwards msg to every reporter.
func (t Tee) Decoded(msg payload.Message) {
	for _, r := range t {
		r.Decoded(msg)
	}
}

// Binary forwards the attachment length to every reporter.
func (t Tee) Binary(length int) {
	for _, r := range t {
		r.Binary(length)
	}
}

// Unrecognized forwards raw to every reporter.
func (t Tee) Unrecognized(raw json.RawMessage) {
	for _, r := range t {
		r.Unrecognized(raw)
	}
}

// Error forwards err to every reporter.
func (t Tee) Error(err error) {
	for _, r := range t {
		r.Error(err)
	}
}

// StateChanged forwards state to every reporter.
func (t Tee) StateChanged(state State) {
	for _, r := range t {
		r.StateChanged(state)
	}
}

// LogReporter prints decoded data to out and logs everything else.
type LogReporter struct {
	logger *slog.Logger

	mu  sync.Mutex // serialises writes to out
	out io.Writer
}

// NewLogReporter creates a reporter writing data to out (typically stdout).
func NewLogReporter(logger *slog.Logger, out io.Writer) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger, out: out}
}

// Decoded prints structured messages as indented JSON and raw text as is.
func (r *LogReporter) Decoded(msg payload.Message) {
	var body string
	header := "=== Raw Data ==="
	if msg.Kind == payload.KindStructured {
		header = "=== Live Bus Data ==="
		pretty, err := json.MarshalIndent(msg.Value, "", "  ")
		if err != nil {
			body = msg.Text
		} else {
			body = string(pretty)
		}
	} else {
		body = msg.Text
	}

	r.mu.Lock()
	_, err := fmt.Fprintf(r.out, "\n%s\n%s\n", header, body)
	r.mu.Unlock()
	if err != nil {
		r.logger.Error("failed to write decoded message", slog.Any("error", err))
	}
	r.logger.Debug("message decoded", slog.String("kind", msg.Kind.String()), slog.Int("bytes", len(msg.Text)))
}

// Binary logs the attachment size only.
func (r *LogReporter) Binary(length int) {
	r.logger.Info("received binary data", slog.Int("bytes", length))
}

// Unrecognized logs the shape at warn level.
func (r *LogReporter) Unrecognized(raw json.RawMessage) {
	r.logger.Warn("unrecognized inbound shape", slog.String("raw", string(raw)))
}

// Error logs non-fatal kinds at warn level and the rest at error level.
func (r *LogReporter) Error(err error) {
	var (
		decodeErr   *payload.DecodeError
		degradedErr *session.DegradedError
		remoteErr   *RemoteError
	)
	switch {
	case errors.As(err, &decodeErr):
		r.logger.Warn("failed to decode message",
			slog.String("stage", string(decodeErr.Stage)),
			slog.Int("length", decodeErr.Length),
			slog.String("excerpt", decodeErr.Excerpt),
			slog.Any("error", decodeErr.Err),
		)
	case errors.As(err, &degradedErr), errors.As(err, &remoteErr):
		r.logger.Warn("feed warning", slog.Any("error", err))
	default:
		r.logger.Error("feed error", slog.Any("error", err))
	}
}

// StateChanged logs the new state.
func (r *LogReporter) StateChanged(state State) {
	r.logger.Info("connection state changed", slog.String("state", state.String()))
}
