package feed

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theoremus-urban-solutions/rapidbus-avl/payload"
)

func newBufferedLogReporter() (*LogReporter, *bytes.Buffer, *bytes.Buffer) {
	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewLogReporter(logger, &out), &out, &logs
}

func TestLogReporter_PrintsStructuredData(t *testing.T) {
	r, out, _ := newBufferedLogReporter()

	r.Decoded(payload.Structured(map[string]any{"lat": 3.15}, `{"lat":3.15}`))

	assert.Equal(t, "\n=== Live Bus Data ===\n{\n  \"lat\": 3.15\n}\n", out.String())
}

func TestLogReporter_PrintsRawText(t *testing.T) {
	r, out, _ := newBufferedLogReporter()

	r.Decoded(payload.Raw("plain"))

	assert.Equal(t, "\n=== Raw Data ===\nplain\n", out.String())
}

func TestLogReporter_LogsNotices(t *testing.T) {
	r, out, logs := newBufferedLogReporter()

	r.Binary(48)
	r.Unrecognized([]byte(`{"x":1}`))
	r.Error(&payload.DecodeError{Stage: payload.StageGzip, Excerpt: "abc", Length: 3, Err: errors.New("bad header")})
	r.Error(&EmitError{Event: EventReload, Phase: PhaseKeepAlive, Err: errors.New("eof")})
	r.StateChanged(StateConnected)

	assert.Empty(t, out.String())
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if assert.Len(t, lines, 5) {
		assert.Contains(t, lines[0], "bytes=48")
		assert.Contains(t, lines[1], "level=WARN")
		assert.Contains(t, lines[2], "stage=gzip")
		assert.Contains(t, lines[3], "level=ERROR")
		assert.Contains(t, lines[4], "state=connected")
	}
}

func TestTee_FansOut(t *testing.T) {
	a, b := newRecordingReporter(), newRecordingReporter()
	tee := Tee{a, b}

	tee.Binary(7)
	tee.Error(ErrNotConnected)
	tee.StateChanged(StateTerminated)

	for _, r := range []*recordingReporter{a, b} {
		assert.Len(t, r.reports, 3)
		assert.Equal(t, 7, r.reports[0].binary)
		assert.ErrorIs(t, r.reports[1].err, ErrNotConnected)
		assert.Equal(t, []State{StateTerminated}, r.states())
	}
}
