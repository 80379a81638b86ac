package feed

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/rapidbus-avl/payload"
)

const testTimeout = 5 * time.Second

type report struct {
	decoded      *payload.Message
	binary       int
	unrecognized json.RawMessage
	err          error
	state        State
	isState      bool
}

// recordingReporter stores every report and signals each one on notify.
type recordingReporter struct {
	mu      sync.Mutex
	reports []report
	notify  chan report
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{notify: make(chan report, 64)}
}

func (r *recordingReporter) add(rep report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
	r.notify <- rep
}

func (r *recordingReporter) Decoded(msg payload.Message)      { r.add(report{decoded: &msg}) }
func (r *recordingReporter) Binary(length int)                { r.add(report{binary: length}) }
func (r *recordingReporter) Unrecognized(raw json.RawMessage) { r.add(report{unrecognized: raw}) }
func (r *recordingReporter) Error(err error)                  { r.add(report{err: err}) }
func (r *recordingReporter) StateChanged(s State)             { r.add(report{state: s, isState: true}) }

func (r *recordingReporter) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []error
	for _, rep := range r.reports {
		if rep.err != nil {
			out = append(out, rep.err)
		}
	}
	return out
}

func (r *recordingReporter) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, rep := range r.reports {
		if rep.isState {
			out = append(out, rep.state)
		}
	}
	return out
}

// next returns the next non-state report.
func (r *recordingReporter) next(t *testing.T) report {
	t.Helper()
	for {
		select {
		case rep := <-r.notify:
			if rep.isState {
				continue
			}
			return rep
		case <-time.After(testTimeout):
			t.Fatal("timed out waiting for a report")
			return report{}
		}
	}
}

// waitState blocks until the reporter has seen s.
func (r *recordingReporter) waitState(t *testing.T, s State) {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case rep := <-r.notify:
			if rep.isState && rep.state == s {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", s)
		}
	}
}
