package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kioskHTML = `<!doctype html><html><head><script>
var sid = 'abc123';
var prm = 'rapidkl';
var no_route = '300';
</script></head><body></body></html>`

func TestResolve_ScrapesKioskPage(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(kioskHTML))
	}))
	defer srv.Close()

	var degraded []error
	r := NewResolver(srv.URL + "/")
	r.OnDegraded = func(err error) { degraded = append(degraded, err) }

	s := r.Resolve(context.Background(), "300")

	assert.Equal(t, Session{SID: "abc123", Provider: "rapidkl", Route: "300"}, s)
	assert.Equal(t, "/kiosk/300", gotPath)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Empty(t, degraded)
}

func TestResolve_KeepsCookiesAcrossRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/kiosk/300", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "visitor", Value: "v1", Path: "/"})
		http.Redirect(w, r, "/kiosk/300/view", http.StatusFound)
	})
	mux.HandleFunc("/kiosk/300/view", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("visitor"); err != nil || c.Value != "v1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(kioskHTML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewResolver(srv.URL, WithUserAgent("test-agent")).Resolve(context.Background(), "300")

	assert.Equal(t, "abc123", s.SID)
}

func TestResolve_UnreachableFallsBackToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	var degraded []error
	r := NewResolver(srv.URL)
	r.OnDegraded = func(err error) { degraded = append(degraded, err) }

	s := r.Resolve(context.Background(), "300")

	assert.Equal(t, Default(), s)
	require.Len(t, degraded, 1)
	var de *DegradedError
	require.True(t, errors.As(degraded[0], &de))
	assert.Equal(t, []string{"sid", "prm", "no_route"}, de.Missing)
	assert.Error(t, de.Err)
}

func TestResolve_PageWithoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>busy</html>"))
	}))
	defer srv.Close()

	var degraded []error
	r := NewResolver(srv.URL)
	r.OnDegraded = func(err error) { degraded = append(degraded, err) }

	s := r.Resolve(context.Background(), "300")

	assert.Equal(t, Default(), s)
	require.Len(t, degraded, 1)
	assert.Contains(t, degraded[0].Error(), "HTTP 503")
}
