package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howard-nolan/pplxproxy/internal/metrics"
)

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	s := newTestServer("", &stubProvider{})

	tests := []struct {
		name string
		id   string
	}{
		{"newline injection", "abc\n127.0.0.1 - fake log line"},
		{"spaces", "abc def"},
		{"too long", strings.Repeat("a", 65)},
		{"quotes", `abc"def`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			// Header.Set would reject a raw newline on the wire, but a
			// handler can still see one, so set the map directly.
			req.Header["X-Request-Id"] = []string{tt.id}
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-Id")
			assert.NotEqual(t, tt.id, got)
			_, err := uuid.Parse(got)
			assert.NoError(t, err, "expected a fresh UUID, got %q", got)
		})
	}
}

func TestRequestIDKeepsTracingTokens(t *testing.T) {
	s := newTestServer("", &stubProvider{})

	for _, id := range []string{"abc-123", "4bf92f3577b34da6a3ce929d0e0e4736:00f067aa0ba902b7", strings.Repeat("x", 64)} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", id)
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)

		assert.Equal(t, id, w.Header().Get("X-Request-Id"))
	}
}

func TestPanicIsCountedAs500(t *testing.T) {
	s := newTestServer("", &stubProvider{})
	s.router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("handler blew up")
	})

	counter := metrics.RequestsTotal.WithLabelValues("/panic", "500")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
