package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finstudent/internal/log"
)

func newTraced(buf *bytes.Buffer, status int) (*Middleware, http.Handler) {
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: buf, Component: log.ComponentDevServer})
	m := NewMiddleware(logger, func(*http.Request) string { return "203.0.113.7" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Info("inside handler", "seen_id", GetRequestID(r.Context()))
		w.WriteHeader(status)
	}))
	return m, h
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	_, h := newTraced(&buf, http.StatusOK)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me/", nil))

	id := rec.Header().Get(HeaderRequestID)
	require.Len(t, id, 36)
	assert.Contains(t, buf.String(), "seen_id="+id)
	assert.Contains(t, buf.String(), "request_id="+id)
	assert.Contains(t, buf.String(), "client_ip=203.0.113.7")
}

func TestMiddleware_HonorsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	_, h := newTraced(&buf, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 65))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, strings.Repeat("x", 65), rec.Header().Get(HeaderRequestID))
}

func TestMiddleware_LevelAndMetricsFollowStatus(t *testing.T) {
	tests := []struct {
		status      int
		level       string
		client, srv int64
	}{
		{http.StatusCreated, "level=INFO", 0, 0},
		{http.StatusNotFound, "level=WARN", 1, 0},
		{http.StatusInternalServerError, "level=ERROR", 0, 1},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			m, h := newTraced(&buf, tt.status)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

			var completed string
			for _, line := range strings.Split(buf.String(), "\n") {
				if strings.Contains(line, "HTTP request completed") {
					completed = line
				}
			}
			require.NotEmpty(t, completed)
			assert.Contains(t, completed, tt.level)

			got := m.GetMetrics()
			assert.Equal(t, int64(1), got.TotalRequests)
			assert.Equal(t, tt.client, got.ClientErrors)
			assert.Equal(t, tt.srv, got.ServerErrors)
		})
	}
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusTeapot, rw.statusCode)
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
