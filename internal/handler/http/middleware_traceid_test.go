package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/logger"
)

// newTestHandler создаёт Handler с nop-логгером (без вывода в stdout).
func newTestHandler() *Handler {
	return &Handler{logger: logger.Nop()}
}

func TestWithTraceID(t *testing.T) {
	tests := []struct {
		name           string
		requestTraceID string
	}{
		{name: "trace ID from request header is reused", requestTraceID: "my-custom-trace-id"},
		{name: "uuid from request header is reused", requestTraceID: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "no trace ID in request, UUID generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusTeapot)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
			if tt.requestTraceID != "" {
				req.Header.Set(traceIDHeader, tt.requestTraceID)
			}
			rr := httptest.NewRecorder()
			newTestHandler().withTraceID(next).ServeHTTP(rr, req)

			assert.True(t, nextCalled)
			assert.Equal(t, http.StatusTeapot, rr.Code)

			got := rr.Header().Get(traceIDHeader)
			require.NotEmpty(t, got)
			if tt.requestTraceID != "" {
				assert.Equal(t, tt.requestTraceID, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithTraceID_UniqueIDs(t *testing.T) {
	h := newTestHandler()
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	seen := make(map[string]struct{})

	for range 100 {
		rr := httptest.NewRecorder()
		h.withTraceID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rr.Header().Get(traceIDHeader)

		_, duplicate := seen[id]
		require.False(t, duplicate, "duplicate trace ID generated: %s", id)
		seen[id] = struct{}{}
	}
}

// ---- Trace ID попадает в логгер запроса ----

func TestWithTraceID_LoggerCarriesTraceID(t *testing.T) {
	var buf bytes.Buffer
	h := &Handler{logger: &logger.Logger{Logger: zerolog.New(&buf)}}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromRequest(r).Info().Msg("inside")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(traceIDHeader, "trace-context-test")
	h.withTraceID(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"trace_id":"trace-context-test"`)
}
