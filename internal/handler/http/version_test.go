package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/service"
)

// ─────────────────────────────────────────────
// Mock
// ─────────────────────────────────────────────

// mockAppInfoService implements service.AppInfoService for testing.
type mockAppInfoService struct {
	version string
}

func (m *mockAppInfoService) GetAppVersion(_ context.Context) string {
	return m.version
}

func newHandlerWithAppInfo(t *testing.T, svc service.AppInfoService) *Handler {
	t.Helper()
	return NewHandler(&service.Services{AppInfoService: svc}, config.StructuredConfig{}, logger.Nop())
}

// ─────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────

func TestGetServerVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"semver", "1.2.3"},
		{"pre-release with build", "v2.0.0-beta+build.42"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlerWithAppInfo(t, &mockAppInfoService{version: tt.version})

			rec := httptest.NewRecorder()
			h.getServerVersion(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"version":"`+tt.version+`"}`, rec.Body.String())
		})
	}
}

func TestGetServerVersion_ViaRouter(t *testing.T) {
	h := newHandlerWithAppInfo(t, &mockAppInfoService{version: "3.0.0"})

	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"3.0.0"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(traceIDHeader))
}
