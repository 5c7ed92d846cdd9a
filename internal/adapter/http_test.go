// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

func newTestAdapter(t *testing.T, serverURL string) *httpStatusAdapter {
	t.Helper()
	cfg := config.MonitorConfig{ServerURL: serverURL, RequestTimeout: time.Second, UserID: "monitor"}

	a, err := NewHTTPStatusAdapter(cfg, logger.Nop())
	require.NoError(t, err)
	return a.(*httpStatusAdapter)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ── NewHTTPStatusAdapter ────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "localhost:8080", want: "http://localhost:8080"},
		{raw: " https://sync.example.org/ ", want: "https://sync.example.org"},
		{raw: "", wantErr: true},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHTTPStatusAdapter_InvalidURL(t *testing.T) {
	_, err := NewHTTPStatusAdapter(config.MonitorConfig{}, logger.Nop())
	require.Error(t, err)
}

// ── Status ──────────────────────────────────────────────────────────────────

func TestStatus_Success(t *testing.T) {
	want := models.SyncStatus{
		Connections:     models.ConnectionStats{Active: 3, UniqueUsers: 2},
		Degradation:     models.DegradationStatus{Level: "reduced", BatchSize: 100, UpdateInterval: 500 * time.Millisecond},
		CircuitBreakers: map[string]string{"record_update": "closed"},
		OfflineClients:  1,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sync/status", r.URL.Path)
		assert.Equal(t, "monitor", r.Header.Get("X-User-ID"))
		writeJSON(t, w, http.StatusOK, want)
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, got.Connections.Active)
	assert.Equal(t, "reduced", got.Degradation.Level)
	assert.Equal(t, 500*time.Millisecond, got.Degradation.UpdateInterval)
	assert.Equal(t, "closed", got.CircuitBreakers["record_update"])
	assert.Equal(t, 1, got.OfflineClients)
}

func TestStatus_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "system offline", Kind: "service_unavailable"})
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Status(context.Background())

	require.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "service_unavailable: system offline")
}

func TestStatus_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestAdapter(t, url).Status(context.Background())
	require.Error(t, err)
}

// ── Version ─────────────────────────────────────────────────────────────────

func TestVersion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		writeJSON(t, w, http.StatusOK, models.VersionResponse{Version: "1.4.2"})
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).Version(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1.4.2", got)
}

func TestVersion_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("  short and stout \n"))
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Version(context.Background())

	require.Error(t, err)
	assert.Equal(t, "http 418: short and stout", err.Error())
}

// ── DetectExternalChanges ───────────────────────────────────────────────────

func TestDetectExternalChanges_Success(t *testing.T) {
	event := models.NewSyncEvent(models.EventRecordAdded, "R1", map[string]any{"finding": "imported"}, 1, "external",
		time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync/external", r.URL.Path)
		writeJSON(t, w, http.StatusOK, models.ExternalChangesResponse{Changes: []models.SyncEvent{event}, Length: 1})
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).DetectExternalChanges(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "R1", got[0].RecordID)
	assert.Equal(t, models.EventRecordAdded, got[0].EventType)
	assert.True(t, event.Timestamp.Equal(got[0].Timestamp))
}

func TestDetectExternalChanges_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusBadRequest, want: ErrBadRequest},
		{status: http.StatusNotFound, want: ErrNotFound},
		{status: http.StatusConflict, want: ErrConflict},
		{status: http.StatusLocked, want: ErrLocked},
		{status: http.StatusInternalServerError, want: ErrInternalServerError},
		{status: http.StatusBadGateway, want: ErrBadGateway},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, models.ErrorResponse{Error: "failed"})
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL).DetectExternalChanges(context.Background())
			require.ErrorIs(t, err, tt.want)
		})
	}
}
