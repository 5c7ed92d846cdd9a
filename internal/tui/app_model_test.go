package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/report-sync/internal/adapter"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/mock"
	"github.com/MKhiriev/report-sync/models"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleStatus() models.SyncStatus {
	return models.SyncStatus{
		Connections: models.ConnectionStats{Active: 3, UniqueUsers: 2, TotalEver: 7},
		Locks:       models.LockStats{Active: 1, Acquired: 4},
		Conflicts: models.ConflictStats{Total: 2, ByType: map[models.ConflictType]int{
			models.ConflictVersionMismatch: 2,
		}},
		Degradation: models.DegradationStatus{
			Level:           "reduced",
			RealtimeEnabled: true,
			BatchSize:       100,
			UpdateInterval:  500 * time.Millisecond,
		},
		CircuitBreakers: map[string]string{"record_update": "closed", "broadcast": "open"},
		OfflineClients:  1,
		BufferedEvents:  5,
	}
}

// loaded returns a dashboard that already shows sampleStatus.
func loaded(t *testing.T, a adapter.StatusAdapter) dashboardModel {
	t.Helper()
	m := newDashboardModel(context.Background(), a, time.Second, models.NewAppBuildInfo("1.0.0", "2026-10-01", "abc123"))
	next, _ := m.Update(statusLoadedMsg{status: sampleStatus()})
	return next.(dashboardModel)
}

func update(t *testing.T, m dashboardModel, msg tea.Msg) (dashboardModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(dashboardModel), cmd
}

// ─────────────────────────────────────────────
// New
// ─────────────────────────────────────────────

func TestNew_InvalidRefreshInterval(t *testing.T) {
	_, err := New(nil, 0, models.AppBuildInfo{}, logger.Nop())
	require.ErrorIs(t, err, errInvalidRefreshInterval)
}

// ─────────────────────────────────────────────
// status
// ─────────────────────────────────────────────

func TestDashboard_RendersStatus(t *testing.T) {
	m := loaded(t, nil)

	assert.False(t, m.loading)
	assert.Equal(t, 1, m.refreshes)

	view := m.View()
	assert.Contains(t, view, "REPORT SYNC STATUS")
	assert.Contains(t, view, "reduced")
	assert.Contains(t, view, "3 active, 2 users, 7 total")
	assert.Contains(t, view, "1 clients, 5 buffered events")
	assert.Contains(t, view, "version_mismatch=2")
	assert.Contains(t, view, "record_update")
	assert.Less(t, strings.Index(view, "broadcast"), strings.Index(view, "record_update"))
}

func TestDashboard_StatusErrorKeepsLastStatus(t *testing.T) {
	m := loaded(t, nil)

	m, _ = update(t, m, statusLoadedMsg{err: errors.New("dial tcp 127.0.0.1:8080: connection refused")})

	require.NotNil(t, m.status)
	assert.Contains(t, m.View(), "server is unreachable")
}

func TestDashboard_RefreshKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mock.NewMockStatusAdapter(ctrl)
	m := loaded(t, a)

	st := sampleStatus()
	st.Degradation.Level = "offline"
	a.EXPECT().Status(gomock.Any()).Return(st, nil)

	m, cmd := update(t, m, runes("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	// a second press while loading does nothing
	_, again := update(t, m, runes("r"))
	assert.Nil(t, again)

	m, _ = update(t, m, cmd())
	assert.Equal(t, "offline", m.status.Degradation.Level)
	assert.Equal(t, 2, m.refreshes)
}

func TestDashboard_RefreshTickSkipsWhileLoading(t *testing.T) {
	m := newDashboardModel(context.Background(), nil, time.Second, models.AppBuildInfo{})
	require.True(t, m.loading)

	m, cmd := update(t, m, refreshTickMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Zero(t, m.refreshes)
}

// ─────────────────────────────────────────────
// external changes
// ─────────────────────────────────────────────

func TestDashboard_DetectExternalChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mock.NewMockStatusAdapter(ctrl)
	m := loaded(t, a)

	changes := []models.SyncEvent{
		models.NewSyncEvent(models.EventRecordAdded, "R1", nil, 1, "external", time.Now()),
	}
	a.EXPECT().DetectExternalChanges(gomock.Any()).Return(changes, nil)
	a.EXPECT().Status(gomock.Any()).Return(sampleStatus(), nil)

	m, cmd := update(t, m, runes("x"))
	require.NotNil(t, cmd)
	assert.True(t, m.detecting)

	m, reload := update(t, m, cmd())
	assert.False(t, m.detecting)
	assert.Contains(t, m.View(), "External changes: 1")
	assert.Contains(t, m.View(), "R1")

	require.NotNil(t, reload)
	_, ok := reload().(statusLoadedMsg)
	assert.True(t, ok)
}

func TestDashboard_DetectExternalChangesFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mock.NewMockStatusAdapter(ctrl)
	m := loaded(t, a)

	a.EXPECT().DetectExternalChanges(gomock.Any()).
		Return(nil, fmt.Errorf("%w: system offline", adapter.ErrServiceUnavailable))

	m, cmd := update(t, m, runes("x"))
	m, _ = update(t, m, cmd())

	require.True(t, m.showError)
	assert.Contains(t, m.View(), "Server is offline")

	// keys are swallowed until the overlay is closed
	m, cmd = update(t, m, runes("q"))
	assert.Nil(t, cmd)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showError)
}

func TestRenderChanges(t *testing.T) {
	assert.Equal(t, "No external changes found", renderChanges(nil))

	var many []models.SyncEvent
	for i := range maxShownChanges + 3 {
		many = append(many, models.NewSyncEvent(models.EventRecordUpdated, fmt.Sprintf("R%d", i), nil, 2, "external", time.Now()))
	}
	out := renderChanges(many)
	assert.Contains(t, out, "External changes: 11")
	assert.Contains(t, out, "... and 3 more")
	assert.NotContains(t, out, "R8")
}

// ─────────────────────────────────────────────
// clipboard
// ─────────────────────────────────────────────

func stubClipboard(t *testing.T, err error) *string {
	t.Helper()
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return err
	}
	t.Cleanup(func() { writeClipboard = orig })
	return &copied
}

func TestDashboard_CopyStatus(t *testing.T) {
	copied := stubClipboard(t, nil)
	m := loaded(t, nil)

	m, cmd := update(t, m, runes("c"))
	require.NotNil(t, cmd)
	m, clear := update(t, m, cmd())

	assert.Contains(t, *copied, `"offline_clients": 1`)
	assert.Contains(t, m.View(), "Status copied to clipboard")
	require.NotNil(t, clear)

	m, _ = update(t, m, clearStatusMsg{})
	assert.Empty(t, m.notice)
}

func TestDashboard_CopyFailure(t *testing.T) {
	stubClipboard(t, errors.New("no clipboard utilities available"))
	m := loaded(t, nil)

	_, cmd := update(t, m, runes("c"))
	m, _ = update(t, m, cmd())

	assert.True(t, m.showError)
	assert.Contains(t, m.errorOverlay.message, "copy to clipboard")
}

func TestDashboard_CopyWithoutStatus(t *testing.T) {
	m := newDashboardModel(context.Background(), nil, time.Second, models.AppBuildInfo{})

	_, cmd := update(t, m, runes("c"))
	assert.Nil(t, cmd)
}

// ─────────────────────────────────────────────
// navigation
// ─────────────────────────────────────────────

func TestDashboard_BuildInfo(t *testing.T) {
	m := loaded(t, nil)
	m, _ = update(t, m, versionLoadedMsg{version: "2.1.0"})

	m, _ = update(t, m, runes("v"))
	require.Equal(t, screenBuildInfo, m.currentScreen)
	view := m.View()
	assert.Contains(t, view, "Version: 1.0.0")
	assert.Contains(t, view, "Commit: abc123")
	assert.Contains(t, view, "Server version: 2.1.0")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenStatus, m.currentScreen)
}

func TestDashboard_Quit(t *testing.T) {
	m := loaded(t, nil)

	m, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitByUser)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
