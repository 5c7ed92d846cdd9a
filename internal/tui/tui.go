// Package tui is the terminal dashboard of the report-sync status monitor.
//
// It polls the status endpoint of a running server and renders the
// degradation level, connection, lock, broker and conflict counters, and
// the state of every circuit breaker.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/report-sync/internal/adapter"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

var ErrUserQuit = errors.New("user quit")

type TUI struct {
	adapter   adapter.StatusAdapter
	buildInfo models.AppBuildInfo
	refresh   time.Duration

	logger *logger.Logger
}

func New(adapter adapter.StatusAdapter, refresh time.Duration, buildInfo models.AppBuildInfo, logger *logger.Logger) (*TUI, error) {
	if refresh <= 0 {
		return nil, errInvalidRefreshInterval
	}
	return &TUI{adapter: adapter, buildInfo: buildInfo, refresh: refresh, logger: logger}, nil
}

// Run shows the dashboard until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	model := newDashboardModel(ctx, t.adapter, t.refresh, t.buildInfo)
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}

	result, ok := finalModel.(dashboardModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	t.logger.Debug().Int("refreshes", result.refreshes).Msg("dashboard closed")
	if result.quitByUser {
		return ErrUserQuit
	}
	return nil
}
