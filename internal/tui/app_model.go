package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/MKhiriev/report-sync/internal/adapter"
	"github.com/MKhiriev/report-sync/models"
)

const statusClearDelay = 2 * time.Second

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

type screen int

const (
	screenStatus screen = iota
	screenBuildInfo
)

type dashboardModel struct {
	ctx           context.Context
	adapter       adapter.StatusAdapter
	refresh       time.Duration
	buildInfo     models.AppBuildInfo
	currentScreen screen

	spinner   spinner.Model
	loading   bool
	detecting bool

	status        *models.SyncStatus
	loadedAt      time.Time
	serverVersion string
	changes       []models.SyncEvent
	detected      bool
	refreshes     int

	notice       string
	showError    bool
	errorOverlay errorOverlayModel
	quitByUser   bool
}

func newDashboardModel(ctx context.Context, statusAdapter adapter.StatusAdapter, refresh time.Duration, buildInfo models.AppBuildInfo) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return dashboardModel{
		ctx:       ctx,
		adapter:   statusAdapter,
		refresh:   refresh,
		buildInfo: buildInfo,
		spinner:   s,
		loading:   true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.cmdLoadStatus(), m.cmdLoadVersion(), m.spinner.Tick, m.cmdScheduleRefresh())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)
	case statusLoadedMsg:
		m.loading = false
		m.refreshes++
		if msg.err != nil {
			m.notice = humanizeServerUnavailableError(msg.err)
			return m, nil
		}
		m.notice = ""
		m.status = &msg.status
		m.loadedAt = time.Now()
		return m, nil
	case versionLoadedMsg:
		if msg.err == nil {
			m.serverVersion = msg.version
		}
		return m, nil
	case externalDoneMsg:
		m.detecting = false
		if msg.err != nil {
			m.showErrorMessage(humanizeServerUnavailableError(msg.err))
			return m, nil
		}
		m.changes = msg.changes
		m.detected = true
		return m, m.cmdLoadStatus()
	case refreshTickMsg:
		if m.loading {
			return m, m.cmdScheduleRefresh()
		}
		m.loading = true
		return m, tea.Batch(m.cmdLoadStatus(), m.cmdScheduleRefresh())
	case copiedMsg:
		m.notice = "Status copied to clipboard"
		return m, cmdClearStatus()
	case copyFailedMsg:
		m.showErrorMessage(msg.err.Error())
		return m, nil
	case clearStatusMsg:
		m.notice = ""
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showError {
		if key.Matches(msg, keys.enter) || key.Matches(msg, keys.esc) {
			m.showError = false
			m.errorOverlay.message = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.quit):
		m.quitByUser = true
		return m, tea.Quit
	case m.currentScreen == screenBuildInfo:
		if key.Matches(msg, keys.esc) || key.Matches(msg, keys.info) {
			m.currentScreen = screenStatus
		}
		return m, nil
	case key.Matches(msg, keys.info):
		m.currentScreen = screenBuildInfo
		return m, nil
	case key.Matches(msg, keys.refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.cmdLoadStatus()
	case key.Matches(msg, keys.external):
		if m.detecting {
			return m, nil
		}
		m.detecting = true
		return m, m.cmdDetectExternalChanges()
	case key.Matches(msg, keys.copy):
		if m.status == nil {
			return m, nil
		}
		return m, cmdCopyStatus(*m.status)
	}

	return m, nil
}

func (m *dashboardModel) showErrorMessage(message string) {
	m.showError = true
	m.errorOverlay.message = message
}

func (m dashboardModel) View() string {
	var body string
	switch m.currentScreen {
	case screenBuildInfo:
		body = renderBuildInfoWindow(m.buildInfo, m.serverVersion)
	default:
		body = m.statusView()
	}

	if m.showError {
		body += "\n\n" + m.errorOverlay.View()
	}
	return appStyle.Render(body)
}

func (m dashboardModel) statusView() string {
	title := "REPORT SYNC STATUS"
	if m.serverVersion != "" {
		title += " " + m.serverVersion
	}

	var data string
	switch {
	case m.status != nil:
		data = renderStatus(*m.status) + "\n\nUpdated " + m.loadedAt.Format(time.TimeOnly)
	case m.loading:
		data = m.spinner.View() + " Loading..."
	}
	if m.detecting {
		data += "\n" + m.spinner.View() + " Looking for external changes..."
	} else if m.detected {
		data += "\n\n" + renderChanges(m.changes)
	}
	if m.notice != "" {
		data += "\n\n" + m.notice
	}

	return renderPage(title, data, "r: refresh  x: external changes  c: copy  v: about")
}

func (m dashboardModel) cmdLoadStatus() tea.Cmd {
	ctx := m.ctx
	a := m.adapter
	return func() tea.Msg {
		st, err := a.Status(ctx)
		return statusLoadedMsg{status: st, err: err}
	}
}

func (m dashboardModel) cmdLoadVersion() tea.Cmd {
	ctx := m.ctx
	a := m.adapter
	return func() tea.Msg {
		v, err := a.Version(ctx)
		return versionLoadedMsg{version: v, err: err}
	}
}

func (m dashboardModel) cmdDetectExternalChanges() tea.Cmd {
	ctx := m.ctx
	a := m.adapter
	return func() tea.Msg {
		changes, err := a.DetectExternalChanges(ctx)
		return externalDoneMsg{changes: changes, err: err}
	}
}

func (m dashboardModel) cmdScheduleRefresh() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func cmdCopyStatus(st models.SyncStatus) tea.Cmd {
	return func() tea.Msg {
		payload, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return copyFailedMsg{err: fmt.Errorf("encode status: %w", err)}
		}
		if err = writeClipboard(string(payload)); err != nil {
			return copyFailedMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return copiedMsg{}
	}
}

func cmdClearStatus() tea.Cmd {
	return tea.Tick(statusClearDelay, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
