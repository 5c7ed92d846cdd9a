package tui

import (
	"github.com/MKhiriev/report-sync/models"
)

type statusLoadedMsg struct {
	status models.SyncStatus
	err    error
}

type versionLoadedMsg struct {
	version string
	err     error
}

type externalDoneMsg struct {
	changes []models.SyncEvent
	err     error
}

type refreshTickMsg struct{}

type copiedMsg struct{}

type copyFailedMsg struct {
	err error
}

type clearStatusMsg struct{}
