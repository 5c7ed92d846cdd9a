// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter talks to the report-sync HTTP API on behalf of the status
// monitor.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] regardless of the body
// the server sent (e.g. [ErrServiceUnavailable] for 503).
package adapter

import (
	"context"

	"github.com/MKhiriev/report-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/status_adapter_mock.go -package=mock

// StatusAdapter reads the state of a report-sync server.
type StatusAdapter interface {
	// Status fetches GET /api/sync/status.
	Status(ctx context.Context) (models.SyncStatus, error)

	// Version fetches GET /api/version.
	Version(ctx context.Context) (string, error)

	// DetectExternalChanges asks the server to look for records changed
	// outside the sync core and returns the events it broadcast. The server
	// rate limits detection, so an empty result is normal.
	DetectExternalChanges(ctx context.Context) ([]models.SyncEvent, error)
}
