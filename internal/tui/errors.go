// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"errors"
	"strings"

	"github.com/MKhiriev/report-sync/internal/adapter"
)

var errInvalidRefreshInterval = errors.New("refresh interval must be positive")

func humanizeServerUnavailableError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, adapter.ErrServiceUnavailable) {
		return "Server is offline: " + err.Error()
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "dial tcp") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "network is unreachable") ||
		strings.Contains(s, "i/o timeout") ||
		strings.Contains(s, "context deadline exceeded") {
		return "Network is down or the server is unreachable"
	}

	return err.Error()
}
