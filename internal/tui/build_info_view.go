// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"strings"

	"github.com/MKhiriev/report-sync/models"
)

func renderBuildInfoWindow(info models.AppBuildInfo, serverVersion string) string {
	var b strings.Builder

	b.WriteString("Application: report-sync monitor\n")
	b.WriteString("Version: ")
	b.WriteString(valueOrNA(info.BuildVersion()))
	b.WriteString("\n")
	b.WriteString("Date: ")
	b.WriteString(valueOrNA(info.BuildDate()))
	b.WriteString("\n")
	b.WriteString("Commit: ")
	b.WriteString(valueOrNA(info.BuildCommit()))
	b.WriteString("\n")
	b.WriteString("Server version: ")
	b.WriteString(valueOrNA(serverVersion))

	return renderPage("ABOUT", b.String(), "esc: back")
}

func valueOrNA(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "N/A"
	}
	return v
}
