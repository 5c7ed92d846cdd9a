// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the status monitor application runtime.
//
// It waits for the report-sync server to answer, then hands the terminal
// over to the dashboard until the user quits.
package client
