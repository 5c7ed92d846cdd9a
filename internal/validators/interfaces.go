// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks record updates before they reach the sync core.
//
// A [Validator] rejects structurally broken input: empty or oversized record
// ids, payloads that do not encode as JSON or exceed the configured size.
// Version conflicts and locks are not its concern.
package validators

import "context"

// Validator validates a value, optionally only the named fields of it.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
