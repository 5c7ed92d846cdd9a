// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors returned by the request parsing helpers of this package.
// Callers can match against them with [errors.Is].
var (
	// ErrEmptyUserIDHeader is returned by the user middleware when the
	// request carries no "X-User-ID" header.
	ErrEmptyUserIDHeader = errors.New("empty `X-User-ID` header")

	// ErrInvalidJSON is returned when a request body is not valid JSON for
	// the expected request type.
	ErrInvalidJSON = errors.New("invalid JSON was passed")

	// ErrInvalidTTL is returned for a negative lock TTL.
	ErrInvalidTTL = errors.New("ttl_seconds cannot be negative")
)
