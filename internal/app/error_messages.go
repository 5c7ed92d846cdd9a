// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// report-sync HTTP handlers and middleware.
//
// All Msg* constants are human-readable message strings that are written into
// HTTP response bodies or log entries to describe the outcome of an operation.
// Keeping them in one place ensures consistent wording throughout the API.
package app

const (
	// MsgInternalServerError replaces the message of every 500 response so
	// store and driver details never reach the client.
	MsgInternalServerError = "internal server error"

	// MsgNoUserIDProvided is logged when a mutating request carries no
	// X-User-ID header.
	MsgNoUserIDProvided = "request without user"

	// MsgInvalidUpdateBody is logged when the body of a record update cannot
	// be decoded.
	MsgInvalidUpdateBody = "invalid update body"

	// MsgInvalidBulkBody is logged when the body of a bulk update cannot be
	// decoded.
	MsgInvalidBulkBody = "invalid bulk body"

	// MsgInvalidLockBody is logged when a lock request cannot be decoded or
	// asks for a negative TTL.
	MsgInvalidLockBody = "invalid lock body"

	// MsgInvalidSyncBody is logged when a client sync request cannot be
	// decoded.
	MsgInvalidSyncBody = "invalid sync body"

	// MsgUpdateRejected is logged when the sync core refuses a record update,
	// for example because of a version conflict or a lock held by another
	// user.
	MsgUpdateRejected = "record update rejected"

	// MsgBulkUpdateRejected is logged when a bulk update fails as a whole.
	MsgBulkUpdateRejected = "bulk update rejected"

	// MsgLockRejected is logged when a lock cannot be acquired.
	MsgLockRejected = "lock rejected"

	// MsgUnlockRejected is logged when a lock release fails.
	MsgUnlockRejected = "unlock rejected"

	// MsgRecordNotFound is logged when a record read fails.
	MsgRecordNotFound = "error getting record"

	// MsgPairingFailed is logged when the records of a pairing key cannot be
	// listed.
	MsgPairingFailed = "error getting paired records"

	// MsgClientSyncFailed is logged when the offline backlog of a connection
	// cannot be delivered.
	MsgClientSyncFailed = "client sync failed"

	// MsgExternalDetectionFailed is logged when external change detection
	// cannot read the store.
	MsgExternalDetectionFailed = "external change detection failed"
)
