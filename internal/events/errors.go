package events

import "errors"

var (
	// ErrInvalidEvent is returned for an event without a record id or with
	// an unknown event type.
	ErrInvalidEvent = errors.New("invalid sync event")
	// ErrInvalidTopic is returned for an empty subscription topic.
	ErrInvalidTopic = errors.New("invalid subscription topic")
	// ErrAllDeliveriesFailed is wrapped into the BroadcastFailed error of a
	// flush in which no targeted client received its payload.
	ErrAllDeliveriesFailed = errors.New("delivery failed for every targeted client")
)
