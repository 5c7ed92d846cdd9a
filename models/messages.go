package models

import "time"

// MessageType is the "type" discriminator of every WebSocket message.
type MessageType string

// Client → server message types.
const (
	MsgHeartbeat   MessageType = "heartbeat"
	MsgSubscribe   MessageType = "subscribe"
	MsgSyncRequest MessageType = "sync_request"
)

// Server → client message types.
const (
	MsgConnectionEstablished MessageType = "connection_established"
	MsgHeartbeatResponse     MessageType = "heartbeat_response"
	MsgSubscriptionUpdated   MessageType = "subscription_updated"
	MsgSyncEvent             MessageType = "sync_event"
	MsgSyncBatch             MessageType = "sync_batch"
	MsgError                 MessageType = "error"
	MsgConflict              MessageType = "conflict"
)

// Error codes carried by [ErrorMessage].
const (
	ErrCodeInvalidMessage     = "INVALID_MESSAGE"
	ErrCodeTooManyConnections = "TOO_MANY_CONNECTIONS"
	ErrCodeManualRefresh      = "MANUAL_REFRESH_REQUIRED"
	ErrCodeSyncFailed         = "SYNC_FAILED"
	ErrCodeSubscriptionFailed = "SUBSCRIPTION_FAILED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// WildcardTopic subscribes a client to every event.
const WildcardTopic = "*"

// ConnectionEstablishedMessage is the first message on every accepted
// connection.
type ConnectionEstablishedMessage struct {
	Type              MessageType `json:"type"`
	ConnectionID      string      `json:"connection_id"`
	UserID            string      `json:"user_id"`
	ServerTime        time.Time   `json:"server_time"`
	HeartbeatInterval float64     `json:"heartbeat_interval"`
	Resumed           bool        `json:"resumed,omitempty"`
}

func NewConnectionEstablishedMessage(connectionID, userID string, heartbeat time.Duration, resumed bool, now time.Time) ConnectionEstablishedMessage {
	return ConnectionEstablishedMessage{
		Type:              MsgConnectionEstablished,
		ConnectionID:      connectionID,
		UserID:            userID,
		ServerTime:        now,
		HeartbeatInterval: heartbeat.Seconds(),
		Resumed:           resumed,
	}
}

type HeartbeatResponseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewHeartbeatResponseMessage(now time.Time) HeartbeatResponseMessage {
	return HeartbeatResponseMessage{Type: MsgHeartbeatResponse, Timestamp: now}
}

type SubscriptionUpdatedMessage struct {
	Type   MessageType `json:"type"`
	Topics []string    `json:"topics"`
}

func NewSubscriptionUpdatedMessage(topics []string) SubscriptionUpdatedMessage {
	return SubscriptionUpdatedMessage{Type: MsgSubscriptionUpdated, Topics: topics}
}

// SyncEventMessage is the point-message form of a single [SyncEvent].
type SyncEventMessage struct {
	Type      MessageType    `json:"type"`
	EventType EventType      `json:"event_type"`
	RecordID  string         `json:"record_id"`
	Data      map[string]any `json:"data"`
	Version   int64          `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id"`
}

func NewSyncEventMessage(e SyncEvent) SyncEventMessage {
	return SyncEventMessage{
		Type:      MsgSyncEvent,
		EventType: e.EventType,
		RecordID:  e.RecordID,
		Data:      e.Data,
		Version:   e.Version,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
	}
}

// SyncBatchMessage carries two or more events for one client.
type SyncBatchMessage struct {
	Type                   MessageType        `json:"type"`
	Events                 []SyncEventMessage `json:"events"`
	Count                  int                `json:"count"`
	BatchID                string             `json:"batch_id"`
	CompressionRecommended bool               `json:"compression_recommended,omitempty"`
}

func NewSyncBatchMessage(batchID string, events []SyncEvent, compressionThreshold int) SyncBatchMessage {
	msgs := make([]SyncEventMessage, 0, len(events))
	for _, e := range events {
		msgs = append(msgs, NewSyncEventMessage(e))
	}

	return SyncBatchMessage{
		Type:                   MsgSyncBatch,
		Events:                 msgs,
		Count:                  len(msgs),
		BatchID:                batchID,
		CompressionRecommended: compressionThreshold > 0 && len(msgs) > compressionThreshold,
	}
}

type ErrorMessage struct {
	Type      MessageType    `json:"type"`
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

func NewErrorMessage(code, message string, details map[string]any) ErrorMessage {
	return ErrorMessage{Type: MsgError, ErrorCode: code, Message: message, Details: details}
}

type ConflictMessage struct {
	Type            MessageType  `json:"type"`
	RecordID        string       `json:"record_id"`
	ConflictType    ConflictType `json:"conflict_type"`
	Message         string       `json:"message"`
	ConflictingUser string       `json:"conflicting_user"`
	Timestamp       time.Time    `json:"timestamp"`
}

func NewConflictMessage(n ConflictNotification) ConflictMessage {
	return ConflictMessage{
		Type:            MsgConflict,
		RecordID:        n.RecordID,
		ConflictType:    n.ConflictType,
		Message:         n.Message,
		ConflictingUser: n.ConflictingUser,
		Timestamp:       n.Timestamp,
	}
}

// ClientMessage is a validated message received from a client.
type ClientMessage interface {
	MessageType() MessageType
}

type HeartbeatRequest struct{}

func (HeartbeatRequest) MessageType() MessageType { return MsgHeartbeat }

// SubscribeRequest replaces the connection's topic set. A topic is an event
// type, a record id, or [WildcardTopic].
type SubscribeRequest struct {
	Topics []string
}

func (SubscribeRequest) MessageType() MessageType { return MsgSubscribe }

// SyncRequest asks for the buffered backlog, optionally only events after
// LastSyncTimestamp.
type SyncRequest struct {
	LastSyncTimestamp *time.Time
}

func (SyncRequest) MessageType() MessageType { return MsgSyncRequest }
