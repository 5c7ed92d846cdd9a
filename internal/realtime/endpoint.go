package realtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/models"
)

// UserIDHeader carries the acting user when the query has no user_id.
const UserIDHeader = "X-User-ID"

// MessageHandler receives decoded client messages. Heartbeats are answered
// by the endpoint and never reach the handler.
type MessageHandler interface {
	// OnConnect is called after connection_established was sent. resumed is
	// true when the client asked for a previously used connection id.
	OnConnect(ctx context.Context, conn *Connection, resumed bool)
	HandleMessage(ctx context.Context, conn *Connection, msg models.ClientMessage) error
}

// Endpoint is the WebSocket HTTP handler.
type Endpoint struct {
	manager  *Manager
	handler  MessageHandler
	cfg      config.WebSocket
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewEndpoint(manager *Manager, handler MessageHandler, cfg config.WebSocket, allowedOrigins []string, log *logger.Logger) *Endpoint {
	return &Endpoint{
		manager: manager,
		handler: handler,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := e.logger

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = r.Header.Get(UserIDHeader)
	}
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	requested := r.URL.Query().Get("connection_id")
	connID := requested
	if connID == "" {
		connID = uuid.Must(uuid.NewV7()).String()
	} else if _, live := e.manager.GetConnection(connID); live {
		http.Error(w, "connection id already in use", http.StatusConflict)
		return
	}

	ws, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Str("func", "Endpoint.ServeHTTP").Str("user_id", userID).Msg("upgrade failed")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	conn := NewConnection(connID, userID, NewWebSocketTransport(ws, e.cfg.WriteTimeout, e.cfg.ReadLimit), e.manager.now())
	if err = e.manager.AddConnection(ctx, conn); err != nil {
		log.Warn().Err(err).Str("func", "Endpoint.ServeHTTP").Str("user_id", userID).Msg("connection refused")
		_ = conn.transport.Close(websocket.ClosePolicyViolation, err.Error())
		return
	}

	established := models.NewConnectionEstablishedMessage(connID, userID, e.cfg.HeartbeatInterval, requested != "", e.manager.now())
	if err = conn.SendMessage(ctx, established); err != nil {
		e.manager.ForceRemove(ctx, connID, ReasonClosed)
		return
	}
	e.handler.OnConnect(ctx, conn, requested != "")

	e.readLoop(ctx, conn)
}

func (e *Endpoint) readLoop(ctx context.Context, conn *Connection) {
	defer e.manager.RemoveConnection(ctx, conn.id)

	for {
		data, err := conn.transport.ReadMessage()
		if err != nil {
			if !IsCloseError(err) && !conn.Closed() {
				e.logger.Debug().Err(err).
					Str("func", "Endpoint.readLoop").
					Str("connection_id", conn.id).
					Msg("read failed")
			}
			return
		}
		e.manager.UpdateLastSeen(conn.id)

		msg, err := ParseClientMessage(data)
		if err != nil {
			_ = conn.SendMessage(ctx, models.NewErrorMessage(models.ErrCodeInvalidMessage, err.Error(), nil))
			continue
		}

		if _, ok := msg.(models.HeartbeatRequest); ok {
			_ = conn.SendMessage(ctx, models.NewHeartbeatResponseMessage(e.manager.now()))
			continue
		}

		if err = e.handler.HandleMessage(ctx, conn, msg); err != nil {
			e.logger.Warn().Err(err).
				Str("func", "Endpoint.readLoop").
				Str("connection_id", conn.id).
				Str("type", string(msg.MessageType())).
				Msg("message handling failed")
		}
	}
}

type clientEnvelope struct {
	Type              models.MessageType `json:"type"`
	Topics            []string           `json:"topics,omitempty"`
	LastSyncTimestamp *string            `json:"last_sync_timestamp,omitempty"`
	// Timestamp is the optional client clock on heartbeats.
	Timestamp *string `json:"timestamp,omitempty"`
}

// ParseClientMessage decodes and validates one client frame. Any malformed
// frame yields an error wrapping ErrInvalidMessage or ErrUnknownMessageType
// and no partial message.
func ParseClientMessage(data []byte) (models.ClientMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var env clientEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch env.Type {
	case models.MsgHeartbeat:
		return models.HeartbeatRequest{}, nil

	case models.MsgSubscribe:
		if env.Topics == nil {
			return nil, fmt.Errorf("%w: topics are required", ErrInvalidMessage)
		}
		topics := make([]string, 0, len(env.Topics))
		for _, t := range env.Topics {
			t = strings.TrimSpace(t)
			if t == "" {
				return nil, fmt.Errorf("%w: empty topic", ErrInvalidMessage)
			}
			if !slices.Contains(topics, t) {
				topics = append(topics, t)
			}
		}
		return models.SubscribeRequest{Topics: topics}, nil

	case models.MsgSyncRequest:
		req := models.SyncRequest{}
		if env.LastSyncTimestamp != nil && *env.LastSyncTimestamp != "" {
			ts, err := time.Parse(time.RFC3339Nano, *env.LastSyncTimestamp)
			if err != nil {
				return nil, fmt.Errorf("%w: last_sync_timestamp: %v", ErrInvalidMessage, err)
			}
			req.LastSyncTimestamp = &ts
		}
		return req, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

// IsInvalidMessage reports whether err came from ParseClientMessage.
func IsInvalidMessage(err error) bool {
	return errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrUnknownMessageType)
}
