package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/report-sync/internal/events"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/resilience"
	"github.com/MKhiriev/report-sync/internal/syncerr"
	"github.com/MKhiriev/report-sync/models"
)

// OnConnect subscribes a new connection. A resumed connection gets the
// topics it had before it went away and its offline backlog. The backlog
// is taken before the subscription starts, so every event reaches the
// connection once: either live or from the backlog.
func (s *syncService) OnConnect(ctx context.Context, conn *realtime.Connection, resumed bool) {
	s.handoff.Lock()
	var (
		buf        *offlineBuffer
		hasBacklog bool
	)
	if resumed {
		buf, hasBacklog = s.offline.take(conn.ID())
		// batches queued before now were buffered for this connection already
		if err := s.Broker.Flush(ctx); err != nil {
			s.logger.Debug().Err(err).
				Str("func", "syncService.OnConnect").
				Msg("pending events not delivered")
		}
	}

	topics := []string{models.WildcardTopic}
	if hasBacklog && len(buf.topics) > 0 {
		topics = slices.Clone(buf.topics)
	}
	err := s.Broker.SubscribeClient(conn, topics)
	s.handoff.Unlock()

	if err != nil {
		if hasBacklog {
			s.offline.restore(conn.ID(), buf, buf.events)
		}
		s.logger.Err(err).
			Str("func", "syncService.OnConnect").
			Str("connection_id", conn.ID()).
			Msg("failed to subscribe connection")
		return
	}
	conn.SetTopics(topics)
	s.Broker.OptimizeBatchSettings(s.Connections.Count())

	if level := s.Degradation.Level(); !level.Settings().RealtimeEnabled {
		_ = conn.SendMessage(ctx, manualRefreshMessage(level))
	}

	if !hasBacklog {
		return
	}
	if _, err := s.sendBacklog(ctx, "SyncReconnectedClient", conn, buf, nil); err != nil {
		s.logger.Err(err).
			Str("func", "syncService.OnConnect").
			Str("connection_id", conn.ID()).
			Msg("failed to deliver backlog to resumed connection")
	}
}

// HandleMessage answers subscribe and sync requests of a connection.
func (s *syncService) HandleMessage(ctx context.Context, conn *realtime.Connection, msg models.ClientMessage) error {
	switch m := msg.(type) {
	case models.SubscribeRequest:
		if err := s.Broker.SubscribeClient(conn, m.Topics); err != nil {
			_ = conn.SendMessage(ctx, models.NewErrorMessage(models.ErrCodeSubscriptionFailed, err.Error(), nil))
			return err
		}
		conn.SetTopics(m.Topics)
		return conn.SendMessage(ctx, models.NewSubscriptionUpdatedMessage(s.Broker.Topics(conn.ID())))
	case models.SyncRequest:
		if _, err := s.SyncClient(ctx, conn.ID(), m.LastSyncTimestamp); err != nil {
			_ = conn.SendMessage(ctx, models.NewErrorMessage(models.ErrCodeSyncFailed, err.Error(), nil))
			return err
		}
		return nil
	case models.HeartbeatRequest:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedMessage, msg)
	}
}

// connectionClosed keeps a backlog for the connection id so the client can
// resume it. Nothing is buffered for connections closed by shutdown.
func (s *syncService) connectionClosed(ctx context.Context, conn *realtime.Connection, reason realtime.DisconnectReason) {
	s.Broker.UnsubscribeClient(conn.ID())
	if reason != realtime.ReasonShutdown {
		s.offline.markOffline(conn.ID(), conn.UserID(), conn.Topics(), s.now())
	}
	s.Broker.OptimizeBatchSettings(s.Connections.Count())

	s.logger.Debug().
		Str("func", "syncService.connectionClosed").
		Str("connection_id", conn.ID()).
		Str("user_id", conn.UserID()).
		Str("reason", string(reason)).
		Msg("connection closed")
}

// levelChanged moves the broker to the settings of the new level and tells
// every client when realtime delivery stops.
func (s *syncService) levelChanged(ctx context.Context, from, to resilience.Level, settings resilience.LevelSettings) {
	if to == resilience.LevelNormal {
		s.Broker.ResetSettings()
	} else {
		s.Broker.ApplySettings(settings.BatchSize, settings.UpdateInterval)
	}

	if from.Settings().RealtimeEnabled && !settings.RealtimeEnabled {
		sent := s.Connections.BroadcastMessage(ctx, manualRefreshMessage(to))
		s.logger.Warn().
			Str("func", "syncService.levelChanged").
			Str("level", to.String()).
			Int("notified", sent).
			Msg("realtime delivery stopped")
	}
}

func manualRefreshMessage(level resilience.Level) models.ErrorMessage {
	return models.NewErrorMessage(models.ErrCodeManualRefresh,
		"realtime updates are paused, refresh manually",
		map[string]any{"level": level.String()})
}

func (s *syncService) SyncClient(ctx context.Context, connectionID string, since *time.Time) (int, error) {
	return s.drain(ctx, "SyncClient", connectionID, since)
}

func (s *syncService) SyncReconnectedClient(ctx context.Context, connectionID string, disconnectedAt *time.Time) (int, error) {
	return s.drain(ctx, "SyncReconnectedClient", connectionID, disconnectedAt)
}

// drain sends the backlog of connectionID in chunks.
func (s *syncService) drain(ctx context.Context, op, connectionID string, since *time.Time) (int, error) {
	conn, ok := s.Connections.GetConnection(connectionID)
	if !ok {
		return 0, syncerr.New(syncerr.KindConnection, op, "", fmt.Errorf("%w: %s", ErrUnknownConnection, connectionID))
	}

	buf, ok := s.offline.take(connectionID)
	if !ok {
		return 0, nil
	}
	return s.sendBacklog(ctx, op, conn, buf, since)
}

// sendBacklog delivers a taken backlog. Events that could not be sent are
// put back into the backlog.
func (s *syncService) sendBacklog(ctx context.Context, op string, conn *realtime.Connection, buf *offlineBuffer, since *time.Time) (int, error) {
	pending := backlog(buf.events, since)

	sent, err := s.sendChunks(ctx, conn, pending)
	if err != nil {
		s.offline.restore(conn.ID(), buf, pending[sent:])
		return sent, syncerr.New(syncerr.KindConnection, op, "", err)
	}

	s.logger.Info().
		Str("func", "syncService."+op).
		Str("connection_id", conn.ID()).
		Int("delivered", sent).
		Int("dropped", buf.dropped).
		Msg("offline backlog delivered")
	return sent, nil
}

// backlog filters, deduplicates and orders buffered events.
func backlog(buffered []models.SyncEvent, since *time.Time) []models.SyncEvent {
	filtered := make([]models.SyncEvent, 0, len(buffered))
	for _, e := range buffered {
		if since == nil || e.Timestamp.After(*since) {
			filtered = append(filtered, e)
		}
	}
	filtered = events.DeduplicateEvents(filtered)
	slices.SortStableFunc(filtered, func(a, b models.SyncEvent) int {
		return cmp.Compare(a.Timestamp.UnixNano(), b.Timestamp.UnixNano())
	})
	return filtered
}

func (s *syncService) sendChunks(ctx context.Context, conn *realtime.Connection, pending []models.SyncEvent) (int, error) {
	size := max(s.syncCfg.ChunkSize, 1)

	sent := 0
	for chunk := range slices.Chunk(pending, size) {
		if sent > 0 {
			if err := s.sleep(ctx, s.syncCfg.ChunkDelay); err != nil {
				return sent, err
			}
		}

		var msg any
		if len(chunk) == 1 {
			msg = models.NewSyncEventMessage(chunk[0])
		} else {
			msg = models.NewSyncBatchMessage(s.newID(), chunk, s.eventCfg.CompressionThreshold)
		}
		if err := conn.SendMessage(ctx, msg); err != nil {
			return sent, err
		}
		sent += len(chunk)
	}
	return sent, nil
}

// RunBufferSweeper drops offline backlogs older than the buffer TTL.
func (s *syncService) RunBufferSweeper(ctx context.Context) error {
	interval := s.syncCfg.BufferSweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if dropped := s.offline.sweep(s.now()); len(dropped) > 0 {
				s.logger.Info().
					Str("func", "syncService.RunBufferSweeper").
					Strs("connection_ids", dropped).
					Msg("expired offline backlogs dropped")
			}
		}
	}
}
