package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
)

const eventCountTTL = 24 * time.Hour

// ClientEventService accepts browser signals (tab switches, connectivity changes).
// Events are logged and queued for persistence; they never change session state.
type ClientEventService struct {
	sessions SessionStore
	rdb      *redis.Client
	clock    Clock
	log      zerolog.Logger
}

// NewClientEventService creates a new ClientEventService. rdb may be nil, in
// which case events are only logged.
func NewClientEventService(sessions SessionStore, rdb *redis.Client, clock Clock, log zerolog.Logger) *ClientEventService {
	return &ClientEventService{
		sessions: sessions,
		rdb:      rdb,
		clock:    clock,
		log:      log.With().Str("component", "client_event_service").Logger(),
	}
}

// Record logs the event and enqueues it for the client event worker.
func (s *ClientEventService) Record(ctx context.Context, sessionID uuid.UUID, eventType model.ClientEventType, detail json.RawMessage) (*model.ClientEvent, error) {
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrValidation, eventType)
	}
	if len(detail) > 0 && !json.Valid(detail) {
		return nil, fmt.Errorf("%w: detail must be valid JSON", ErrValidation)
	}

	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	ev := &model.ClientEvent{
		ExamSessionID: sessionID,
		Type:          eventType,
		Detail:        detail,
		RecordedAt:    s.clock.now(),
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("status", string(session.Status)).
		Str("event", string(eventType)).
		Msg("Client event")

	if s.rdb == nil {
		return ev, nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	countKey := config.CacheKey.SessionEventCountKey(sessionID.String())
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistClientEventsQueue, payload)
	pipe.HIncrBy(ctx, countKey, string(eventType), 1)
	pipe.Expire(ctx, countKey, eventCountTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("queue event: %w", err)
	}
	return ev, nil
}

// Counts returns the number of events of each type seen for a session.
func (s *ClientEventService) Counts(ctx context.Context, sessionID uuid.UUID) (map[model.ClientEventType]int64, error) {
	if _, err := loadSession(ctx, s.sessions, sessionID); err != nil {
		return nil, err
	}

	counts := make(map[model.ClientEventType]int64)
	if s.rdb == nil {
		return counts, nil
	}

	raw, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionEventCountKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get event counts: %w", err)
	}
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[model.ClientEventType(k)] = n
	}
	return counts, nil
}
