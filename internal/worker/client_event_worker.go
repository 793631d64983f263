package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Redis rejects BLPOP timeouts under 1s
)

var eventColumns = []string{"exam_session_id", "event_type", "detail", "recorded_at"}

// EventDB is the part of *pgxpool.Pool the worker writes through.
type EventDB interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ClientEventWorker drains the client event queue into exam_client_events.
type ClientEventWorker struct {
	db      EventDB
	rdb     *redis.Client
	backoff time.Duration // pause after a requeue
	log     zerolog.Logger
}

func NewClientEventWorker(db EventDB, rdb *redis.Client, log zerolog.Logger) *ClientEventWorker {
	return &ClientEventWorker{
		db:      db,
		rdb:     rdb,
		backoff: 2 * time.Second,
		log:     log.With().Str("component", "client_event_worker").Logger(),
	}
}

// Start runs until ctx is cancelled. Call in a goroutine.
func (w *ClientEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*model.ClientEvent, 0, BatchSize)
	lastFlush := time.Now()

	for {
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistClientEventsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		ev, err := decodeEvent([]byte(result[1]))
		if err != nil {
			// Malformed payloads can never succeed.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed event")
			continue
		}
		buffer = append(buffer, ev)
	}
}

func decodeEvent(data []byte) (*model.ClientEvent, error) {
	var ev model.ClientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Type.Valid() {
		return nil, errors.New("unknown event type " + string(ev.Type))
	}
	return &ev, nil
}

// eventRow converts an event into the column order of eventColumns.
func eventRow(ev *model.ClientEvent) []any {
	var detail any
	if len(ev.Detail) > 0 {
		detail = string(ev.Detail)
	}
	return []any{ev.ExamSessionID, string(ev.Type), detail, ev.RecordedAt}
}

// flushSafe tries a bulk COPY, then row-by-row inserts, then requeues what is left.
func (w *ClientEventWorker) flushSafe(ctx context.Context, batch []*model.ClientEvent) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, retrying row by row")
		w.fallbackInsert(ctx, batch)
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Flushed client events")
}

func (w *ClientEventWorker) bulkInsert(ctx context.Context, batch []*model.ClientEvent) error {
	rows := make([][]any, 0, len(batch))
	for _, ev := range batch {
		rows = append(rows, eventRow(ev))
	}
	_, err := w.db.CopyFrom(ctx, pgx.Identifier{"exam_client_events"}, eventColumns, pgx.CopyFromRows(rows))
	return err
}

func (w *ClientEventWorker) fallbackInsert(ctx context.Context, batch []*model.ClientEvent) {
	var requeue []*model.ClientEvent

	for _, ev := range batch {
		_, err := w.db.Exec(ctx,
			`INSERT INTO exam_client_events (exam_session_id, event_type, detail, recorded_at)
			 VALUES ($1, $2, $3::jsonb, $4)`,
			eventRow(ev)...,
		)
		if err == nil {
			continue
		}
		if isForeignKeyViolation(err) {
			w.log.Error().Str("session_id", ev.ExamSessionID.String()).Msg("Dropping event for unknown session")
			continue
		}
		w.log.Error().Err(err).Str("session_id", ev.ExamSessionID.String()).Msg("Insert failed, requeueing")
		requeue = append(requeue, ev)
	}

	if len(requeue) > 0 {
		w.requeue(ctx, requeue)
	}
}

func (w *ClientEventWorker) requeue(ctx context.Context, items []*model.ClientEvent) {
	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, config.WorkerKey.PersistClientEventsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("Failed to requeue client events, events lost")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued client events")
	// Back off so a database outage does not spin the loop.
	time.Sleep(w.backoff)
}

func (w *ClientEventWorker) shutdown(buffer []*model.ClientEvent) {
	w.log.Info().Int("buffered", len(buffer)).Msg("Worker stopping, flushing buffer")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(ctx, buffer)
	}
	w.log.Info().Msg("Worker stopped")
}
