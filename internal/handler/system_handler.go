package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/response"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports liveness of the process and its dependencies.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. db and rdb may be nil.
func NewSystemHandler(db Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	Redis           string `json:"redis"`
	EventQueueDepth *int64 `json:"event_queue_depth,omitempty"`
	Uptime          string `json:"uptime"`
	Goroutines      int    `json:"goroutines"`
}

// Health godoc
// GET /health
// Responds 503 when the database or a configured Redis is unreachable.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}

	switch {
	case h.db == nil:
		report.Database = "disabled"
	case h.db.Ping(ctx) != nil:
		report.Database = "down"
		report.Status = "degraded"
	default:
		report.Database = "ok"
	}

	if h.rdb == nil {
		report.Redis = "disabled"
	} else if depth, err := h.rdb.LLen(ctx, config.WorkerKey.PersistClientEventsQueue).Result(); err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		report.Redis = "down"
		report.Status = "degraded"
	} else {
		report.Redis = "ok"
		report.EventQueueDepth = &depth
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}
