package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/database"
	"github.com/stemsi/exstem-cbt/internal/handler"
	"github.com/stemsi/exstem-cbt/internal/logger"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/repository"
	"github.com/stemsi/exstem-cbt/internal/router"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Strs("non_shuffled_subjects", cfg.NonShuffledSubjects).
		Msg("Starting ExStem CBT")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	stores := service.Stores{
		Students:  repository.NewStudentRepository(pool),
		Subjects:  repository.NewSubjectRepository(pool),
		Questions: repository.NewQuestionRepository(pool),
		Sessions:  repository.NewExamSessionRepository(pool),
		Answers:   repository.NewAnswerRepository(pool),
	}

	// ─── Initialize Services ──────────────────────────────────────────
	scorer := service.NewScorer(stores.Answers)
	sessionService := service.NewExamSessionService(stores, scorer, nil, log)
	answerService := service.NewAnswerService(stores, nil, log)
	paperService := service.NewPaperService(stores, rdb, cfg.PaperCacheTTL, cfg.NonShuffledSubjects, log)
	eventService := service.NewClientEventService(stores.Sessions, rdb, nil, log)
	subjectService := service.NewSubjectService(stores.Subjects, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		System:      handler.NewSystemHandler(pool, rdb, log),
		Subject:     handler.NewSubjectHandler(subjectService, log),
		ExamSession: handler.NewExamSessionHandler(sessionService, answerService, paperService, eventService, log),
		WS:          handler.NewWSHandler(sessionService, answerService, eventService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if rdb != nil {
		eventWorker := worker.NewClientEventWorker(pool, rdb, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			eventWorker.Start(workerCtx)
		}()
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	if err := paperService.Prewarm(ctx); err != nil {
		log.Warn().Err(err).Msg("Paper cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	var createLimiter *middleware.RateLimiter
	if cfg.CreateRatePerMinute > 0 {
		createLimiter = middleware.NewRateLimiter(ctx, cfg.CreateRatePerMinute, time.Minute)
	}
	r := router.SetupRouter(handlers, cfg, createLimiter, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Workers flush their buffers before returning.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
