package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/handler"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/validator"
)

// subjectsMaxAge is how long clients may cache the subject list.
const subjectsMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	System      *handler.SystemHandler
	Subject     *handler.SubjectHandler
	ExamSession *handler.ExamSessionHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with their middlewares.
// createLimiter may be nil to leave session creation unlimited.
func SetupRouter(handlers *Handlers, cfg *config.Config, createLimiter *middleware.RateLimiter, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	validator.Setup()

	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// An empty AllowedOrigins list allows every origin.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrRouteNotFound)
	})

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── Reference data ────────────────────────────────────────────────
	api.GET("/subjects", middleware.CacheControl(subjectsMaxAge), handlers.Subject.List)

	// ─── Exam sessions ─────────────────────────────────────────────────
	sessions := api.Group("/exam-sessions")
	sessions.Use(middleware.NoStore())
	{
		create := []gin.HandlerFunc{handlers.ExamSession.Create}
		if createLimiter != nil {
			create = append([]gin.HandlerFunc{createLimiter.Middleware()}, create...)
		}
		sessions.POST("", create...)

		sessions.GET("/:session_id", handlers.ExamSession.Get)
		sessions.POST("/:session_id/start", handlers.ExamSession.Start)
		sessions.GET("/:session_id/questions", handlers.ExamSession.Questions)
		sessions.GET("/:session_id/answers", handlers.ExamSession.SavedAnswers)
		sessions.PUT("/:session_id/answers", handlers.ExamSession.SaveAnswer)
		sessions.POST("/:session_id/submit", handlers.ExamSession.Submit)
		sessions.GET("/:session_id/results", handlers.ExamSession.Results)
		sessions.POST("/:session_id/events", handlers.ExamSession.RecordEvent)
		sessions.GET("/:session_id/events", handlers.ExamSession.EventCounts)
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/exam-sessions/:session_id/stream", handlers.WS.Stream)
	}

	return router
}
