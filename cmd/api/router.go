package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/interview-api/internal/config"
	"github.com/yourusername/interview-api/internal/handler"
	"github.com/yourusername/interview-api/internal/middleware"
	"github.com/yourusername/interview-api/internal/pkg/logger"
	"github.com/yourusername/interview-api/internal/pkg/metrics"
)

type routerOptions struct {
	handler     *handler.CandidateHandler
	rateLimiter *middleware.RateLimiter // nil - без ограничения частоты
	rateLimit   config.RateLimitConfig
	corsOrigins []string
}

// newRouter собирает маршруты API
func newRouter(opts routerOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger.Component("http")))

	// В production не доверяем прокси-заголовкам
	trusted := []string{"127.0.0.1", "::1"}
	if isProduction() {
		trusted = nil
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		logger.Warn().Err(err).Msg("Failed to set trusted proxies")
	}

	origins := opts.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", handler.IdempotencyKeyHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))

	uploadLimit, answerLimit := noLimit, noLimit
	if opts.rateLimiter != nil {
		uploadLimit = opts.rateLimiter.Limit(middleware.UploadRateLimitConfig(opts.rateLimit.UploadsPerMinute))
		answerLimit = opts.rateLimiter.Limit(middleware.AnswerRateLimitConfig(opts.rateLimit.AnswersPerMinute))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := opts.handler
	api := router.Group("/api")
	{
		api.GET("/stats", h.GetStats)

		candidates := api.Group("/candidates")
		{
			candidates.POST("", uploadLimit, h.CreateCandidate)
			candidates.GET("", h.ListCandidates)
			candidates.GET("/export", h.ExportCandidates)

			candidateWithID := candidates.Group("/:id")
			candidateWithID.Use(middleware.ExtractIDParam("id", handler.CandidateIDKey))
			{
				candidateWithID.GET("", h.GetCandidate)
				candidateWithID.PATCH("/info", h.SupplyInfo)
				candidateWithID.POST("/answers", answerLimit, h.SubmitAnswer)
				candidateWithID.GET("/answers", h.GetCandidateAnswers)
				candidateWithID.PATCH("/pause", h.SetPaused)
			}
		}
	}

	return router
}

func noLimit(c *gin.Context) { c.Next() }

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
