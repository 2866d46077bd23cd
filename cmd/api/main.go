package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/yourusername/interview-api/internal/ai"
	"github.com/yourusername/interview-api/internal/config"
	"github.com/yourusername/interview-api/internal/domain/repository"
	"github.com/yourusername/interview-api/internal/handler"
	"github.com/yourusername/interview-api/internal/middleware"
	"github.com/yourusername/interview-api/internal/pkg/logger"
	minioRepo "github.com/yourusername/interview-api/internal/repository/minio"
	"github.com/yourusername/interview-api/internal/repository/memory"
	pgRepo "github.com/yourusername/interview-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/interview-api/internal/repository/redis"
	"github.com/yourusername/interview-api/internal/resume"
	"github.com/yourusername/interview-api/internal/service"
	"github.com/yourusername/interview-api/internal/service/interview"
	"github.com/yourusername/interview-api/pkg/database"
)

func main() {
	// .env не обязателен
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("Не удалось прочитать .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	logger.Init(cfg.Log)
	log := logger.Component("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Хранилище сессий ---
	deps := &interview.Dependencies{}
	var candidateRepo repository.CandidateRepository
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("Используется хранилище в памяти: данные не переживут перезапуск")
		store := memory.NewStore()
		candidateRepo = store.Candidates()
		deps.Questions = store.Questions()
		deps.Answers = store.Answers()
		deps.Messages = store.Messages()
		deps.Tx = store.Transactor()
	default:
		db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		if err := database.MigrateDB(db, os.Getenv("MIGRATIONS_URL")); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		sqlDB, _ := database.GetSQLDB(db)
		if sqlDB != nil {
			defer sqlDB.Close()
		}
		candidateRepo = pgRepo.NewCandidateRepo(db)
		deps.Questions = pgRepo.NewQuestionRepo(db)
		deps.Answers = pgRepo.NewAnswerRepo(db)
		deps.Messages = pgRepo.NewChatMessageRepo(db)
		deps.Tx = pgRepo.NewTransactor(db)
	}
	deps.Candidates = candidateRepo

	// --- Redis: кеш, блокировки, ограничение частоты ---
	var (
		cacheRepo   repository.CacheRepository = redisRepo.NoOpCache{}
		redisClient redis.UniversalClient
	)
	deps.Locker = interview.NewLocalLocker()
	if cfg.Redis.Enabled {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		redisCache, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize CacheRepo")
		}
		cacheRepo = redisCache
		deps.Locker = interview.NewRedisLocker(redisCache, cfg.Interview.LockTTL)
	} else {
		log.Warn().Msg("Redis отключен: кеш не используется, блокировки локальные")
	}

	// --- Генеративная модель ---
	var llm ai.JSONGenerator
	gemini, err := ai.NewGeminiClient(ctx, cfg.LLM)
	switch {
	case errors.Is(err, ai.ErrNoProvider):
		log.Warn().Msg("GEMINI_API_KEY не задан: вопросы и оценки будут значениями по умолчанию")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	default:
		defer gemini.Close()
		llm = gemini
	}
	interviewer := ai.NewInterviewer(llm)
	deps.Questioner = interviewer
	deps.Scorer = interviewer
	deps.Summarizer = interviewer

	// --- Извлечение и архив резюме ---
	var pdfParser resume.TextParser
	einoParser, err := resume.NewEinoPDFParser(ctx)
	if err != nil {
		log.Error().Err(err).Msg("PDF-парсер недоступен, принимаются только текстовые резюме")
	} else {
		pdfParser = einoParser
	}
	extractor := resume.NewExtractor(pdfParser)

	var archive repository.ResumeArchive
	if cfg.Archive.Enabled {
		minioArchive, err := minioRepo.NewResumeArchive(ctx, cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize resume archive")
		}
		archive = minioArchive
	}

	// --- Сервисы ---
	engine := interview.NewEngine(interview.ConfigFrom(cfg.Interview), deps)
	candidateService := service.NewCandidateService(
		engine,
		interview.NewAggregateBuilder(deps),
		candidateRepo,
		extractor,
		cacheRepo,
		archive,
		service.CandidateServiceConfig{
			ViewCacheTTL:   cfg.Interview.ViewCacheTTL,
			IdempotencyTTL: cfg.Interview.IdempotencyTTL,
		},
	)
	candidateHandler := handler.NewCandidateHandler(candidateService, cfg.Interview.MaxUploadBytes)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRateLimiter(redisClient)
	}

	router := newRouter(routerOptions{
		handler:     candidateHandler,
		rateLimiter: rateLimiter,
		rateLimit:   cfg.RateLimit,
		corsOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// isProduction определяется по GIN_MODE
func isProduction() bool {
	return gin.Mode() == gin.ReleaseMode
}
