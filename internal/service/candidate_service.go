package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/interview-api/internal/domain/entity"
	"github.com/yourusername/interview-api/internal/domain/repository"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
	"github.com/yourusername/interview-api/internal/pkg/logger"
	"github.com/yourusername/interview-api/internal/resume"
	"github.com/yourusername/interview-api/internal/service/interview"
)

// Действия паузы
const (
	PauseActionPause  = "pause"
	PauseActionResume = "resume"
)

const statsCacheKey = "stats"

// ResumeExtractor извлекает текст и контакты из загруженного резюме
type ResumeExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (*entity.ExtractedResume, error)
}

// CandidateServiceConfig содержит настройки кеширования сервиса
type CandidateServiceConfig struct {
	ViewCacheTTL   time.Duration
	IdempotencyTTL time.Duration
}

// CandidateService - точка входа HTTP-слоя: движок интервью, кеш представлений,
// идемпотентность ответов и архив резюме
type CandidateService struct {
	engine     *interview.Engine
	builder    *interview.AggregateBuilder
	candidates repository.CandidateRepository
	extractor  ResumeExtractor
	cacheRepo  repository.CacheRepository
	archive    repository.ResumeArchive
	config     CandidateServiceConfig
	log        zerolog.Logger
}

// NewCandidateService создает сервис кандидатов. archive может быть nil.
func NewCandidateService(
	engine *interview.Engine,
	builder *interview.AggregateBuilder,
	candidates repository.CandidateRepository,
	extractor ResumeExtractor,
	cacheRepo repository.CacheRepository,
	archive repository.ResumeArchive,
	config CandidateServiceConfig,
) *CandidateService {
	return &CandidateService{
		engine:     engine,
		builder:    builder,
		candidates: candidates,
		extractor:  extractor,
		cacheRepo:  cacheRepo,
		archive:    archive,
		config:     config,
		log:        logger.Component("candidate_service"),
	}
}

// StartInterview разбирает резюме, создает кандидата и возвращает его представление
func (s *CandidateService) StartInterview(ctx context.Context, fileName string, data []byte) (*entity.CandidateAggregate, error) {
	extracted, err := s.extractor.Extract(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	candidate, err := s.engine.CreateCandidate(ctx, interview.CreateCandidateInput{
		Contact:    extracted.ContactInfo,
		ResumeText: extracted.FullText,
	})
	if err != nil {
		return nil, err
	}
	s.archiveResume(ctx, candidate.ID, fileName, data)
	s.invalidate(ctx, candidate.ID)

	return s.builder.Build(ctx, candidate.ID)
}

// SupplyInfo дополняет контактные данные кандидата
func (s *CandidateService) SupplyInfo(ctx context.Context, candidateID string, info entity.ContactInfo) (*entity.CandidateAggregate, error) {
	if _, err := s.engine.SupplyInfo(ctx, candidateID, info); err != nil {
		return nil, err
	}
	s.invalidate(ctx, candidateID)
	return s.builder.Build(ctx, candidateID)
}

// SubmitAnswer принимает ответ. С непустым idempotencyKey повтор запроса
// возвращает сохраненное представление вместо конфликта.
func (s *CandidateService) SubmitAnswer(ctx context.Context, candidateID, idempotencyKey string, in interview.SubmitAnswerInput) (*entity.CandidateAggregate, error) {
	if idempotencyKey != "" {
		if agg, ok := s.replay(ctx, candidateID, idempotencyKey); ok {
			return agg, nil
		}
	}

	if _, err := s.engine.SubmitAnswer(ctx, candidateID, in); err != nil {
		// Параллельный запрос с тем же ключом мог успеть первым
		if idempotencyKey != "" && errors.Is(err, apperrors.ErrConflict) {
			if agg, ok := s.replay(ctx, candidateID, idempotencyKey); ok {
				return agg, nil
			}
		}
		return nil, err
	}
	s.invalidate(ctx, candidateID)

	agg, err := s.builder.Build(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		if err := s.cacheRepo.SetJSON(ctx, idempotencyCacheKey(candidateID, idempotencyKey), agg, s.config.IdempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Не удалось сохранить ответ по ключу идемпотентности")
		}
	}
	return agg, nil
}

// SetPaused выполняет действие pause или resume
func (s *CandidateService) SetPaused(ctx context.Context, candidateID, action string) (*entity.Candidate, error) {
	var paused bool
	switch action {
	case PauseActionPause:
		paused = true
	case PauseActionResume:
	default:
		return nil, apperrors.Validation("action must be %q or %q", PauseActionPause, PauseActionResume)
	}

	candidate, err := s.engine.SetPaused(ctx, candidateID, paused)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, candidateID)
	return candidate, nil
}

// GetCandidate возвращает представление кандидата, по возможности из кеша.
// Ключ кеша включает поколение кандидата: представление, собранное до мутации,
// не перекроет новое, даже если запишется после сброса кеша.
func (s *CandidateService) GetCandidate(ctx context.Context, candidateID string) (*entity.CandidateAggregate, error) {
	key := s.viewKey(ctx, candidateID)
	var cached entity.CandidateAggregate
	if err := s.cacheRepo.GetJSON(ctx, key, &cached); err == nil {
		return s.refreshTimer(&cached), nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.log.Warn().Err(err).Str("key", key).Msg("Ошибка чтения кеша представления")
	}

	agg, err := s.builder.Build(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if err := s.cacheRepo.SetJSON(ctx, key, agg, s.config.ViewCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Не удалось сохранить представление в кеш")
	}
	return agg, nil
}

// GetCandidateDetail возвращает кандидата со всеми вопросами и ответами.
// Используется дашбордом, поэтому не кешируется.
func (s *CandidateService) GetCandidateDetail(ctx context.Context, candidateID string) (*entity.CandidateDetail, error) {
	return s.builder.Detail(ctx, candidateID)
}

// ListCandidates возвращает всех кандидатов, новые первыми
func (s *CandidateService) ListCandidates(ctx context.Context) ([]entity.Candidate, error) {
	list, err := s.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return list, nil
}

// GetStats возвращает статистику дашборда
func (s *CandidateService) GetStats(ctx context.Context) (*entity.InterviewStats, error) {
	var cached entity.InterviewStats
	if err := s.cacheRepo.GetJSON(ctx, statsCacheKey, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.candidates.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	if err := s.cacheRepo.SetJSON(ctx, statsCacheKey, stats, s.config.ViewCacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("Не удалось сохранить статистику в кеш")
	}
	return stats, nil
}

func (s *CandidateService) replay(ctx context.Context, candidateID, key string) (*entity.CandidateAggregate, bool) {
	var agg entity.CandidateAggregate
	if err := s.cacheRepo.GetJSON(ctx, idempotencyCacheKey(candidateID, key), &agg); err != nil {
		return nil, false
	}
	s.log.Info().Str("candidate_id", candidateID).Str("idempotency_key", key).Msg("Повторный запрос ответа, возвращаем сохраненный результат")
	return &agg, true
}

// refreshTimer обновляет серверное время в представлении из кеша
func (s *CandidateService) refreshTimer(agg *entity.CandidateAggregate) *entity.CandidateAggregate {
	if agg.Timer != nil {
		agg.Timer.ServerTime = time.Now().UTC()
	}
	return agg
}

func (s *CandidateService) archiveResume(ctx context.Context, candidateID, fileName string, data []byte) {
	if s.archive == nil {
		return
	}
	location, err := s.archive.Store(ctx, candidateID, fileName, resume.DetectContentType(fileName, data), data)
	if err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Не удалось сохранить резюме в архив")
		return
	}
	s.log.Debug().Str("candidate_id", candidateID).Str("location", location).Msg("Резюме сохранено в архив")
}

// invalidate переводит кеш представления на новое поколение и сбрасывает статистику.
// Ошибки кеша не мешают запросу.
func (s *CandidateService) invalidate(ctx context.Context, candidateID string) {
	genKey := viewGenerationKey(candidateID)
	if _, err := s.cacheRepo.Increment(ctx, genKey); err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Не удалось сменить поколение представления")
	} else if s.config.ViewCacheTTL > 0 {
		// Счетчик живет дольше любого представления, собранного на его значении
		if err := s.cacheRepo.Expire(ctx, genKey, 2*s.config.ViewCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", genKey).Msg("Не удалось задать TTL поколения")
		}
	}
	if err := s.cacheRepo.Delete(ctx, statsCacheKey); err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Не удалось сбросить кеш статистики")
	}
}

// viewKey возвращает ключ представления для текущего поколения кандидата
func (s *CandidateService) viewKey(ctx context.Context, candidateID string) string {
	gen := "0"
	raw, err := s.cacheRepo.Get(ctx, viewGenerationKey(candidateID))
	switch {
	case err == nil:
		gen = raw
	case !errors.Is(err, apperrors.ErrNotFound):
		s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Ошибка чтения поколения представления")
	}
	return viewCacheKey(candidateID, gen)
}

func viewCacheKey(candidateID, generation string) string {
	return "view:" + candidateID + ":" + generation
}

func viewGenerationKey(candidateID string) string {
	return "viewgen:" + candidateID
}

func idempotencyCacheKey(candidateID, key string) string {
	return fmt.Sprintf("idem:answer:%s:%s", candidateID, key)
}
