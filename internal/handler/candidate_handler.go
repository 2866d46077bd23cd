package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yourusername/interview-api/internal/handler/dto"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
	"github.com/yourusername/interview-api/internal/pkg/logger"
	"github.com/yourusername/interview-api/internal/service"
	"github.com/yourusername/interview-api/internal/service/interview"
)

// Ключ контекста Gin с ID кандидата
const CandidateIDKey = "candidateID"

// IdempotencyKeyHeader - заголовок для безопасного повтора отправки ответа
const IdempotencyKeyHeader = "Idempotency-Key"

// CandidateHandler обрабатывает запросы интервью
type CandidateHandler struct {
	candidateService *service.CandidateService
	maxUploadBytes   int64
	log              zerolog.Logger
}

// NewCandidateHandler создает обработчик кандидатов
func NewCandidateHandler(candidateService *service.CandidateService, maxUploadBytes int64) *CandidateHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &CandidateHandler{
		candidateService: candidateService,
		maxUploadBytes:   maxUploadBytes,
		log:              logger.Component("candidate_handler"),
	}
}

// CreateCandidate принимает резюме и начинает интервью
// POST /api/candidates (multipart, поле resume)
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	file, err := c.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume file is required"})
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Resume file must not exceed %d MB", h.maxUploadBytes>>20)})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read resume file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read resume file"})
		return
	}

	agg, err := h.candidateService.StartInterview(c.Request.Context(), file.Filename, data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// SupplyInfo дополняет контактные данные
// PATCH /api/candidates/:id/info
func (h *CandidateHandler) SupplyInfo(c *gin.Context) {
	candidateID := c.MustGet(CandidateIDKey).(string)

	var req dto.SupplyInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agg, err := h.candidateService.SupplyInfo(c.Request.Context(), candidateID, req.ContactInfo())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// SubmitAnswer принимает ответ на текущий вопрос
// POST /api/candidates/:id/answers
func (h *CandidateHandler) SubmitAnswer(c *gin.Context) {
	candidateID := c.MustGet(CandidateIDKey).(string)

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agg, err := h.candidateService.SubmitAnswer(c.Request.Context(), candidateID, c.GetHeader(IdempotencyKeyHeader), interview.SubmitAnswerInput{
		QuestionID:    req.QuestionID,
		AnswerText:    req.AnswerText,
		TimeRemaining: req.TimeRemaining,
		TimeSpent:     req.TimeSpent,
		AutoSubmitted: req.AutoSubmitted,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// GetCandidate возвращает сводное представление кандидата
// GET /api/candidates/:id
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	candidateID := c.MustGet(CandidateIDKey).(string)

	agg, err := h.candidateService.GetCandidate(c.Request.Context(), candidateID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// GetCandidateAnswers возвращает вопросы кандидата вместе с ответами и оценками
// GET /api/candidates/:id/answers
func (h *CandidateHandler) GetCandidateAnswers(c *gin.Context) {
	candidateID := c.MustGet(CandidateIDKey).(string)

	detail, err := h.candidateService.GetCandidateDetail(c.Request.Context(), candidateID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCandidateDetailResponse(detail))
}

// ListCandidates возвращает кандидатов для дашборда
// GET /api/candidates
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.candidateService.ListCandidates(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCandidateList(candidates))
}

// GetStats возвращает статистику интервью
// GET /api/stats
func (h *CandidateHandler) GetStats(c *gin.Context) {
	stats, err := h.candidateService.GetStats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SetPaused ставит интервью на паузу или продолжает его
// PATCH /api/candidates/:id/pause
func (h *CandidateHandler) SetPaused(c *gin.Context) {
	candidateID := c.MustGet(CandidateIDKey).(string)

	var req dto.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate, err := h.candidateService.SetPaused(c.Request.Context(), candidateID, req.Action)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// handleError переводит ошибки сервиса в HTTP-ответ.
// ErrConflict проверяется первым: устаревшая ссылка на вопрос одновременно и конфликт, и NotFound.
func (h *CandidateHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Request conflicts with the current interview state"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Candidate or question not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationMessage(err)})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Внутренняя ошибка обработчика")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// validationMessage возвращает короткое сообщение без префикса сентинела
func validationMessage(err error) string {
	msg := err.Error()
	prefix := apperrors.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
