package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// CandidateRepo реализует repository.CandidateRepository
type CandidateRepo struct {
	db *gorm.DB
}

// NewCandidateRepo создает новый репозиторий кандидатов
func NewCandidateRepo(db *gorm.DB) *CandidateRepo {
	return &CandidateRepo{db: db}
}

// Create создает кандидата
func (r *CandidateRepo) Create(ctx context.Context, candidate *entity.Candidate) error {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	candidate.StartedAt = time.Now().UTC()
	candidate.CompletedAt = nil
	candidate.PausedAt = nil
	if candidate.Status == "" {
		candidate.Status = entity.CandidateStatusPending
	}
	if err := conn(ctx, r.db).Create(candidate).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: candidate %s already exists", apperrors.ErrConflict, candidate.ID)
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// GetByID возвращает кандидата по ID
func (r *CandidateRepo) GetByID(ctx context.Context, id string) (*entity.Candidate, error) {
	var candidate entity.Candidate
	err := conn(ctx, r.db).Where("id = ?", id).First(&candidate).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &candidate, nil
}

// Update применяет частичное обновление
func (r *CandidateRepo) Update(ctx context.Context, id string, update entity.CandidateUpdate) (*entity.Candidate, error) {
	if update.IsEmpty() {
		return r.GetByID(ctx, id)
	}
	result := conn(ctx, r.db).Model(&entity.Candidate{}).
		Where("id = ?", id).
		Updates(update.Columns())
	if result.Error != nil {
		return nil, fmt.Errorf("update candidate %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// AdvanceQuestionIndex атомарно обновляет кандидата при совпадении индекса вопроса
func (r *CandidateRepo) AdvanceQuestionIndex(ctx context.Context, id string, expectedIndex int, update entity.CandidateUpdate) (*entity.Candidate, error) {
	result := conn(ctx, r.db).Model(&entity.Candidate{}).
		Where("id = ? AND current_question_index = ?", id, expectedIndex).
		Updates(update.Columns())
	if result.Error != nil {
		return nil, fmt.Errorf("advance candidate %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, r.conditionFailed(ctx, id, fmt.Sprintf("question index is no longer %d", expectedIndex))
	}
	return r.GetByID(ctx, id)
}

// TransitionStatus атомарно обновляет кандидата при совпадении статуса
func (r *CandidateRepo) TransitionStatus(ctx context.Context, id string, fromStatus string, update entity.CandidateUpdate) (*entity.Candidate, error) {
	result := conn(ctx, r.db).Model(&entity.Candidate{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(update.Columns())
	if result.Error != nil {
		return nil, fmt.Errorf("transition candidate %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, r.conditionFailed(ctx, id, fmt.Sprintf("status is no longer %s", fromStatus))
	}
	return r.GetByID(ctx, id)
}

// conditionFailed отличает отсутствующего кандидата от конфликта состояния
func (r *CandidateRepo) conditionFailed(ctx context.Context, id, reason string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: candidate %s: %s", apperrors.ErrConflict, id, reason)
}

// List возвращает всех кандидатов, новые первыми
func (r *CandidateRepo) List(ctx context.Context) ([]entity.Candidate, error) {
	var candidates []entity.Candidate
	err := conn(ctx, r.db).Order("started_at DESC").Find(&candidates).Error
	return candidates, err
}

// statsRow - строка агрегирующего запроса статистики
type statsRow struct {
	Total     int64
	Completed int64
	Active    int64
	AvgScore  sql.NullFloat64
}

// GetStats считает статистику одним запросом
func (r *CandidateRepo) GetStats(ctx context.Context) (*entity.InterviewStats, error) {
	var row statsRow
	err := conn(ctx, r.db).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN status = ? THEN 1 END) AS completed,
			COUNT(CASE WHEN status IN (?, ?) THEN 1 END) AS active,
			AVG(CASE WHEN status = ? THEN score END) AS avg_score
		FROM candidates`,
		entity.CandidateStatusCompleted,
		entity.CandidateStatusInterviewing, entity.CandidateStatusInfoCollection,
		entity.CandidateStatusCompleted,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("get interview stats: %w", err)
	}

	stats := &entity.InterviewStats{
		TotalCandidates:     row.Total,
		CompletedInterviews: row.Completed,
		ActiveInterviews:    row.Active,
	}
	if row.AvgScore.Valid {
		stats.AverageScore = entity.RoundToTenth(row.AvgScore.Float64)
	}
	return stats, nil
}
