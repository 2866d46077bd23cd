package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Create сохраняет ответ. Уникальный индекс по question_id не дает ответить дважды.
func (r *AnswerRepo) Create(ctx context.Context, answer *entity.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.SubmittedAt.IsZero() {
		answer.SubmittedAt = time.Now().UTC()
	}
	if err := conn(ctx, r.db).Create(answer).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: question %s already answered", apperrors.ErrConflict, answer.QuestionID)
		}
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

// ListByCandidate возвращает ответы кандидата по времени отправки
func (r *AnswerRepo) ListByCandidate(ctx context.Context, candidateID string) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := conn(ctx, r.db).
		Where("candidate_id = ?", candidateID).
		Order("submitted_at ASC").
		Find(&answers).Error
	return answers, err
}
