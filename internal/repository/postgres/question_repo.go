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

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create сохраняет вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	if err := conn(ctx, r.db).Create(question).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: question %d already exists for candidate %s",
				apperrors.ErrConflict, question.QuestionIndex, question.CandidateID)
		}
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id string) (*entity.Question, error) {
	var question entity.Question
	if err := conn(ctx, r.db).Where("id = ?", id).First(&question).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

// GetByCandidateAndIndex возвращает вопрос кандидата с заданным индексом
func (r *QuestionRepo) GetByCandidateAndIndex(ctx context.Context, candidateID string, index int) (*entity.Question, error) {
	var question entity.Question
	err := conn(ctx, r.db).
		Where("candidate_id = ? AND question_index = ?", candidateID, index).
		First(&question).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

// ListByCandidate возвращает вопросы кандидата по возрастанию индекса
func (r *QuestionRepo) ListByCandidate(ctx context.Context, candidateID string) ([]entity.Question, error) {
	var questions []entity.Question
	err := conn(ctx, r.db).
		Where("candidate_id = ?", candidateID).
		Order("question_index ASC").
		Find(&questions).Error
	return questions, err
}

// CountByCandidate возвращает количество созданных вопросов кандидата
func (r *QuestionRepo) CountByCandidate(ctx context.Context, candidateID string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Question{}).
		Where("candidate_id = ?", candidateID).
		Count(&count).Error
	return count, err
}
