package repository

import (
	"context"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами интервью
type QuestionRepository interface {
	// Create возвращает ErrConflict, если вопрос с таким индексом у кандидата уже есть
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id string) (*entity.Question, error)
	GetByCandidateAndIndex(ctx context.Context, candidateID string, index int) (*entity.Question, error)
	// ListByCandidate возвращает вопросы по возрастанию индекса
	ListByCandidate(ctx context.Context, candidateID string) ([]entity.Question, error)
	CountByCandidate(ctx context.Context, candidateID string) (int64, error)
}
