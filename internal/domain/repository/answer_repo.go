package repository

import (
	"context"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// AnswerRepository определяет методы для работы с ответами
type AnswerRepository interface {
	// Create возвращает ErrConflict при повторном ответе на тот же вопрос
	Create(ctx context.Context, answer *entity.Answer) error
	// ListByCandidate возвращает ответы по времени отправки
	ListByCandidate(ctx context.Context, candidateID string) ([]entity.Answer, error)
}
