package repository

import (
	"context"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// ChatMessageRepository - журнал переписки, только добавление
type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	// ListByCandidate возвращает сообщения по времени создания
	ListByCandidate(ctx context.Context, candidateID string) ([]entity.ChatMessage, error)
}
