package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// ChatMessageRepo реализует repository.ChatMessageRepository
type ChatMessageRepo struct {
	db *gorm.DB
}

// NewChatMessageRepo создает новый репозиторий журнала переписки
func NewChatMessageRepo(db *gorm.DB) *ChatMessageRepo {
	return &ChatMessageRepo{db: db}
}

// Create добавляет сообщение в журнал
func (r *ChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.Metadata == nil {
		message.Metadata = entity.JSONMap{}
	}
	if err := conn(ctx, r.db).Create(message).Error; err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListByCandidate возвращает журнал кандидата по времени создания
func (r *ChatMessageRepo) ListByCandidate(ctx context.Context, candidateID string) ([]entity.ChatMessage, error) {
	var messages []entity.ChatMessage
	err := conn(ctx, r.db).
		Where("candidate_id = ?", candidateID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}
