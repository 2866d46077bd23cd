package entity

import (
	"time"
)

// Отправители сообщений
const (
	SenderAI        = "ai"
	SenderCandidate = "candidate"
)

// Типы сообщений
const (
	MessageTypeText        = "text"
	MessageTypeQuestion    = "question"
	MessageTypeAnswer      = "answer"
	MessageTypeInfoRequest = "info_request"
)

// Ключи метаданных сообщений
const (
	MetaQuestionID     = "questionId"
	MetaQuestionIndex  = "questionIndex"
	MetaDifficulty     = "difficulty"
	MetaTimeLimit      = "timeLimit"
	MetaScore          = "score"
	MetaTimeSpent      = "timeSpent"
	MetaAutoSubmitted  = "autoSubmitted"
	MetaMissingFields  = "missingFields"
	MetaFinalScore     = "finalScore"
	MetaSummary        = "summary"
	MetaRecommendation = "recommendation"
)

// ChatMessage - запись журнала переписки. Только добавляется, никогда не изменяется.
type ChatMessage struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CandidateID string    `gorm:"type:varchar(36);not null;index:idx_chat_messages_candidate_created,priority:1" json:"candidate_id"`
	Sender      string    `gorm:"size:20;not null" json:"sender"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	MessageType string    `gorm:"size:20;not null" json:"message_type"`
	Metadata    JSONMap   `gorm:"type:jsonb;not null" json:"metadata"`
	CreatedAt   time.Time `gorm:"index:idx_chat_messages_candidate_created,priority:2" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ChatMessage) TableName() string {
	return "chat_messages"
}
