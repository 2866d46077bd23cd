package entity

import (
	"time"
)

// Answer представляет ответ кандидата на вопрос. Не более одного на вопрос.
type Answer struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	QuestionID  string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"question_id"`
	CandidateID string    `gorm:"type:varchar(36);not null;index" json:"candidate_id"`
	AnswerText  string    `gorm:"type:text;not null;default:''" json:"answer_text"`
	Score       int       `gorm:"not null" json:"score"`
	TimeSpent   int       `gorm:"not null;default:0" json:"time_spent"` // секунды
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
