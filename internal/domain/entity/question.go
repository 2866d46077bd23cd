package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap - пользовательский тип для работы с JSONB-метаданными сообщений
type JSONMap map[string]interface{}

// Scan реализует интерфейс sql.Scanner для JSONMap
// Используется GORM для чтения JSONB данных из базы
func (m *JSONMap) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Value реализует интерфейс driver.Valuer для JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil // Пустой объект вместо null
	}
	return json.Marshal(m)
}

// Question представляет вопрос интервью, созданный для конкретного кандидата.
// Запись неизменяема после создания.
type Question struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CandidateID   string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_questions_candidate_index,priority:1" json:"candidate_id"`
	Text          string     `gorm:"column:question_text;type:text;not null" json:"question_text"`
	Difficulty    Difficulty `gorm:"size:10;not null" json:"difficulty"`
	TimeLimit     int        `gorm:"not null" json:"time_limit"` // секунды
	QuestionIndex int        `gorm:"not null;uniqueIndex:idx_questions_candidate_index,priority:2" json:"question_index"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// TimeLimitDuration возвращает лимит времени как time.Duration
func (q *Question) TimeLimitDuration() time.Duration {
	return time.Duration(q.TimeLimit) * time.Second
}
