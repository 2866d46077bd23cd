package entity

import (
	"strings"
	"time"
)

// Статусы кандидата
const (
	CandidateStatusPending        = "pending"
	CandidateStatusInfoCollection = "info_collection"
	CandidateStatusInterviewing   = "interviewing"
	CandidateStatusPaused         = "paused"
	CandidateStatusCompleted      = "completed"
)

// Поля контактной информации, в порядке запроса у кандидата
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Candidate - одна попытка прохождения интервью (корень агрегата)
type Candidate struct {
	ID                   string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name                 *string    `gorm:"size:200" json:"name"`
	Email                *string    `gorm:"size:200" json:"email"`
	Phone                *string    `gorm:"size:50" json:"phone"`
	ResumeText           string     `gorm:"type:text;not null" json:"resume_text"`
	Status               string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CurrentQuestionIndex int        `gorm:"not null;default:0" json:"current_question_index"`
	Score                *float64   `json:"score"`
	Summary              *string    `gorm:"type:text" json:"summary"`
	StartedAt            time.Time  `gorm:"not null;index" json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	PausedAt             *time.Time `json:"paused_at"`
}

// TableName определяет имя таблицы для GORM
func (Candidate) TableName() string {
	return "candidates"
}

// ContactInfo - контактные данные, переданные кандидатом или извлеченные из резюме
type ContactInfo struct {
	Name  string
	Email string
	Phone string
}

// ExtractedResume - результат извлечения данных из документа резюме
type ExtractedResume struct {
	ContactInfo
	FullText string
}

// MissingFields возвращает список незаполненных контактных полей в порядке name, email, phone
func (c *Candidate) MissingFields() []string {
	missing := make([]string, 0, 3)
	if isBlank(c.Name) {
		missing = append(missing, FieldName)
	}
	if isBlank(c.Email) {
		missing = append(missing, FieldEmail)
	}
	if isBlank(c.Phone) {
		missing = append(missing, FieldPhone)
	}
	return missing
}

// HasContactInfo проверяет, что все три контактных поля заполнены
func (c *Candidate) HasContactInfo() bool {
	return len(c.MissingFields()) == 0
}

// IsCompleted проверяет, завершено ли интервью
func (c *Candidate) IsCompleted() bool {
	return c.Status == CandidateStatusCompleted
}

// IsResumable проверяет, можно ли вернуться к сессии этого кандидата
func (c *Candidate) IsResumable() bool {
	switch c.Status {
	case CandidateStatusInterviewing, CandidateStatusInfoCollection, CandidateStatusPaused:
		return true
	}
	return false
}

// DisplayName возвращает имя кандидата или пустую строку
func (c *Candidate) DisplayName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// CandidateUpdate - частичное обновление кандидата. nil означает "не менять".
type CandidateUpdate struct {
	Name                 *string
	Email                *string
	Phone                *string
	Status               *string
	CurrentQuestionIndex *int
	Score                *float64
	Summary              *string
	CompletedAt          *time.Time
	PausedAt             *time.Time
	ClearPausedAt        bool
}

// IsEmpty проверяет, что обновление ничего не меняет
func (u CandidateUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Status == nil &&
		u.CurrentQuestionIndex == nil && u.Score == nil && u.Summary == nil &&
		u.CompletedAt == nil && u.PausedAt == nil && !u.ClearPausedAt
}

// Apply применяет обновление к кандидату в памяти
func (u CandidateUpdate) Apply(c *Candidate) {
	if u.Name != nil {
		c.Name = copyString(u.Name)
	}
	if u.Email != nil {
		c.Email = copyString(u.Email)
	}
	if u.Phone != nil {
		c.Phone = copyString(u.Phone)
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.CurrentQuestionIndex != nil {
		c.CurrentQuestionIndex = *u.CurrentQuestionIndex
	}
	if u.Score != nil {
		score := *u.Score
		c.Score = &score
	}
	if u.Summary != nil {
		c.Summary = copyString(u.Summary)
	}
	if u.CompletedAt != nil {
		completedAt := *u.CompletedAt
		c.CompletedAt = &completedAt
	}
	if u.PausedAt != nil {
		pausedAt := *u.PausedAt
		c.PausedAt = &pausedAt
	}
	if u.ClearPausedAt {
		c.PausedAt = nil
	}
}

// Columns возвращает обновление в виде карты колонок для GORM
func (u CandidateUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.Phone != nil {
		cols["phone"] = *u.Phone
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.CurrentQuestionIndex != nil {
		cols["current_question_index"] = *u.CurrentQuestionIndex
	}
	if u.Score != nil {
		cols["score"] = *u.Score
	}
	if u.Summary != nil {
		cols["summary"] = *u.Summary
	}
	if u.CompletedAt != nil {
		cols["completed_at"] = *u.CompletedAt
	}
	if u.PausedAt != nil {
		cols["paused_at"] = *u.PausedAt
	}
	if u.ClearPausedAt {
		cols["paused_at"] = nil
	}
	return cols
}

// InterviewStats - агрегированная статистика для дашборда
type InterviewStats struct {
	TotalCandidates     int64   `json:"total_candidates"`
	CompletedInterviews int64   `json:"completed_interviews"`
	ActiveInterviews    int64   `json:"active_interviews"`
	AverageScore        float64 `json:"average_score"`
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func copyString(s *string) *string {
	v := *s
	return &v
}

// StringPtr возвращает указатель на строку
func StringPtr(s string) *string {
	return &s
}

// IntPtr возвращает указатель на int
func IntPtr(i int) *int {
	return &i
}
