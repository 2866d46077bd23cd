package dto

import (
	"time"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// SupplyInfoRequest - недостающие контактные данные
type SupplyInfoRequest struct {
	Name  string `json:"name" binding:"omitempty,max=200"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=50"`
}

// ContactInfo преобразует запрос в доменную структуру
func (r *SupplyInfoRequest) ContactInfo() entity.ContactInfo {
	return entity.ContactInfo{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// SubmitAnswerRequest - ответ на текущий вопрос.
// Клиент передает остаток таймера (time_remaining) или затраченное время (time_spent).
type SubmitAnswerRequest struct {
	QuestionID    string `json:"question_id" binding:"required"`
	AnswerText    string `json:"answer_text" binding:"max=20000"`
	TimeRemaining *int   `json:"time_remaining"`
	TimeSpent     *int   `json:"time_spent"`
	AutoSubmitted bool   `json:"auto_submitted"`
}

// PauseRequest - действие паузы
type PauseRequest struct {
	Action string `json:"action" binding:"required,oneof=pause resume"`
}

// CandidateListItem - строка дашборда без текста резюме
type CandidateListItem struct {
	ID                   string     `json:"id"`
	Name                 *string    `json:"name"`
	Email                *string    `json:"email"`
	Phone                *string    `json:"phone"`
	Status               string     `json:"status"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	Score                *float64   `json:"score"`
	Summary              *string    `json:"summary"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	PausedAt             *time.Time `json:"paused_at"`
}

// NewCandidateListItem создает DTO строки дашборда
func NewCandidateListItem(c *entity.Candidate) CandidateListItem {
	return CandidateListItem{
		ID:                   c.ID,
		Name:                 c.Name,
		Email:                c.Email,
		Phone:                c.Phone,
		Status:               c.Status,
		CurrentQuestionIndex: c.CurrentQuestionIndex,
		Score:                c.Score,
		Summary:              c.Summary,
		StartedAt:            c.StartedAt,
		CompletedAt:          c.CompletedAt,
		PausedAt:             c.PausedAt,
	}
}

// NewCandidateList создает DTO списка кандидатов
func NewCandidateList(candidates []entity.Candidate) []CandidateListItem {
	items := make([]CandidateListItem, 0, len(candidates))
	for i := range candidates {
		items = append(items, NewCandidateListItem(&candidates[i]))
	}
	return items
}

// AnswerDetail - вопрос и ответ кандидата. Поля ответа пусты, пока ответа нет.
type AnswerDetail struct {
	QuestionIndex int               `json:"question_index"`
	Question      string            `json:"question"`
	Difficulty    entity.Difficulty `json:"difficulty"`
	TimeLimit     int               `json:"time_limit"`
	Answered      bool              `json:"answered"`
	Answer        string            `json:"answer"`
	Score         *int              `json:"score"`
	TimeSpent     *int              `json:"time_spent"`
	SubmittedAt   *time.Time        `json:"submitted_at"`
}

// CandidateDetailResponse - карточка кандидата для дашборда
type CandidateDetailResponse struct {
	Candidate CandidateListItem `json:"candidate"`
	Answers   []AnswerDetail    `json:"answers"`
}

// NewCandidateDetailResponse создает DTO карточки кандидата
func NewCandidateDetailResponse(d *entity.CandidateDetail) CandidateDetailResponse {
	resp := CandidateDetailResponse{
		Candidate: NewCandidateListItem(d.Candidate),
		Answers:   make([]AnswerDetail, 0, len(d.Questions)),
	}
	for _, q := range d.Questions {
		item := AnswerDetail{
			QuestionIndex: q.Question.QuestionIndex,
			Question:      q.Question.Text,
			Difficulty:    q.Question.Difficulty,
			TimeLimit:     q.Question.TimeLimit,
		}
		if a := q.Answer; a != nil {
			score, spent, at := a.Score, a.TimeSpent, a.SubmittedAt
			item.Answered = true
			item.Answer = a.AnswerText
			item.Score = &score
			item.TimeSpent = &spent
			item.SubmittedAt = &at
		}
		resp.Answers = append(resp.Answers, item)
	}
	return resp
}
