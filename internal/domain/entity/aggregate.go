package entity

import "time"

// QuestionTimer - данные для вычисления обратного отсчета на клиенте.
// Клиент считает оставшееся время как TimeLimit - (ServerTime - ShownAt),
// а не накапливает локальные тики.
type QuestionTimer struct {
	QuestionID string    `json:"question_id"`
	TimeLimit  int       `json:"time_limit"`
	ShownAt    time.Time `json:"shown_at"`
	ServerTime time.Time `json:"server_time"`
	Paused     bool      `json:"paused"`
}

// RemainingAt возвращает оставшееся время на момент ServerTime, не меньше нуля
func (t *QuestionTimer) RemainingAt() time.Duration {
	limit := time.Duration(t.TimeLimit) * time.Second
	elapsed := t.ServerTime.Sub(t.ShownAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		return 0
	}
	return limit - elapsed
}

// CandidateAggregate - сводное представление кандидата, возвращаемое всеми запросами чтения
type CandidateAggregate struct {
	Candidate          *Candidate           `json:"candidate"`
	TotalQuestions     int                  `json:"total_questions"`
	CompletedQuestions int                  `json:"completed_questions"`
	CurrentQuestion    *Question            `json:"current_question"`
	Messages           []ChatMessage        `json:"messages"`
	Timer              *QuestionTimer       `json:"timer,omitempty"`
	Progress           TranscriptProjection `json:"progress"`
}

// AnsweredQuestion - заданный вопрос и ответ на него. Answer равен nil, пока ответа нет.
type AnsweredQuestion struct {
	Question Question `json:"question"`
	Answer   *Answer  `json:"answer"`
}

// CandidateDetail - кандидат со всеми вопросами и ответами для дашборда
type CandidateDetail struct {
	Candidate *Candidate         `json:"candidate"`
	Questions []AnsweredQuestion `json:"questions"`
}
