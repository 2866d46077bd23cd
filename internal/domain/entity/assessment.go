package entity

import "math"

// Границы оценки
const (
	MinScore     = 1
	MaxScore     = 10
	DefaultScore = 5
)

// GeneratedQuestion - ответ генератора вопросов.
// Пустые Difficulty/TimeLimit означают, что генератор их не указал.
type GeneratedQuestion struct {
	Question   string     `json:"question"`
	Difficulty Difficulty `json:"difficulty"`
	TimeLimit  int        `json:"timeLimit"`
}

// ScoreRequest - входные данные для оценки ответа
type ScoreRequest struct {
	QuestionText string
	AnswerText   string
	Difficulty   Difficulty
	TimeSpent    int
	TimeLimit    int
}

// AnswerAssessment - результат оценки ответа
type AnswerAssessment struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// QuestionResult - вопрос, ответ и оценка для итогового резюме
type QuestionResult struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Score      int        `json:"score"`
	Difficulty Difficulty `json:"difficulty"`
}

// InterviewSummary - итоговая оценка интервью
type InterviewSummary struct {
	OverallScore   float64  `json:"overallScore"`
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Recommendation string   `json:"recommendation"`
}

// ClampScore прижимает оценку к диапазону [1,10]
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// RoundToTenth округляет до одного знака после запятой
func RoundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// MeanScore возвращает среднюю оценку по результатам, округленную до десятых
func MeanScore(results []QuestionResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0
	for _, r := range results {
		total += r.Score
	}
	return RoundToTenth(float64(total) / float64(len(results)))
}
