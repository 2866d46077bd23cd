package interview

import (
	"context"
	"time"

	"github.com/yourusername/interview-api/internal/config"
	"github.com/yourusername/interview-api/internal/domain/entity"
	"github.com/yourusername/interview-api/internal/domain/repository"
)

// Имена внешних сервисов для логов и метрик
const (
	collaboratorQuestion = "question"
	collaboratorScore    = "score"
	collaboratorSummary  = "summary"
)

// Config содержит настройки движка интервью
type Config struct {
	// Дедлайн одной попытки вызова внешнего сервиса
	CollaboratorTimeout time.Duration
	// Количество повторов после первой неудачной попытки
	CollaboratorRetries int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		CollaboratorTimeout: 20 * time.Second,
		CollaboratorRetries: 1,
	}
}

// ConfigFrom строит настройки движка из конфигурации приложения
func ConfigFrom(cfg config.InterviewConfig) *Config {
	c := DefaultConfig()
	if cfg.CollaboratorTimeout > 0 {
		c.CollaboratorTimeout = cfg.CollaboratorTimeout
	}
	if cfg.CollaboratorRetries >= 0 {
		c.CollaboratorRetries = cfg.CollaboratorRetries
	}
	return c
}

// QuestionGenerator генерирует вопрос для индекса 0..5
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, index int, resumeText string, previous []string) (*entity.GeneratedQuestion, error)
}

// AnswerScorer оценивает ответ кандидата
type AnswerScorer interface {
	ScoreAnswer(ctx context.Context, req entity.ScoreRequest) (*entity.AnswerAssessment, error)
}

// SummaryGenerator формирует итоговую оценку интервью
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, candidateName, resumeText string, results []entity.QuestionResult) (*entity.InterviewSummary, error)
}

// Dependencies содержит зависимости движка
type Dependencies struct {
	Candidates repository.CandidateRepository
	Questions  repository.QuestionRepository
	Answers    repository.AnswerRepository
	Messages   repository.ChatMessageRepository

	Questioner QuestionGenerator
	Scorer     AnswerScorer
	Summarizer SummaryGenerator

	// Tx объединяет записи одной мутации. По умолчанию записи идут без транзакции.
	Tx repository.Transactor

	// Locker сериализует изменения одного кандидата. По умолчанию LocalLocker.
	Locker Locker
	// Now - источник времени. По умолчанию time.Now в UTC.
	Now func() time.Time
}

type noTx struct{}

func (noTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CreateCandidateInput - данные для создания кандидата
type CreateCandidateInput struct {
	Contact    entity.ContactInfo
	ResumeText string
}

// SubmitAnswerInput - ответ кандидата на текущий вопрос.
// Время задается либо остатком (TimeRemaining), либо затраченным временем (TimeSpent).
type SubmitAnswerInput struct {
	QuestionID    string
	AnswerText    string
	TimeRemaining *int
	TimeSpent     *int
	AutoSubmitted bool
}

// SubmitResult - итог принятого ответа
type SubmitResult struct {
	Candidate  *entity.Candidate
	Answer     *entity.Answer
	Assessment *entity.AnswerAssessment
	// NextQuestion заполнен, если интервью продолжается
	NextQuestion *entity.Question
	Completed    bool
}
