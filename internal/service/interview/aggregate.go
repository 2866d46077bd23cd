package interview

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/interview-api/internal/domain/entity"
	"github.com/yourusername/interview-api/internal/domain/repository"
)

// AggregateBuilder собирает сводное представление кандидата
type AggregateBuilder struct {
	candidates repository.CandidateRepository
	questions  repository.QuestionRepository
	answers    repository.AnswerRepository
	messages   repository.ChatMessageRepository
	now        func() time.Time
}

// NewAggregateBuilder создает AggregateBuilder на тех же зависимостях, что и движок
func NewAggregateBuilder(deps *Dependencies) *AggregateBuilder {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AggregateBuilder{
		candidates: deps.Candidates,
		questions:  deps.Questions,
		answers:    deps.Answers,
		messages:   deps.Messages,
		now:        now,
	}
}

// Build возвращает кандидата, его вопросы, журнал и данные таймера.
// ErrNotFound, если кандидата нет.
func (b *AggregateBuilder) Build(ctx context.Context, candidateID string) (*entity.CandidateAggregate, error) {
	candidate, err := b.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", candidateID, err)
	}

	var (
		questions []entity.Question
		messages  []entity.ChatMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = b.questions.ListByCandidate(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		messages, err = b.messages.ListByCandidate(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := &entity.CandidateAggregate{
		Candidate:          candidate,
		TotalQuestions:     entity.TotalQuestions,
		CompletedQuestions: len(questions),
		Messages:           messages,
		Progress:           entity.ReplayTranscript(messages),
	}
	if agg.Messages == nil {
		agg.Messages = []entity.ChatMessage{}
	}

	for i := range questions {
		if questions[i].QuestionIndex == candidate.CurrentQuestionIndex {
			current := questions[i]
			agg.CurrentQuestion = &current
			break
		}
	}

	if agg.CurrentQuestion != nil && hasRunningTimer(candidate.Status) {
		agg.Timer = &entity.QuestionTimer{
			QuestionID: agg.CurrentQuestion.ID,
			TimeLimit:  agg.CurrentQuestion.TimeLimit,
			ShownAt:    agg.CurrentQuestion.CreatedAt,
			ServerTime: b.now(),
			Paused:     candidate.Status == entity.CandidateStatusPaused,
		}
	}
	return agg, nil
}

// Detail возвращает кандидата и вопросы по порядку вместе с ответами
func (b *AggregateBuilder) Detail(ctx context.Context, candidateID string) (*entity.CandidateDetail, error) {
	candidate, err := b.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", candidateID, err)
	}

	var (
		questions []entity.Question
		answers   []entity.Answer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = b.questions.ListByCandidate(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		answers, err = b.answers.ListByCandidate(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byQuestion := make(map[string]*entity.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}
	detail := &entity.CandidateDetail{
		Candidate: candidate,
		Questions: make([]entity.AnsweredQuestion, 0, len(questions)),
	}
	for _, q := range questions {
		detail.Questions = append(detail.Questions, entity.AnsweredQuestion{Question: q, Answer: byQuestion[q.ID]})
	}
	return detail, nil
}

func hasRunningTimer(status string) bool {
	return status == entity.CandidateStatusInterviewing || status == entity.CandidateStatusPaused
}
