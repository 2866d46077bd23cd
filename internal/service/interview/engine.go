// Package interview содержит машину состояний интервью: создание кандидата,
// сбор контактов, прием ответов, переход к следующему вопросу, завершение и паузу.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
	"github.com/yourusername/interview-api/internal/pkg/logger"
	"github.com/yourusername/interview-api/internal/pkg/metrics"
)

const interviewStartPrefix = "Thank you! Now let's begin the interview. "

// Engine управляет прохождением интервью.
// Все изменения одного кандидата выполняются под блокировкой по его ID.
type Engine struct {
	config *Config
	deps   *Dependencies
	log    zerolog.Logger
}

// NewEngine создает движок интервью
func NewEngine(config *Config, deps *Dependencies) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.Locker == nil {
		deps.Locker = NewLocalLocker()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Tx == nil {
		deps.Tx = noTx{}
	}
	return &Engine{
		config: config,
		deps:   deps,
		log:    logger.Component("interview"),
	}
}

// CreateCandidate создает кандидата по данным резюме.
// Если контакты неполные, кандидат переходит в info_collection и получает запрос недостающих полей,
// иначе сразу начинается интервью с вопросом 0.
func (e *Engine) CreateCandidate(ctx context.Context, in CreateCandidateInput) (*entity.Candidate, error) {
	if strings.TrimSpace(in.ResumeText) == "" {
		return nil, apperrors.Validation("resume text is empty")
	}

	candidate := &entity.Candidate{
		Name:       optionalString(in.Contact.Name),
		Email:      optionalString(in.Contact.Email),
		Phone:      optionalString(in.Contact.Phone),
		ResumeText: in.ResumeText,
		Status:     entity.CandidateStatusPending,
	}
	missing := candidate.MissingFields()

	// Вопрос готовится до записи: interviewing без текущего вопроса не сохраняется
	var first *entity.Question
	if len(missing) == 0 {
		first = e.prepareQuestion(ctx, 0, in.ResumeText, nil)
	}

	var created *entity.Candidate
	err := e.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.deps.Candidates.Create(ctx, candidate); err != nil {
			return fmt.Errorf("create candidate: %w", err)
		}
		if len(missing) > 0 {
			updated, err := e.setStatus(ctx, candidate.ID, entity.CandidateStatusPending, entity.CandidateStatusInfoCollection)
			if err != nil {
				return err
			}
			created = updated
			return e.appendMessage(ctx, &entity.ChatMessage{
				CandidateID: candidate.ID,
				Sender:      entity.SenderAI,
				Message:     infoRequestMessage(missing),
				MessageType: entity.MessageTypeInfoRequest,
				Metadata:    entity.JSONMap{entity.MetaMissingFields: missing},
			})
		}
		updated, err := e.setStatus(ctx, candidate.ID, entity.CandidateStatusPending, entity.CandidateStatusInterviewing)
		if err != nil {
			return err
		}
		created = updated
		first.CandidateID = candidate.ID
		return e.saveQuestion(ctx, first, "")
	})
	if err != nil {
		return nil, err
	}

	metrics.Transition(created.Status)
	if len(missing) > 0 {
		e.log.Info().Str("candidate_id", created.ID).Strs("missing", missing).Msg("Кандидат создан, ожидаются контактные данные")
	} else {
		e.log.Info().Str("candidate_id", created.ID).Msg("Кандидат создан, интервью начато")
	}
	return created, nil
}

// SupplyInfo дополняет контактные данные. Непустые поля перезаписываются.
// Интервью начинается только первым вызовом, который застал статус info_collection
// и сделал набор полей полным.
func (e *Engine) SupplyInfo(ctx context.Context, candidateID string, info entity.ContactInfo) (*entity.Candidate, error) {
	update := entity.CandidateUpdate{
		Name:  optionalString(info.Name),
		Email: optionalString(info.Email),
		Phone: optionalString(info.Phone),
	}
	if update.IsEmpty() {
		return nil, apperrors.Validation("at least one of name, email, phone is required")
	}

	unlock, err := e.lock(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	before, err := e.deps.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", candidateID, err)
	}
	merged := *before
	update.Apply(&merged)

	starting := before.Status == entity.CandidateStatusInfoCollection && merged.HasContactInfo()
	var first *entity.Question
	if starting {
		first = e.prepareQuestion(ctx, 0, before.ResumeText, nil)
	}

	var result *entity.Candidate
	err = e.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated, err := e.deps.Candidates.Update(ctx, candidateID, update)
		if err != nil {
			return fmt.Errorf("update candidate %s: %w", candidateID, err)
		}
		result = updated
		if !starting {
			return nil
		}

		started, err := e.setStatus(ctx, candidateID, entity.CandidateStatusInfoCollection, entity.CandidateStatusInterviewing)
		if err != nil {
			// Другой процесс уже начал интервью
			if errors.Is(err, apperrors.ErrConflict) {
				starting = false
				return nil
			}
			return err
		}
		result = started
		first.CandidateID = candidateID
		return e.saveQuestion(ctx, first, interviewStartPrefix)
	})
	if err != nil {
		return nil, err
	}

	if starting {
		metrics.Transition(entity.CandidateStatusInterviewing)
		e.log.Info().Str("candidate_id", candidateID).Msg("Контактные данные получены, интервью начато")
	}
	return result, nil
}

// SubmitAnswer принимает ответ на текущий вопрос.
// Ответ на устаревший вопрос отклоняется ошибкой StaleReference без записи в журнал.
// Ответ, следующий вопрос (или итог) и сдвиг индекса записываются одной транзакцией.
func (e *Engine) SubmitAnswer(ctx context.Context, candidateID string, in SubmitAnswerInput) (*SubmitResult, error) {
	if strings.TrimSpace(in.QuestionID) == "" {
		return nil, apperrors.Validation("question_id is required")
	}

	unlock, err := e.lock(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	candidate, err := e.deps.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", candidateID, err)
	}

	index := candidate.CurrentQuestionIndex
	question, err := e.deps.Questions.GetByCandidateAndIndex(ctx, candidateID, index)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.StaleReference("candidate %s has no question at index %d", candidateID, index)
		}
		return nil, fmt.Errorf("get current question: %w", err)
	}
	if question.ID != in.QuestionID {
		return nil, apperrors.StaleReference("question %s is not current for candidate %s", in.QuestionID, candidateID)
	}

	elapsed := ResolveElapsed(question.TimeLimit, in)
	assessment := e.scoreAnswer(ctx, question, in.AnswerText, elapsed)

	answer := &entity.Answer{
		QuestionID:  question.ID,
		CandidateID: candidateID,
		AnswerText:  in.AnswerText,
		Score:       assessment.Score,
		TimeSpent:   elapsed,
		SubmittedAt: e.deps.Now(),
	}

	result := &SubmitResult{Answer: answer, Assessment: assessment}
	nextIndex := index + 1
	result.Completed = nextIndex >= entity.TotalQuestions

	// Внешние сервисы вызываются до записи, транзакция остается короткой
	var (
		next      *entity.Question
		summary   *entity.InterviewSummary
		summaryOK bool
	)
	if result.Completed {
		results, err := e.collectResults(ctx, candidateID, answer)
		if err != nil {
			return nil, err
		}
		summary, summaryOK = e.summarize(ctx, candidate, results)
	} else {
		previous, err := e.previousQuestions(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		next = e.prepareQuestion(ctx, nextIndex, candidate.ResumeText, previous)
		next.CandidateID = candidateID
	}

	err = e.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Уникальность ответа на вопрос - точка линеаризации между процессами
		if err := e.deps.Answers.Create(ctx, answer); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return apperrors.StaleReference("question %s already answered", question.ID)
			}
			return fmt.Errorf("save answer: %w", err)
		}
		if err := e.appendMessage(ctx, &entity.ChatMessage{
			CandidateID: candidateID,
			Sender:      entity.SenderCandidate,
			Message:     in.AnswerText,
			MessageType: entity.MessageTypeAnswer,
			Metadata: entity.JSONMap{
				entity.MetaQuestionID:    question.ID,
				entity.MetaScore:         assessment.Score,
				entity.MetaTimeSpent:     elapsed,
				entity.MetaAutoSubmitted: in.AutoSubmitted,
			},
		}); err != nil {
			return err
		}

		if result.Completed {
			completed, err := e.saveCompletion(ctx, candidate, summary)
			result.Candidate = completed
			return err
		}
		if err := e.saveQuestion(ctx, next, ""); err != nil {
			return err
		}
		result.NextQuestion = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AnswerAccepted(in.AutoSubmitted)

	if result.Completed {
		metrics.Transition(entity.CandidateStatusCompleted)
		e.log.Info().
			Str("candidate_id", candidateID).
			Float64("score", summary.OverallScore).
			Bool("fallback", !summaryOK).
			Msg("Интервью завершено")
		return result, nil
	}

	result.Candidate, err = e.deps.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", candidateID, err)
	}
	return result, nil
}

// SetPaused ставит интервью на паузу или снимает с нее.
// Вопросы и ответы не меняются. Пауза возможна только во время вопросов.
func (e *Engine) SetPaused(ctx context.Context, candidateID string, paused bool) (*entity.Candidate, error) {
	unlock, err := e.lock(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	candidate, err := e.deps.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", candidateID, err)
	}
	if candidate.IsCompleted() {
		return nil, fmt.Errorf("%w: interview for candidate %s is already completed", apperrors.ErrConflict, candidateID)
	}
	if candidate.Status != entity.CandidateStatusInterviewing && candidate.Status != entity.CandidateStatusPaused {
		return nil, fmt.Errorf("%w: interview for candidate %s has not started (status %s)", apperrors.ErrConflict, candidateID, candidate.Status)
	}

	var update entity.CandidateUpdate
	status := entity.CandidateStatusInterviewing
	if paused {
		status = entity.CandidateStatusPaused
		now := e.deps.Now()
		update.PausedAt = &now
	} else {
		update.ClearPausedAt = true
	}
	update.Status = &status

	updated, err := e.deps.Candidates.Update(ctx, candidateID, update)
	if err != nil {
		return nil, fmt.Errorf("update candidate %s: %w", candidateID, err)
	}
	if candidate.Status != status {
		metrics.Transition(status)
	}
	e.log.Info().Str("candidate_id", candidateID).Str("from", candidate.Status).Str("to", status).Msg("Статус паузы изменен")
	return updated, nil
}

// prepareQuestion генерирует вопрос для index без записи.
// При сбое генератора используется резервный вопрос.
func (e *Engine) prepareQuestion(ctx context.Context, index int, resumeText string, previous []string) *entity.Question {
	generated, ok := callCollaborator(ctx, e.config, e.log, collaboratorQuestion,
		func(ctx context.Context) (*entity.GeneratedQuestion, error) {
			return e.deps.Questioner.GenerateQuestion(ctx, index, resumeText, previous)
		})
	if !ok || strings.TrimSpace(generated.Question) == "" {
		generated = fallbackQuestion(index)
	}
	level := e.resolveLevel(index, generated)

	return &entity.Question{
		Text:          strings.TrimSpace(generated.Question),
		Difficulty:    level.Difficulty,
		TimeLimit:     level.TimeLimit,
		QuestionIndex: index,
	}
}

// saveQuestion сохраняет вопрос, сдвигает индекс кандидата и добавляет сообщение с вопросом
func (e *Engine) saveQuestion(ctx context.Context, question *entity.Question, prefix string) error {
	index := question.QuestionIndex
	if err := e.deps.Questions.Create(ctx, question); err != nil {
		return fmt.Errorf("save question %d: %w", index, err)
	}

	if index > 0 {
		next := index
		if _, err := e.deps.Candidates.AdvanceQuestionIndex(ctx, question.CandidateID, index-1, entity.CandidateUpdate{
			CurrentQuestionIndex: &next,
		}); err != nil {
			return fmt.Errorf("advance candidate %s to question %d: %w", question.CandidateID, index, err)
		}
	}

	return e.appendMessage(ctx, &entity.ChatMessage{
		CandidateID: question.CandidateID,
		Sender:      entity.SenderAI,
		Message:     prefix + question.Text,
		MessageType: entity.MessageTypeQuestion,
		Metadata: entity.JSONMap{
			entity.MetaQuestionID:    question.ID,
			entity.MetaQuestionIndex: index,
			entity.MetaDifficulty:    string(question.Difficulty),
			entity.MetaTimeLimit:     question.TimeLimit,
		},
	})
}

func (e *Engine) previousQuestions(ctx context.Context, candidateID string) ([]string, error) {
	questions, err := e.deps.Questions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	previous := make([]string, 0, len(questions))
	for _, q := range questions {
		previous = append(previous, q.Text)
	}
	return previous, nil
}

// summarize получает итог интервью, при сбое считает его по средним оценкам
func (e *Engine) summarize(ctx context.Context, candidate *entity.Candidate, results []entity.QuestionResult) (*entity.InterviewSummary, bool) {
	summary, ok := callCollaborator(ctx, e.config, e.log, collaboratorSummary,
		func(ctx context.Context) (*entity.InterviewSummary, error) {
			return e.deps.Summarizer.GenerateSummary(ctx, candidate.DisplayName(), candidate.ResumeText, results)
		})
	if !ok {
		return fallbackSummary(results), false
	}
	summary.OverallScore = clampOverall(summary.OverallScore)
	if strings.TrimSpace(summary.Summary) == "" {
		summary.Summary = fallbackSummaryText
	}
	return summary, true
}

// saveCompletion переводит кандидата в completed и добавляет итоговое сообщение
func (e *Engine) saveCompletion(ctx context.Context, candidate *entity.Candidate, summary *entity.InterviewSummary) (*entity.Candidate, error) {
	now := e.deps.Now()
	status := entity.CandidateStatusCompleted
	final := entity.TotalQuestions
	completed, err := e.deps.Candidates.AdvanceQuestionIndex(ctx, candidate.ID, candidate.CurrentQuestionIndex, entity.CandidateUpdate{
		Status:               &status,
		CurrentQuestionIndex: &final,
		Score:                &summary.OverallScore,
		Summary:              &summary.Summary,
		CompletedAt:          &now,
		ClearPausedAt:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("complete candidate %s: %w", candidate.ID, err)
	}

	if err := e.appendMessage(ctx, &entity.ChatMessage{
		CandidateID: candidate.ID,
		Sender:      entity.SenderAI,
		Message:     completionMessage(summary),
		MessageType: entity.MessageTypeText,
		Metadata: entity.JSONMap{
			entity.MetaFinalScore:     summary.OverallScore,
			entity.MetaSummary:        summary.Summary,
			entity.MetaRecommendation: summary.Recommendation,
		},
	}); err != nil {
		return nil, err
	}
	return completed, nil
}

// collectResults сопоставляет вопросы с ответами по порядку индексов.
// pending - еще не сохраненный ответ. Вопрос без ответа дает пустой ответ и оценку 0.
func (e *Engine) collectResults(ctx context.Context, candidateID string, pending *entity.Answer) ([]entity.QuestionResult, error) {
	questions, err := e.deps.Questions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := e.deps.Answers.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if pending != nil {
		answers = append(answers, *pending)
	}

	byQuestion := make(map[string]entity.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	results := make([]entity.QuestionResult, 0, len(questions))
	for _, q := range questions {
		r := entity.QuestionResult{Question: q.Text, Difficulty: q.Difficulty}
		if a, ok := byQuestion[q.ID]; ok {
			r.Answer = a.AnswerText
			r.Score = a.Score
		}
		results = append(results, r)
	}
	return results, nil
}

func (e *Engine) scoreAnswer(ctx context.Context, question *entity.Question, answerText string, elapsed int) *entity.AnswerAssessment {
	req := entity.ScoreRequest{
		QuestionText: question.Text,
		AnswerText:   answerText,
		Difficulty:   question.Difficulty,
		TimeSpent:    elapsed,
		TimeLimit:    question.TimeLimit,
	}
	assessment, ok := callCollaborator(ctx, e.config, e.log, collaboratorScore,
		func(ctx context.Context) (*entity.AnswerAssessment, error) {
			return e.deps.Scorer.ScoreAnswer(ctx, req)
		})
	if !ok {
		return fallbackAssessment()
	}
	assessment.Score = entity.ClampScore(assessment.Score)
	return assessment
}

// setStatus меняет статус, только если текущий равен from
func (e *Engine) setStatus(ctx context.Context, candidateID, from, to string) (*entity.Candidate, error) {
	updated, err := e.deps.Candidates.TransitionStatus(ctx, candidateID, from, entity.CandidateUpdate{Status: &to})
	if err != nil {
		return nil, fmt.Errorf("transition candidate %s %s -> %s: %w", candidateID, from, to, err)
	}
	return updated, nil
}

func (e *Engine) appendMessage(ctx context.Context, msg *entity.ChatMessage) error {
	if err := e.deps.Messages.Create(ctx, msg); err != nil {
		e.log.Error().Err(err).Str("candidate_id", msg.CandidateID).Str("type", msg.MessageType).Msg("Не удалось записать сообщение")
		return fmt.Errorf("append %s message: %w", msg.MessageType, err)
	}
	return nil
}

func (e *Engine) lock(ctx context.Context, candidateID string) (func(), error) {
	unlock, err := e.deps.Locker.Lock(ctx, candidateLockKey(candidateID))
	if err != nil {
		return nil, fmt.Errorf("lock candidate %s: %w", candidateID, err)
	}
	return unlock, nil
}

// resolveLevel возвращает ступень лестницы для индекса.
// Сложность и лимит определяются только индексом, ответ генератора их не меняет.
func (e *Engine) resolveLevel(index int, generated *entity.GeneratedQuestion) entity.DifficultyLevel {
	level := entity.DifficultyForIndex(index)
	if generated.Difficulty != "" && generated.Difficulty != level.Difficulty {
		e.log.Debug().
			Int("index", index).
			Str("suggested", string(generated.Difficulty)).
			Str("enforced", string(level.Difficulty)).
			Msg("Сложность вопроса приведена к лестнице")
	}
	return level
}

func clampOverall(score float64) float64 {
	score = entity.RoundToTenth(score)
	if score < entity.MinScore {
		return entity.MinScore
	}
	if score > entity.MaxScore {
		return entity.MaxScore
	}
	return score
}

func infoRequestMessage(missing []string) string {
	return fmt.Sprintf("I've successfully extracted your resume information. However, I need some additional details: %s. Could you please provide the missing information?",
		strings.Join(missing, ", "))
}

func completionMessage(summary *entity.InterviewSummary) string {
	return fmt.Sprintf("Interview completed! Your final score is %s/10. %s",
		strconv.FormatFloat(summary.OverallScore, 'f', -1, 64), summary.Summary)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
