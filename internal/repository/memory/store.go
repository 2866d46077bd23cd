// Package memory содержит хранилище сессий интервью в памяти процесса.
// Используется при storage.driver=memory и в тестах сервисов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// Store хранит кандидатов, вопросы, ответы и журнал сообщений.
// Реализует все четыре репозитория через отдельные представления.
type Store struct {
	mu         sync.RWMutex
	candidates map[string]*entity.Candidate
	questions  map[string][]entity.Question    // candidateID -> вопросы
	answers    map[string][]entity.Answer      // candidateID -> ответы
	messages   map[string][]entity.ChatMessage // candidateID -> журнал
	answered   map[string]struct{}             // questionID, на которые уже есть ответ
	now        func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		candidates: make(map[string]*entity.Candidate),
		questions:  make(map[string][]entity.Question),
		answers:    make(map[string][]entity.Answer),
		messages:   make(map[string][]entity.ChatMessage),
		answered:   make(map[string]struct{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock подменяет источник времени
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Candidates возвращает репозиторий кандидатов
func (s *Store) Candidates() *CandidateRepo { return &CandidateRepo{s} }

// Questions возвращает репозиторий вопросов
func (s *Store) Questions() *QuestionRepo { return &QuestionRepo{s} }

// Answers возвращает репозиторий ответов
func (s *Store) Answers() *AnswerRepo { return &AnswerRepo{s} }

// Messages возвращает журнал сообщений
func (s *Store) Messages() *ChatMessageRepo { return &ChatMessageRepo{s} }

// Transactor возвращает транзакции хранилища
func (s *Store) Transactor() *Transactor { return &Transactor{s} }

type txKey struct{}

// memTx - журнал отмены изменений, сделанных внутри транзакции
type memTx struct {
	undo []func()
}

// Transactor реализует repository.Transactor.
// Изменения применяются сразу, при ошибке fn откатываются в обратном порядке.
type Transactor struct{ s *Store }

// WithinTransaction выполняет fn в транзакции. Вложенный вызов использует внешнюю транзакцию.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*memTx); ok {
		return fn(ctx)
	}
	tx := &memTx{}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		t.s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		t.s.mu.Unlock()
		return err
	}
	return nil
}

// journal запоминает отмену изменения. Вызывается под s.mu.
func journal(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

// CandidateRepo реализует repository.CandidateRepository
type CandidateRepo struct{ s *Store }

// Create создает кандидата
func (r *CandidateRepo) Create(ctx context.Context, candidate *entity.Candidate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if _, exists := r.s.candidates[candidate.ID]; exists {
		return fmt.Errorf("%w: candidate %s already exists", apperrors.ErrConflict, candidate.ID)
	}
	candidate.StartedAt = r.s.now()
	candidate.CompletedAt = nil
	candidate.PausedAt = nil
	if candidate.Status == "" {
		candidate.Status = entity.CandidateStatusPending
	}
	id := candidate.ID
	r.s.candidates[id] = cloneCandidate(candidate)
	journal(ctx, func() { delete(r.s.candidates, id) })
	return nil
}

// GetByID возвращает копию кандидата
func (r *CandidateRepo) GetByID(_ context.Context, id string) (*entity.Candidate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.candidates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneCandidate(c), nil
}

// Update применяет частичное обновление
func (r *CandidateRepo) Update(ctx context.Context, id string, update entity.CandidateUpdate) (*entity.Candidate, error) {
	return r.updateIf(ctx, id, update, func(*entity.Candidate) error { return nil })
}

// AdvanceQuestionIndex обновляет кандидата при совпадении индекса вопроса
func (r *CandidateRepo) AdvanceQuestionIndex(ctx context.Context, id string, expectedIndex int, update entity.CandidateUpdate) (*entity.Candidate, error) {
	return r.updateIf(ctx, id, update, func(c *entity.Candidate) error {
		if c.CurrentQuestionIndex != expectedIndex {
			return fmt.Errorf("%w: candidate %s: question index is %d, expected %d",
				apperrors.ErrConflict, id, c.CurrentQuestionIndex, expectedIndex)
		}
		return nil
	})
}

// TransitionStatus обновляет кандидата при совпадении статуса
func (r *CandidateRepo) TransitionStatus(ctx context.Context, id string, fromStatus string, update entity.CandidateUpdate) (*entity.Candidate, error) {
	return r.updateIf(ctx, id, update, func(c *entity.Candidate) error {
		if c.Status != fromStatus {
			return fmt.Errorf("%w: candidate %s: status is %s, expected %s",
				apperrors.ErrConflict, id, c.Status, fromStatus)
		}
		return nil
	})
}

func (r *CandidateRepo) updateIf(ctx context.Context, id string, update entity.CandidateUpdate, check func(*entity.Candidate) error) (*entity.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.candidates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if err := check(c); err != nil {
		return nil, err
	}
	prev := cloneCandidate(c)
	update.Apply(c)
	journal(ctx, func() { r.s.candidates[id] = prev })
	return cloneCandidate(c), nil
}

// List возвращает всех кандидатов, новые первыми
func (r *CandidateRepo) List(_ context.Context) ([]entity.Candidate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]entity.Candidate, 0, len(r.s.candidates))
	for _, c := range r.s.candidates {
		list = append(list, *cloneCandidate(c))
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartedAt.After(list[j].StartedAt)
	})
	return list, nil
}

// GetStats считает статистику по всем кандидатам
func (r *CandidateRepo) GetStats(_ context.Context) (*entity.InterviewStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &entity.InterviewStats{}
	var scoreSum float64
	var scored int
	for _, c := range r.s.candidates {
		stats.TotalCandidates++
		switch c.Status {
		case entity.CandidateStatusCompleted:
			stats.CompletedInterviews++
			if c.Score != nil {
				scoreSum += *c.Score
				scored++
			}
		case entity.CandidateStatusInterviewing, entity.CandidateStatusInfoCollection:
			stats.ActiveInterviews++
		}
	}
	if scored > 0 {
		stats.AverageScore = entity.RoundToTenth(scoreSum / float64(scored))
	}
	return stats, nil
}

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct{ s *Store }

// Create сохраняет вопрос; индекс уникален в пределах кандидата
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, q := range r.s.questions[question.CandidateID] {
		if q.QuestionIndex == question.QuestionIndex {
			return fmt.Errorf("%w: question %d already exists for candidate %s",
				apperrors.ErrConflict, question.QuestionIndex, question.CandidateID)
		}
	}
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = r.s.now()
	}
	list := append(r.s.questions[question.CandidateID], *question)
	sort.SliceStable(list, func(i, j int) bool { return list[i].QuestionIndex < list[j].QuestionIndex })
	r.s.questions[question.CandidateID] = list
	candidateID, questionID := question.CandidateID, question.ID
	journal(ctx, func() {
		r.s.questions[candidateID] = removeWhere(r.s.questions[candidateID], func(q entity.Question) bool { return q.ID == questionID })
	})
	return nil
}

// GetByID ищет вопрос по ID
func (r *QuestionRepo) GetByID(_ context.Context, id string) (*entity.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, list := range r.s.questions {
		for _, q := range list {
			if q.ID == id {
				found := q
				return &found, nil
			}
		}
	}
	return nil, apperrors.ErrNotFound
}

// GetByCandidateAndIndex возвращает вопрос кандидата с заданным индексом
func (r *QuestionRepo) GetByCandidateAndIndex(_ context.Context, candidateID string, index int) (*entity.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, q := range r.s.questions[candidateID] {
		if q.QuestionIndex == index {
			found := q
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListByCandidate возвращает вопросы по возрастанию индекса
func (r *QuestionRepo) ListByCandidate(_ context.Context, candidateID string) ([]entity.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := r.s.questions[candidateID]
	out := make([]entity.Question, len(list))
	copy(out, list)
	return out, nil
}

// CountByCandidate возвращает количество вопросов кандидата
func (r *QuestionRepo) CountByCandidate(_ context.Context, candidateID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.questions[candidateID])), nil
}

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct{ s *Store }

// Create сохраняет ответ; повторный ответ на вопрос - конфликт
func (r *AnswerRepo) Create(ctx context.Context, answer *entity.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.s.answered[answer.QuestionID]; dup {
		return fmt.Errorf("%w: question %s already answered", apperrors.ErrConflict, answer.QuestionID)
	}
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.SubmittedAt.IsZero() {
		answer.SubmittedAt = r.s.now()
	}
	r.s.answered[answer.QuestionID] = struct{}{}
	r.s.answers[answer.CandidateID] = append(r.s.answers[answer.CandidateID], *answer)
	candidateID, questionID, answerID := answer.CandidateID, answer.QuestionID, answer.ID
	journal(ctx, func() {
		delete(r.s.answered, questionID)
		r.s.answers[candidateID] = removeWhere(r.s.answers[candidateID], func(a entity.Answer) bool { return a.ID == answerID })
	})
	return nil
}

// ListByCandidate возвращает ответы в порядке отправки
func (r *AnswerRepo) ListByCandidate(_ context.Context, candidateID string) ([]entity.Answer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := r.s.answers[candidateID]
	out := make([]entity.Answer, len(list))
	copy(out, list)
	return out, nil
}

// ChatMessageRepo реализует repository.ChatMessageRepository
type ChatMessageRepo struct{ s *Store }

// Create добавляет сообщение в конец журнала
func (r *ChatMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = r.s.now()
	}
	if message.Metadata == nil {
		message.Metadata = entity.JSONMap{}
	}
	r.s.messages[message.CandidateID] = append(r.s.messages[message.CandidateID], *message)
	candidateID, messageID := message.CandidateID, message.ID
	journal(ctx, func() {
		r.s.messages[candidateID] = removeWhere(r.s.messages[candidateID], func(m entity.ChatMessage) bool { return m.ID == messageID })
	})
	return nil
}

// ListByCandidate возвращает журнал в порядке добавления
func (r *ChatMessageRepo) ListByCandidate(_ context.Context, candidateID string) ([]entity.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := r.s.messages[candidateID]
	out := make([]entity.ChatMessage, len(list))
	copy(out, list)
	return out, nil
}

func cloneCandidate(c *entity.Candidate) *entity.Candidate {
	clone := *c
	if c.Name != nil {
		clone.Name = entity.StringPtr(*c.Name)
	}
	if c.Email != nil {
		clone.Email = entity.StringPtr(*c.Email)
	}
	if c.Phone != nil {
		clone.Phone = entity.StringPtr(*c.Phone)
	}
	if c.Score != nil {
		score := *c.Score
		clone.Score = &score
	}
	if c.Summary != nil {
		clone.Summary = entity.StringPtr(*c.Summary)
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		clone.CompletedAt = &t
	}
	if c.PausedAt != nil {
		t := *c.PausedAt
		clone.PausedAt = &t
	}
	return &clone
}

func removeWhere[T any](list []T, match func(T) bool) []T {
	out := list[:0]
	for _, item := range list {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
