package repository

import (
	"context"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// CandidateRepository определяет методы для работы с кандидатами
type CandidateRepository interface {
	// Create назначает ID (если пуст) и StartedAt, CompletedAt/PausedAt не заданы
	Create(ctx context.Context, candidate *entity.Candidate) error
	GetByID(ctx context.Context, id string) (*entity.Candidate, error)
	// Update применяет частичное обновление. ErrNotFound, если кандидата нет.
	Update(ctx context.Context, id string, update entity.CandidateUpdate) (*entity.Candidate, error)
	// AdvanceQuestionIndex применяет обновление, только если current_question_index
	// равен expectedIndex. Иначе ErrConflict.
	AdvanceQuestionIndex(ctx context.Context, id string, expectedIndex int, update entity.CandidateUpdate) (*entity.Candidate, error)
	// TransitionStatus применяет обновление, только если текущий статус равен fromStatus.
	// Иначе ErrConflict.
	TransitionStatus(ctx context.Context, id string, fromStatus string, update entity.CandidateUpdate) (*entity.Candidate, error)
	// List возвращает всех кандидатов, новые первыми
	List(ctx context.Context) ([]entity.Candidate, error)
	GetStats(ctx context.Context) (*entity.InterviewStats, error)
}
