package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// setupTestDB создает изолированную in-memory базу SQLite для тестов репозиториев
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "не удалось открыть тестовую базу")
	require.NoError(t, db.AutoMigrate(&entity.Candidate{}, &entity.Question{}, &entity.Answer{}, &entity.ChatMessage{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createCandidate(t *testing.T, repo *CandidateRepo, status string) *entity.Candidate {
	t.Helper()
	c := &entity.Candidate{ResumeText: "resume", Status: status}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestCandidateRepo_CreateAndGet(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	repo := NewCandidateRepo(db)
	ctx := context.Background()

	// Act
	c := &entity.Candidate{Name: entity.StringPtr("Ada"), ResumeText: "text", Status: entity.CandidateStatusInterviewing}
	require.NoError(t, repo.Create(ctx, c))
	got, err := repo.GetByID(ctx, c.ID)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID, "ID должен назначаться при создании")
	assert.False(t, got.StartedAt.IsZero())
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.PausedAt)
	assert.Equal(t, "Ada", got.DisplayName())
	assert.Nil(t, got.Email)
}

func TestCandidateRepo_GetByID_NotFound(t *testing.T) {
	repo := NewCandidateRepo(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCandidateRepo_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCandidateRepo(db)
	ctx := context.Background()
	c := createCandidate(t, repo, entity.CandidateStatusInterviewing)
	pausedAt := time.Now().UTC()

	updated, err := repo.Update(ctx, c.ID, entity.CandidateUpdate{
		Status:   entity.StringPtr(entity.CandidateStatusPaused),
		PausedAt: &pausedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusPaused, updated.Status)
	require.NotNil(t, updated.PausedAt)

	resumed, err := repo.Update(ctx, c.ID, entity.CandidateUpdate{
		Status:        entity.StringPtr(entity.CandidateStatusInterviewing),
		ClearPausedAt: true,
	})
	require.NoError(t, err)
	assert.Nil(t, resumed.PausedAt, "paused_at должен очищаться")

	_, err = repo.Update(ctx, "missing", entity.CandidateUpdate{Status: entity.StringPtr(entity.CandidateStatusPaused)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCandidateRepo_AdvanceQuestionIndex(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCandidateRepo(db)
	ctx := context.Background()
	c := createCandidate(t, repo, entity.CandidateStatusInterviewing)

	// Первое продвижение проходит
	updated, err := repo.AdvanceQuestionIndex(ctx, c.ID, 0, entity.CandidateUpdate{CurrentQuestionIndex: entity.IntPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentQuestionIndex)

	// Повтор с тем же ожидаемым индексом - конфликт
	_, err = repo.AdvanceQuestionIndex(ctx, c.ID, 0, entity.CandidateUpdate{CurrentQuestionIndex: entity.IntPtr(1)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)

	// Несуществующий кандидат - NotFound
	_, err = repo.AdvanceQuestionIndex(ctx, "missing", 0, entity.CandidateUpdate{CurrentQuestionIndex: entity.IntPtr(1)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCandidateRepo_TransitionStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCandidateRepo(db)
	ctx := context.Background()
	c := createCandidate(t, repo, entity.CandidateStatusInfoCollection)
	update := entity.CandidateUpdate{Status: entity.StringPtr(entity.CandidateStatusInterviewing)}

	_, err := repo.TransitionStatus(ctx, c.ID, entity.CandidateStatusInfoCollection, update)
	require.NoError(t, err)

	_, err = repo.TransitionStatus(ctx, c.ID, entity.CandidateStatusInfoCollection, update)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "повторный переход из info_collection невозможен")
}

func TestCandidateRepo_ListOrderAndStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCandidateRepo(db)
	ctx := context.Background()

	first := createCandidate(t, repo, entity.CandidateStatusCompleted)
	time.Sleep(5 * time.Millisecond)
	second := createCandidate(t, repo, entity.CandidateStatusCompleted)
	time.Sleep(5 * time.Millisecond)
	third := createCandidate(t, repo, entity.CandidateStatusInterviewing)
	createCandidate(t, repo, entity.CandidateStatusInfoCollection)
	createCandidate(t, repo, entity.CandidateStatusPaused)

	score1, score2 := 7.0, 8.0
	_, err := repo.Update(ctx, first.ID, entity.CandidateUpdate{Score: &score1})
	require.NoError(t, err)
	_, err = repo.Update(ctx, second.ID, entity.CandidateUpdate{Score: &score2})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, first.ID, list[len(list)-1].ID, "самый старый кандидат должен быть последним")
	assert.NotEqual(t, third.ID, list[len(list)-1].ID)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalCandidates)
	assert.Equal(t, int64(2), stats.CompletedInterviews)
	assert.Equal(t, int64(2), stats.ActiveInterviews, "paused не считается активным")
	assert.Equal(t, 7.5, stats.AverageScore)
}

func TestCandidateRepo_StatsEmpty(t *testing.T) {
	repo := NewCandidateRepo(setupTestDB(t))
	createCandidate(t, repo, entity.CandidateStatusInterviewing)

	stats, err := repo.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.AverageScore, "без завершенных интервью средняя оценка равна 0")
}

func TestQuestionRepo_CreateAndQuery(t *testing.T) {
	db := setupTestDB(t)
	candidates := NewCandidateRepo(db)
	repo := NewQuestionRepo(db)
	ctx := context.Background()
	c := createCandidate(t, candidates, entity.CandidateStatusInterviewing)

	for _, idx := range []int{1, 0} {
		level := entity.DifficultyForIndex(idx)
		require.NoError(t, repo.Create(ctx, &entity.Question{
			CandidateID:   c.ID,
			Text:          fmt.Sprintf("Question %d", idx),
			Difficulty:    level.Difficulty,
			TimeLimit:     level.TimeLimit,
			QuestionIndex: idx,
		}))
	}

	list, err := repo.ListByCandidate(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].QuestionIndex, "вопросы упорядочены по индексу")

	current, err := repo.GetByCandidateAndIndex(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Question 1", current.Text)

	_, err = repo.GetByCandidateAndIndex(ctx, c.ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	count, err := repo.CountByCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	err = repo.Create(ctx, &entity.Question{CandidateID: c.ID, Text: "dup", Difficulty: entity.DifficultyEasy, TimeLimit: 20, QuestionIndex: 0})
	assert.ErrorIs(t, err, apperrors.ErrConflict, "второй вопрос с тем же индексом запрещен")
}

func TestAnswerRepo_DuplicateIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAnswerRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Answer{QuestionID: "q1", CandidateID: "c1", AnswerText: "a", Score: 6, TimeSpent: 10}))
	err := repo.Create(ctx, &entity.Answer{QuestionID: "q1", CandidateID: "c1", AnswerText: "b", Score: 7})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	answers, err := repo.ListByCandidate(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "a", answers[0].AnswerText)
}

func TestChatMessageRepo_OrderAndMetadata(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatMessageRepo(db)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{
		CandidateID: "c1", Sender: entity.SenderAI, Message: "second", MessageType: entity.MessageTypeQuestion,
		Metadata: entity.JSONMap{entity.MetaQuestionID: "q1", entity.MetaTimeLimit: 20}, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{
		CandidateID: "c1", Sender: entity.SenderAI, Message: "first", MessageType: entity.MessageTypeText, CreatedAt: base,
	}))

	messages, err := repo.ListByCandidate(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "q1", messages[1].Metadata[entity.MetaQuestionID])
	assert.Equal(t, float64(20), messages[1].Metadata[entity.MetaTimeLimit])
	assert.NotNil(t, messages[0].Metadata, "пустые метаданные сохраняются как объект")
}

func TestTransactor_RollbackOnError(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	tx := NewTransactor(db)
	candidates := NewCandidateRepo(db)
	answers := NewAnswerRepo(db)
	ctx := context.Background()
	c := createCandidate(t, candidates, entity.CandidateStatusInterviewing)
	failure := errors.New("question storage unavailable")

	// Act
	err := tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, answers.Create(txCtx, &entity.Answer{QuestionID: "q0", CandidateID: c.ID, AnswerText: "a", Score: 6}))
		_, err := candidates.AdvanceQuestionIndex(txCtx, c.ID, 0, entity.CandidateUpdate{CurrentQuestionIndex: entity.IntPtr(1)})
		require.NoError(t, err)
		return failure
	})

	// Assert
	assert.ErrorIs(t, err, failure)
	list, err := answers.ListByCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "ответ откатывается вместе с транзакцией")
	got, err := candidates.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentQuestionIndex)
}

func TestTransactor_Commit(t *testing.T) {
	db := setupTestDB(t)
	tx := NewTransactor(db)
	candidates := NewCandidateRepo(db)
	messages := NewChatMessageRepo(db)
	ctx := context.Background()

	var id string
	err := tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		c := &entity.Candidate{ResumeText: "resume", Status: entity.CandidateStatusInfoCollection}
		if err := candidates.Create(txCtx, c); err != nil {
			return err
		}
		id = c.ID
		return messages.Create(txCtx, &entity.ChatMessage{CandidateID: c.ID, Sender: entity.SenderAI, Message: "hi", MessageType: entity.MessageTypeInfoRequest})
	})

	require.NoError(t, err)
	got, err := candidates.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusInfoCollection, got.Status)
	list, err := messages.ListByCandidate(ctx, id)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
