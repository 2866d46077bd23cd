package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/interview-api/internal/ai"
	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
	"github.com/yourusername/interview-api/internal/repository/memory"
	redisrepo "github.com/yourusername/interview-api/internal/repository/redis"
	"github.com/yourusername/interview-api/internal/service/interview"
)

// MockResumeExtractor - мок извлечения резюме
type MockResumeExtractor struct {
	mock.Mock
}

func (m *MockResumeExtractor) Extract(ctx context.Context, fileName string, data []byte) (*entity.ExtractedResume, error) {
	args := m.Called(ctx, fileName, data)
	r, _ := args.Get(0).(*entity.ExtractedResume)
	return r, args.Error(1)
}

// MockResumeArchive - мок архива резюме
type MockResumeArchive struct {
	mock.Mock
}

func (m *MockResumeArchive) Store(ctx context.Context, candidateID, fileName, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, candidateID, fileName, contentType, data)
	return args.String(0), args.Error(1)
}

type serviceFixture struct {
	service   *CandidateService
	extractor *MockResumeExtractor
	archive   *MockResumeArchive
	store     *memory.Store
	redis     *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache, err := redisrepo.NewCacheRepo(client, "test:")
	require.NoError(t, err)

	store := memory.NewStore()
	// Модель не настроена: движок работает на значениях по умолчанию
	interviewer := ai.NewInterviewer(nil)
	deps := &interview.Dependencies{
		Candidates: store.Candidates(),
		Questions:  store.Questions(),
		Answers:    store.Answers(),
		Messages:   store.Messages(),
		Tx:         store.Transactor(),
		Questioner: interviewer,
		Scorer:     interviewer,
		Summarizer: interviewer,
		Locker:     interview.NewRedisLocker(cache, time.Second),
	}
	engine := interview.NewEngine(&interview.Config{CollaboratorTimeout: time.Second}, deps)

	f := &serviceFixture{
		extractor: new(MockResumeExtractor),
		archive:   new(MockResumeArchive),
		store:     store,
		redis:     mr,
	}
	f.service = NewCandidateService(engine, interview.NewAggregateBuilder(deps), store.Candidates(), f.extractor, cache, f.archive,
		CandidateServiceConfig{ViewCacheTTL: time.Minute, IdempotencyTTL: time.Hour})
	return f
}

func (f *serviceFixture) start(t *testing.T) *entity.CandidateAggregate {
	t.Helper()
	data := []byte("Ada Lovelace\nada@example.com\n555-123-4567")
	f.extractor.On("Extract", mock.Anything, "cv.txt", data).Return(&entity.ExtractedResume{
		ContactInfo: entity.ContactInfo{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-123-4567"},
		FullText:    string(data),
	}, nil).Once()
	f.archive.On("Store", mock.Anything, mock.Anything, "cv.txt", "text/plain", data).Return("resumes/x/cv.txt", nil).Once()

	agg, err := f.service.StartInterview(context.Background(), "cv.txt", data)
	require.NoError(t, err)
	return agg
}

func TestCandidateService_StartInterview(t *testing.T) {
	f := newServiceFixture(t)

	agg := f.start(t)

	assert.Equal(t, entity.CandidateStatusInterviewing, agg.Candidate.Status)
	require.NotNil(t, agg.CurrentQuestion)
	assert.Equal(t, "Describe your experience with React components.", agg.CurrentQuestion.Text)
	require.NotNil(t, agg.Timer)
	assert.Equal(t, 20, agg.Timer.TimeLimit)
	f.archive.AssertExpectations(t)
}

func TestCandidateService_StartInterview_ExtractionFails(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, "cv.pdf", mock.Anything).
		Return(nil, apperrors.Validation("failed to read resume, please upload it again"))

	_, err := f.service.StartInterview(context.Background(), "cv.pdf", []byte("%PDF"))

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	list, _ := f.store.Candidates().List(context.Background())
	assert.Empty(t, list)
	f.archive.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCandidateService_StartInterview_ArchiveFailureIgnored(t *testing.T) {
	f := newServiceFixture(t)
	data := []byte("plain resume")
	f.extractor.On("Extract", mock.Anything, "cv.txt", data).
		Return(&entity.ExtractedResume{FullText: "plain resume"}, nil)
	f.archive.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable"))

	agg, err := f.service.StartInterview(context.Background(), "cv.txt", data)

	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusInfoCollection, agg.Candidate.Status)
}

func TestCandidateService_SubmitAnswer_Idempotent(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)
	agg := f.start(t)
	ctx := context.Background()
	in := interview.SubmitAnswerInput{QuestionID: agg.CurrentQuestion.ID, AnswerText: "answer", TimeRemaining: entity.IntPtr(5)}

	// Act
	first, err := f.service.SubmitAnswer(ctx, agg.Candidate.ID, "key-1", in)
	require.NoError(t, err)
	second, err := f.service.SubmitAnswer(ctx, agg.Candidate.ID, "key-1", in)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, first.Candidate.CurrentQuestionIndex)
	assert.Equal(t, first.CurrentQuestion.ID, second.CurrentQuestion.ID)
	assert.Equal(t, len(first.Messages), len(second.Messages))
	answers, _ := f.store.Answers().ListByCandidate(ctx, agg.Candidate.ID)
	require.Len(t, answers, 1)
	assert.Equal(t, 15, answers[0].TimeSpent)
	assert.Equal(t, entity.DefaultScore, answers[0].Score)

	// Без ключа повтор - конфликт
	_, err = f.service.SubmitAnswer(ctx, agg.Candidate.ID, "", in)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = f.service.SubmitAnswer(ctx, agg.Candidate.ID, "key-2", in)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCandidateService_GetCandidate_CacheInvalidatedOnMutation(t *testing.T) {
	f := newServiceFixture(t)
	agg := f.start(t)
	ctx := context.Background()

	view, err := f.service.GetCandidate(ctx, agg.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusInterviewing, view.Candidate.Status)
	assert.True(t, f.redis.Exists("test:view:"+agg.Candidate.ID+":1"))

	paused, err := f.service.SetPaused(ctx, agg.Candidate.ID, PauseActionPause)
	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusPaused, paused.Status)
	assert.Equal(t, "view:"+agg.Candidate.ID+":2", f.service.viewKey(ctx, agg.Candidate.ID))

	view, err = f.service.GetCandidate(ctx, agg.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusPaused, view.Candidate.Status)
	require.NotNil(t, view.Timer)
	assert.True(t, view.Timer.Paused)

	// Второе чтение из кеша
	cached, err := f.service.GetCandidate(ctx, agg.Candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Candidate.ID, cached.Candidate.ID)
	assert.Equal(t, view.Timer.QuestionID, cached.Timer.QuestionID)
}

func TestCandidateService_GetCandidate_LateStaleWriteIsIgnored(t *testing.T) {
	f := newServiceFixture(t)
	agg := f.start(t)
	ctx := context.Background()

	// Arrange: чтение началось до паузы и собрало представление со статусом interviewing
	staleKey := f.service.viewKey(ctx, agg.Candidate.ID)
	stale, err := f.service.builder.Build(ctx, agg.Candidate.ID)
	require.NoError(t, err)

	_, err = f.service.SetPaused(ctx, agg.Candidate.ID, PauseActionPause)
	require.NoError(t, err)

	// Act: запоздалая запись в кеш после сброса
	require.NoError(t, f.service.cacheRepo.SetJSON(ctx, staleKey, stale, time.Minute))
	view, err := f.service.GetCandidate(ctx, agg.Candidate.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.CandidateStatusPaused, view.Candidate.Status)
	require.NotNil(t, view.Timer)
	assert.True(t, view.Timer.Paused)
}

func TestCandidateService_GetCandidate_WithoutGenerationUsesZero(t *testing.T) {
	f := newServiceFixture(t)

	key := f.service.viewKey(context.Background(), "fresh")

	assert.Equal(t, "view:fresh:0", key)
}

func TestCandidateService_SetPaused_InvalidAction(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.SetPaused(context.Background(), "any", "stop")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCandidateService_GetCandidate_NotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.GetCandidate(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCandidateService_Stats(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	stats, err := f.service.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCandidates)

	f.start(t)

	stats, err = f.service.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCandidates)
	assert.Equal(t, int64(1), stats.ActiveInterviews)
	assert.Zero(t, stats.AverageScore)

	list, err := f.service.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
