package candidateclient

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/interview-api/internal/ai"
	"github.com/yourusername/interview-api/internal/handler"
	"github.com/yourusername/interview-api/internal/middleware"
	"github.com/yourusername/interview-api/internal/repository/memory"
	redisrepo "github.com/yourusername/interview-api/internal/repository/redis"
	"github.com/yourusername/interview-api/internal/resume"
	"github.com/yourusername/interview-api/internal/service"
	"github.com/yourusername/interview-api/internal/service/interview"
)

const (
	fullResume    = "Ada Lovelace\nada@example.com\n(555) 123-4567\nSenior engineer, React and Node.js"
	partialResume = "Ada Lovelace\nSenior engineer, React and Node.js"
)

// newTestServer поднимает API поверх хранилища в памяти и miniredis.
// Без LLM все вопросы и оценки - значения по умолчанию.
func newTestServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
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
	}
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	cache, err := redisrepo.NewCacheRepo(redisClient, "test:")
	require.NoError(t, err)

	engine := interview.NewEngine(&interview.Config{CollaboratorTimeout: time.Second}, deps)
	svc := service.NewCandidateService(engine, interview.NewAggregateBuilder(deps), store.Candidates(),
		resume.NewExtractor(nil), cache, nil, service.CandidateServiceConfig{})
	h := handler.NewCandidateHandler(svc, 0)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/candidates", h.CreateCandidate)
	api.GET("/candidates", h.ListCandidates)
	api.GET("/candidates/export", h.ExportCandidates)
	api.GET("/stats", h.GetStats)
	byID := api.Group("/candidates/:id", middleware.ExtractIDParam("id", handler.CandidateIDKey))
	byID.GET("", h.GetCandidate)
	byID.PATCH("/info", h.SupplyInfo)
	byID.POST("/answers", h.SubmitAnswer)
	byID.GET("/answers", h.GetCandidateAnswers)
	byID.PATCH("/pause", h.SetPaused)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
