package candidateclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

func serverTimer(questionID string, limit int, elapsed time.Duration, paused bool) *entity.QuestionTimer {
	// Часы сервера намеренно далеко от часов клиента
	shownAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return &entity.QuestionTimer{
		QuestionID: questionID,
		TimeLimit:  limit,
		ShownAt:    shownAt,
		ServerTime: shownAt.Add(elapsed),
		Paused:     paused,
	}
}

func TestCountdown_SyncUsesServerElapsed(t *testing.T) {
	// Arrange
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)

	// Act
	cd.Sync(serverTimer("q1", 60, 15*time.Second, false))

	// Assert
	assert.Equal(t, 45*time.Second, cd.Remaining())
	clock.Advance(10 * time.Second)
	assert.Equal(t, 35*time.Second, cd.Remaining())
	assert.Equal(t, 35, cd.RemainingSeconds())
}

func TestCountdown_RemainingIsClamped(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)

	cd.Sync(serverTimer("q1", 20, 0, false))
	clock.Advance(time.Minute)
	assert.Equal(t, time.Duration(0), cd.Remaining())

	// server_time раньше shown_at
	cd.Sync(serverTimer("q2", 20, -5*time.Second, false))
	assert.Equal(t, 20*time.Second, cd.Remaining())
}

func TestCountdown_PauseFreezes(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)
	cd.Sync(serverTimer("q1", 60, 0, false))
	clock.Advance(10 * time.Second)

	cd.Pause()
	clock.Advance(5 * time.Minute)

	assert.True(t, cd.Paused())
	assert.Equal(t, 50*time.Second, cd.Remaining())

	cd.Resume()
	clock.Advance(5 * time.Second)
	assert.False(t, cd.Paused())
	assert.Equal(t, 45*time.Second, cd.Remaining())
}

func TestCountdown_ResyncKeepsPauseForSameQuestion(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)
	cd.Sync(serverTimer("q1", 120, 0, false))
	clock.Advance(20 * time.Second)
	cd.Pause()
	clock.Advance(time.Minute)
	cd.Resume()

	// Сервер считает паузу прошедшим временем: 80 секунд с показа вопроса
	cd.Sync(serverTimer("q1", 120, 80*time.Second, false))

	assert.Equal(t, 100*time.Second, cd.Remaining())
}

func TestCountdown_PausedTimerFromServer(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)

	cd.Sync(serverTimer("q1", 60, 10*time.Second, true))
	clock.Advance(time.Minute)

	assert.True(t, cd.Paused())
	assert.Equal(t, 50*time.Second, cd.Remaining())

	// Снятие паузы на сервере учитывает время простоя
	cd.Sync(serverTimer("q1", 60, 70*time.Second, false))
	assert.False(t, cd.Paused())
	assert.Equal(t, 50*time.Second, cd.Remaining())
}

func TestCountdown_NewQuestionResets(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)
	cd.Sync(serverTimer("q1", 20, 0, false))
	cd.Pause()

	cd.Sync(serverTimer("q2", 60, 0, false))

	assert.Equal(t, "q2", cd.QuestionID())
	assert.False(t, cd.Paused())
	assert.Equal(t, 60*time.Second, cd.Remaining())
}

func TestCountdown_CheckExpiryFiresOncePerQuestion(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)
	cd.Sync(serverTimer("q1", 20, 0, false))

	var fired []string
	onExpire := func(id string) { fired = append(fired, id) }

	assert.False(t, cd.CheckExpiry(onExpire))

	clock.Advance(21 * time.Second)
	assert.True(t, cd.CheckExpiry(onExpire))
	assert.False(t, cd.CheckExpiry(onExpire))

	cd.Sync(serverTimer("q2", 20, 25*time.Second, false))
	assert.True(t, cd.CheckExpiry(onExpire))

	assert.Equal(t, []string{"q1", "q2"}, fired)
}

func TestCountdown_NoExpiryWhilePausedOrStopped(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)
	called := false
	onExpire := func(string) { called = true }

	assert.False(t, cd.CheckExpiry(onExpire))

	cd.Sync(serverTimer("q1", 20, 20*time.Second, true))
	assert.False(t, cd.CheckExpiry(onExpire))

	cd.Sync(nil)
	assert.Equal(t, time.Duration(0), cd.Remaining())
	assert.False(t, cd.CheckExpiry(onExpire))
	assert.False(t, called)
}

func TestCountdown_Restore(t *testing.T) {
	clock := newFakeClock()
	cd := NewCountdown(clock.Now)
	// После перезапуска сервер насчитал 10 минут, из них почти все - пауза
	cd.Sync(serverTimer("q1", 120, 10*time.Minute, false))
	assert.Equal(t, time.Duration(0), cd.Remaining())

	cd.Restore("other", 90*time.Second)
	assert.Equal(t, time.Duration(0), cd.Remaining())

	cd.Restore("q1", 90*time.Second)
	assert.Equal(t, 90*time.Second, cd.Remaining())

	// Меньший сохраненный остаток не уменьшает вычисленный
	cd.Restore("q1", 30*time.Second)
	assert.Equal(t, 90*time.Second, cd.Remaining())
}
