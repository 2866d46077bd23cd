package candidateclient

import (
	"sync"
	"time"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// Countdown - обратный отсчет по текущему вопросу.
// Оставшееся время вычисляется по часам: limit - (now - anchor - pausedTotal),
// тики таймера ничего не накапливают.
type Countdown struct {
	mu          sync.Mutex
	now         func() time.Time
	questionID  string
	limit       time.Duration
	anchor      time.Time
	pausedAt    time.Time // нулевое значение - отсчет идет
	pausedTotal time.Duration
	expireOnce  *sync.Once
}

// NewCountdown создает остановленный отсчет. now может быть nil.
func NewCountdown(now func() time.Time) *Countdown {
	if now == nil {
		now = time.Now
	}
	return &Countdown{now: now, expireOnce: &sync.Once{}}
}

// Sync привязывает отсчет к таймеру из ответа сервера.
// Якорь пересчитывается как now - (server_time - shown_at), поэтому расхождение
// часов клиента и сервера не влияет на результат. Накопленная пауза по тому же
// вопросу сохраняется. nil останавливает отсчет.
func (c *Countdown) Sync(timer *entity.QuestionTimer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer == nil {
		c.questionID = ""
		c.pausedAt = time.Time{}
		return
	}

	now := c.now()
	if timer.QuestionID != c.questionID {
		c.questionID = timer.QuestionID
		c.pausedTotal = 0
		c.pausedAt = time.Time{}
		c.expireOnce = &sync.Once{}
	}
	c.limit = time.Duration(timer.TimeLimit) * time.Second

	elapsed := timer.ServerTime.Sub(timer.ShownAt)
	if elapsed < 0 {
		elapsed = 0
	}
	c.anchor = now.Add(-elapsed)

	if timer.Paused && c.pausedAt.IsZero() {
		c.pausedAt = now
	}
	if !timer.Paused && !c.pausedAt.IsZero() {
		c.pausedTotal += now.Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
}

// Restore восстанавливает остаток, сохраненный клиентом для того же вопроса.
// Сервер не учитывает паузы в server_time - shown_at, поэтому после перезапуска
// клиента остаток берется из сохраненной сессии, если он больше вычисленного.
func (c *Countdown) Restore(questionID string, remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if questionID == "" || questionID != c.questionID {
		return
	}
	if remaining > c.limit {
		remaining = c.limit
	}
	at := c.now()
	if !c.pausedAt.IsZero() {
		at = c.pausedAt
	}
	if needed := at.Sub(c.anchor) - (c.limit - remaining); needed > c.pausedTotal {
		c.pausedTotal = needed
	}
}

// QuestionID возвращает ID вопроса, по которому идет отсчет
func (c *Countdown) QuestionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questionID
}

// Pause замораживает отсчет
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.questionID != "" && c.pausedAt.IsZero() {
		c.pausedAt = c.now()
	}
}

// Resume продолжает отсчет с того же значения
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pausedAt.IsZero() {
		c.pausedTotal += c.now().Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
}

// Paused проверяет, заморожен ли отсчет
func (c *Countdown) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.pausedAt.IsZero()
}

// Remaining возвращает оставшееся время, не меньше нуля
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

func (c *Countdown) remainingLocked() time.Duration {
	if c.questionID == "" {
		return 0
	}
	at := c.now()
	if !c.pausedAt.IsZero() {
		at = c.pausedAt
	}
	remaining := c.limit - (at.Sub(c.anchor) - c.pausedTotal)
	if remaining < 0 {
		return 0
	}
	if remaining > c.limit {
		return c.limit
	}
	return remaining
}

// RemainingSeconds возвращает остаток в целых секундах, округляя вверх
func (c *Countdown) RemainingSeconds() int {
	remaining := c.Remaining()
	return int((remaining + time.Second - 1) / time.Second)
}

// CheckExpiry вызывает onExpire не больше одного раза на вопрос, когда время вышло.
// Возвращает true, если вызов произошел.
func (c *Countdown) CheckExpiry(onExpire func(questionID string)) bool {
	c.mu.Lock()
	if c.questionID == "" || !c.pausedAt.IsZero() || c.remainingLocked() > 0 {
		c.mu.Unlock()
		return false
	}
	once, questionID := c.expireOnce, c.questionID
	c.mu.Unlock()

	fired := false
	once.Do(func() {
		fired = true
		onExpire(questionID)
	})
	return fired
}
