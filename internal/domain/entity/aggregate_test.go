package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuestionTimer_RemainingAt(t *testing.T) {
	shown := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	timer := &QuestionTimer{TimeLimit: 60, ShownAt: shown, ServerTime: shown.Add(25 * time.Second)}
	assert.Equal(t, 35*time.Second, timer.RemainingAt())

	timer.ServerTime = shown.Add(5 * time.Minute)
	assert.Equal(t, time.Duration(0), timer.RemainingAt(), "после истечения лимита остаток равен нулю")

	timer.ServerTime = shown.Add(-time.Second)
	assert.Equal(t, time.Minute, timer.RemainingAt(), "расхождение часов не дает остатка больше лимита")
}
