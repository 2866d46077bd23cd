package interview

// ResolveElapsed вычисляет затраченное на вопрос время в секундах.
// Автоотправка означает, что лимит исчерпан полностью. Иначе время берется
// из остатка, сообщенного клиентом, а при его отсутствии - из затраченного времени.
// Результат всегда в пределах [0, limit].
func ResolveElapsed(limit int, in SubmitAnswerInput) int {
	var elapsed int
	switch {
	case in.AutoSubmitted:
		elapsed = limit
	case in.TimeRemaining != nil:
		elapsed = limit - *in.TimeRemaining
	case in.TimeSpent != nil:
		elapsed = *in.TimeSpent
	}

	if elapsed < 0 {
		return 0
	}
	if elapsed > limit {
		return limit
	}
	return elapsed
}
