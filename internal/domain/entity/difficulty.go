package entity

// Difficulty - уровень сложности вопроса
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TotalQuestions - фиксированное количество вопросов в интервью
const TotalQuestions = 6

// DifficultyLevel описывает ступень лестницы сложности
type DifficultyLevel struct {
	Difficulty Difficulty
	TimeLimit  int // секунды
}

// difficultyLadder: индекс вопроса -> сложность и лимит времени.
// Политика фиксированная, не настраивается.
var difficultyLadder = [TotalQuestions]DifficultyLevel{
	{DifficultyEasy, 20},
	{DifficultyEasy, 20},
	{DifficultyMedium, 60},
	{DifficultyMedium, 60},
	{DifficultyHard, 120},
	{DifficultyHard, 120},
}

// DifficultyForIndex возвращает ступень лестницы для индекса вопроса.
// Индексы вне диапазона прижимаются к ближайшей границе.
func DifficultyForIndex(index int) DifficultyLevel {
	if index < 0 {
		index = 0
	}
	if index >= TotalQuestions {
		index = TotalQuestions - 1
	}
	return difficultyLadder[index]
}

// IsValid проверяет, что значение сложности допустимо
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
