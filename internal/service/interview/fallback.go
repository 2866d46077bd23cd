package interview

import (
	"fmt"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

const (
	fallbackFeedback       = "Unable to evaluate answer at this time."
	fallbackSummaryText    = "Interview assessment completed."
	fallbackRecommendation = "Requires manual review"
)

var fallbackTopics = map[entity.Difficulty]string{
	entity.DifficultyEasy:   "React components",
	entity.DifficultyMedium: "state management",
	entity.DifficultyHard:   "system architecture",
}

func fallbackQuestion(index int) *entity.GeneratedQuestion {
	level := entity.DifficultyForIndex(index)
	return &entity.GeneratedQuestion{
		Question:   fmt.Sprintf("Describe your experience with %s.", fallbackTopics[level.Difficulty]),
		Difficulty: level.Difficulty,
		TimeLimit:  level.TimeLimit,
	}
}

func fallbackAssessment() *entity.AnswerAssessment {
	return &entity.AnswerAssessment{
		Score:        entity.DefaultScore,
		Feedback:     fallbackFeedback,
		Strengths:    []string{},
		Improvements: []string{},
	}
}

func fallbackSummary(results []entity.QuestionResult) *entity.InterviewSummary {
	return &entity.InterviewSummary{
		OverallScore:   entity.MeanScore(results),
		Summary:        fallbackSummaryText,
		Strengths:      []string{},
		Weaknesses:     []string{},
		Recommendation: fallbackRecommendation,
	}
}
