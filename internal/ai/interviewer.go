package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

const (
	questionSystemPrompt = "You are an expert technical interviewer. Generate practical, relevant interview questions."
	scoreSystemPrompt    = "You are an expert technical interviewer. Provide fair, constructive evaluations."
	summarySystemPrompt  = "You are an expert technical interviewer providing final candidate assessments."
)

// Interviewer реализует генератор вопросов, оценщик ответов и генератор резюме поверх LLM.
// Ошибки возвращаются как есть: подстановкой значений по умолчанию занимается движок интервью.
type Interviewer struct {
	llm JSONGenerator
}

// NewInterviewer создает Interviewer. llm может быть nil: тогда каждый вызов вернет ErrNoProvider.
func NewInterviewer(llm JSONGenerator) *Interviewer {
	return &Interviewer{llm: llm}
}

// GenerateQuestion генерирует вопрос для индекса с учетом резюме и уже заданных вопросов
func (i *Interviewer) GenerateQuestion(ctx context.Context, index int, resumeText string, previous []string) (*entity.GeneratedQuestion, error) {
	level := entity.DifficultyForIndex(index)
	raw, err := i.generate(ctx, questionSystemPrompt, questionPrompt(index, level, resumeText, previous))
	if err != nil {
		return nil, err
	}
	if err := validateResponse(questionSchemaLoader, raw); err != nil {
		return nil, err
	}

	var resp struct {
		Question   string  `json:"question"`
		Difficulty string  `json:"difficulty"`
		TimeLimit  float64 `json:"timeLimit"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode question response: %w", err)
	}

	return &entity.GeneratedQuestion{
		Question:   strings.TrimSpace(resp.Question),
		Difficulty: entity.Difficulty(resp.Difficulty),
		TimeLimit:  int(math.Round(resp.TimeLimit)),
	}, nil
}

// ScoreAnswer оценивает ответ кандидата
func (i *Interviewer) ScoreAnswer(ctx context.Context, req entity.ScoreRequest) (*entity.AnswerAssessment, error) {
	raw, err := i.generate(ctx, scoreSystemPrompt, scorePrompt(req))
	if err != nil {
		return nil, err
	}
	if err := validateResponse(scoreSchemaLoader, raw); err != nil {
		return nil, err
	}

	var resp struct {
		Score        float64  `json:"score"`
		Feedback     string   `json:"feedback"`
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}

	return &entity.AnswerAssessment{
		Score:        int(math.Round(resp.Score)),
		Feedback:     resp.Feedback,
		Strengths:    nonNil(resp.Strengths),
		Improvements: nonNil(resp.Improvements),
	}, nil
}

// GenerateSummary формирует итоговую оценку интервью
func (i *Interviewer) GenerateSummary(ctx context.Context, candidateName, resumeText string, results []entity.QuestionResult) (*entity.InterviewSummary, error) {
	raw, err := i.generate(ctx, summarySystemPrompt, summaryPrompt(candidateName, resumeText, results))
	if err != nil {
		return nil, err
	}
	if err := validateResponse(summarySchemaLoader, raw); err != nil {
		return nil, err
	}

	var summary entity.InterviewSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("decode summary response: %w", err)
	}
	summary.Strengths = nonNil(summary.Strengths)
	summary.Weaknesses = nonNil(summary.Weaknesses)
	return &summary, nil
}

func (i *Interviewer) generate(ctx context.Context, system, prompt string) (string, error) {
	if i.llm == nil {
		return "", ErrNoProvider
	}
	raw, err := i.llm.GenerateJSON(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	// Модели иногда оборачивают JSON в markdown-блок
	return cleanJSONBlock(raw), nil
}

func questionPrompt(index int, level entity.DifficultyLevel, resumeText string, previous []string) string {
	prev := "None"
	if len(previous) > 0 {
		prev = strings.Join(previous, ", ")
	}
	return fmt.Sprintf(`You are an expert technical interviewer for a Full Stack Developer position (React/Node.js).

Candidate's Resume: %s

Previous questions asked: %s

Generate a %s level technical question for question %d of %d.

Guidelines:
- Easy: Basic concepts, syntax, fundamental understanding
- Medium: Practical application, problem-solving, best practices
- Hard: Complex scenarios, architectural decisions, optimization

Requirements:
- Question should be relevant to Full Stack development (React/Node.js)
- Avoid repeating previous questions
- Make it specific and practical
- Appropriate for a %d second time limit

Respond with JSON in this exact format:
{"question": "Your generated question here", "difficulty": "%s", "timeLimit": %d}`,
		resumeText, prev, level.Difficulty, index+1, entity.TotalQuestions, level.TimeLimit, level.Difficulty, level.TimeLimit)
}

func scorePrompt(req entity.ScoreRequest) string {
	return fmt.Sprintf(`You are an expert technical interviewer evaluating a candidate's answer.

Question (%s level): %s
Candidate's Answer: %s
Time spent: %ds out of %ds allowed

Evaluate this answer on:
1. Technical accuracy (40%%)
2. Completeness (30%%)
3. Clarity of explanation (20%%)
4. Time management (10%%)

Provide a score from 1-10 and detailed feedback.

Respond with JSON in this exact format:
{"score": 8, "feedback": "Overall assessment of the answer", "strengths": ["strength1"], "improvements": ["area1"]}`,
		req.Difficulty, req.QuestionText, req.AnswerText, req.TimeSpent, req.TimeLimit)
}

func summaryPrompt(candidateName, resumeText string, results []entity.QuestionResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "Q%d (%s): %s\nAnswer: %s\nScore: %d/10\n\n", i+1, r.Difficulty, r.Question, r.Answer, r.Score)
	}
	mean := entity.MeanScore(results)
	return fmt.Sprintf(`You are an expert technical interviewer providing a final assessment.

Candidate: %s
Resume: %s

Interview Results:
%s
Overall Score: %.1f/10

Provide a comprehensive summary including the overall assessment, key strengths demonstrated,
areas for improvement and a hiring recommendation.

Respond with JSON in this exact format:
{"overallScore": %.1f, "summary": "Comprehensive assessment paragraph", "strengths": ["strength1"], "weaknesses": ["weakness1"], "recommendation": "Strong hire/Hire/Consider/No hire"}`,
		candidateName, resumeText, sb.String(), mean, mean)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
