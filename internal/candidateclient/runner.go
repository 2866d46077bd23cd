package candidateclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/interview-api/internal/domain/entity"
	"github.com/yourusername/interview-api/internal/handler/dto"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// Команды, которые кандидат вводит вместо ответа
const (
	CommandPause  = "/pause"
	CommandResume = "/resume"
)

// ErrInputClosed - ввод закончился раньше интервью; сессия сохранена
var ErrInputClosed = errors.New("input closed")

// RunnerOptions - необязательные настройки Runner
type RunnerOptions struct {
	Now          func() time.Time
	TickInterval time.Duration
}

// Runner ведет интервью в терминале: печатает переписку, принимает ответы,
// следит за отсчетом и сохраняет сессию после каждого шага
type Runner struct {
	client    *Client
	store     *SessionStore
	out       io.Writer
	lines     <-chan string
	now       func() time.Time
	tick      time.Duration
	countdown *Countdown
	printed   int
}

// NewRunner создает Runner. Чтение in начинается сразу в отдельной горутине.
func NewRunner(client *Client, store *SessionStore, in io.Reader, out io.Writer, opts RunnerOptions) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 250 * time.Millisecond
	}
	return &Runner{
		client:    client,
		store:     store,
		out:       out,
		lines:     scanLines(in),
		now:       opts.Now,
		tick:      opts.TickInterval,
		countdown: NewCountdown(opts.Now),
	}
}

func scanLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Start загружает резюме и проводит интервью. Если есть незавершенная свежая сессия,
// сначала предлагает продолжить ее.
func (r *Runner) Start(ctx context.Context, resumePath string) error {
	session, err := r.store.Load()
	if err != nil {
		r.printf("Saved session is unreadable, starting fresh: %v\n", err)
	}
	if session.ShouldOfferResume(r.now()) {
		r.printf("Welcome back! You have an unfinished interview for %s. Continue it? [y/N] ", displayName(session.Aggregate.Candidate))
		answer, err := r.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
			return r.resume(ctx, session)
		}
	}
	if err := r.store.Clear(); err != nil {
		r.printf("Warning: %v\n", err)
	}

	data, err := os.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	agg, err := r.client.StartInterview(ctx, filepath.Base(resumePath), data)
	if err != nil {
		return fmt.Errorf("start interview: %w", err)
	}
	return r.run(ctx, agg)
}

// Continue продолжает сохраненную сессию. Возвращает false, если продолжать нечего.
func (r *Runner) Continue(ctx context.Context) (bool, error) {
	session, err := r.store.Load()
	if err != nil {
		return false, err
	}
	if !session.ShouldOfferResume(r.now()) {
		if session != nil {
			if err := r.store.Clear(); err != nil {
				r.printf("Warning: %v\n", err)
			}
		}
		return false, nil
	}
	return true, r.resume(ctx, session)
}

func (r *Runner) resume(ctx context.Context, session *Session) error {
	agg, err := r.client.GetCandidate(ctx, session.CandidateID())
	if errors.Is(err, apperrors.ErrNotFound) {
		_ = r.store.Clear()
		return fmt.Errorf("saved interview no longer exists on the server: %w", err)
	}
	if err != nil {
		return err
	}

	r.countdown.Sync(agg.Timer)
	if session.TimerQuestionID != "" {
		r.countdown.Restore(session.TimerQuestionID, time.Duration(session.RemainingSeconds)*time.Second)
	}
	r.printf("Welcome back, %s! Continuing your interview.\n", displayName(agg.Candidate))
	return r.run(ctx, agg)
}

func (r *Runner) run(ctx context.Context, agg *entity.CandidateAggregate) error {
	for {
		r.countdown.Sync(agg.Timer)
		r.printNew(agg)
		r.save(agg)

		var err error
		switch agg.Candidate.Status {
		case entity.CandidateStatusCompleted:
			if err := r.store.Clear(); err != nil {
				r.printf("Warning: %v\n", err)
			}
			return nil
		case entity.CandidateStatusInfoCollection:
			agg, err = r.collectInfo(ctx, agg)
		case entity.CandidateStatusPaused:
			agg, err = r.waitResume(ctx, agg)
		case entity.CandidateStatusInterviewing:
			agg, err = r.answerQuestion(ctx, agg)
		default:
			return fmt.Errorf("unexpected candidate status %q", agg.Candidate.Status)
		}
		if err != nil {
			return err
		}
	}
}

func (r *Runner) collectInfo(ctx context.Context, agg *entity.CandidateAggregate) (*entity.CandidateAggregate, error) {
	var info entity.ContactInfo
	for _, field := range agg.Candidate.MissingFields() {
		r.printf("Your %s: ", field)
		value, err := r.readLine(ctx)
		if err != nil {
			return nil, err
		}
		switch field {
		case entity.FieldName:
			info.Name = value
		case entity.FieldEmail:
			info.Email = value
		case entity.FieldPhone:
			info.Phone = value
		}
	}

	next, err := r.client.SupplyInfo(ctx, agg.Candidate.ID, info)
	if errors.Is(err, apperrors.ErrValidation) {
		r.printf("%v\n", userMessage(err))
		return r.client.GetCandidate(ctx, agg.Candidate.ID)
	}
	return next, err
}

func (r *Runner) waitResume(ctx context.Context, agg *entity.CandidateAggregate) (*entity.CandidateAggregate, error) {
	r.countdown.Pause()
	r.printf("Interview is paused. Type %s to continue.\n", CommandResume)
	for {
		line, err := r.readLine(ctx)
		if err != nil {
			return nil, err
		}
		if line == CommandResume {
			break
		}
		r.printf("Type %s to continue.\n", CommandResume)
	}

	if _, err := r.client.SetPaused(ctx, agg.Candidate.ID, false); err != nil {
		return nil, fmt.Errorf("resume interview: %w", err)
	}
	r.countdown.Resume()
	return r.client.GetCandidate(ctx, agg.Candidate.ID)
}

func (r *Runner) answerQuestion(ctx context.Context, agg *entity.CandidateAggregate) (*entity.CandidateAggregate, error) {
	question := agg.CurrentQuestion
	if question == nil || agg.Timer == nil {
		return nil, fmt.Errorf("candidate %s is interviewing but has no current question", agg.Candidate.ID)
	}
	r.printf("Type your answer and press Enter (%s to pause). %ds left.\n", CommandPause, r.countdown.RemainingSeconds())

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	lastShown := r.countdown.RemainingSeconds()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case line, ok := <-r.lines:
			if !ok {
				return nil, ErrInputClosed
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case CommandPause:
				return r.pause(ctx, agg)
			}
			return r.submit(ctx, agg, line, false)
		case <-ticker.C:
			expired := r.countdown.CheckExpiry(func(string) {})
			if expired {
				r.printf("Time is up, submitting your answer.\n")
				return r.submit(ctx, agg, "", true)
			}
			if secs := r.countdown.RemainingSeconds(); secs != lastShown && (secs%10 == 0 || secs <= 5) {
				lastShown = secs
				r.printf("  %ds left\n", secs)
				r.save(agg)
			}
		}
	}
}

func (r *Runner) submit(ctx context.Context, agg *entity.CandidateAggregate, text string, auto bool) (*entity.CandidateAggregate, error) {
	req := dto.SubmitAnswerRequest{
		QuestionID:    agg.CurrentQuestion.ID,
		AnswerText:    text,
		AutoSubmitted: auto,
	}
	if !auto {
		remaining := r.countdown.RemainingSeconds()
		req.TimeRemaining = &remaining
	}

	// Один ключ на попытку: повтор после сетевой ошибки не создаст второй ответ
	key := uuid.NewString()
	next, err := r.client.SubmitAnswer(ctx, agg.Candidate.ID, key, req)
	if IsNetworkError(err) && ctx.Err() == nil {
		next, err = r.client.SubmitAnswer(ctx, agg.Candidate.ID, key, req)
	}
	if errors.Is(err, apperrors.ErrConflict) {
		r.printf("This question was already answered, refreshing.\n")
		return r.client.GetCandidate(ctx, agg.Candidate.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return next, nil
}

func (r *Runner) pause(ctx context.Context, agg *entity.CandidateAggregate) (*entity.CandidateAggregate, error) {
	if _, err := r.client.SetPaused(ctx, agg.Candidate.ID, true); err != nil {
		return nil, fmt.Errorf("pause interview: %w", err)
	}
	r.countdown.Pause()
	r.save(agg)
	return r.client.GetCandidate(ctx, agg.Candidate.ID)
}

func (r *Runner) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if !ok {
			return "", ErrInputClosed
		}
		return strings.TrimSpace(line), nil
	}
}

// printNew печатает сообщения журнала, которые еще не были показаны
func (r *Runner) printNew(agg *entity.CandidateAggregate) {
	if r.printed > len(agg.Messages) {
		r.printed = 0
	}
	for _, msg := range agg.Messages[r.printed:] {
		switch msg.MessageType {
		case entity.MessageTypeQuestion:
			r.printf("\nInterviewer [%s]: %s\n", questionHeader(msg), msg.Message)
		case entity.MessageTypeAnswer:
			if score, ok := msg.Metadata[entity.MetaScore].(float64); ok {
				r.printf("Score: %d/10\n", int(score))
			}
		default:
			if msg.Sender == entity.SenderAI {
				r.printf("\nInterviewer: %s\n", msg.Message)
			}
		}
	}
	r.printed = len(agg.Messages)
}

func (r *Runner) save(agg *entity.CandidateAggregate) {
	session := &Session{
		Aggregate:        agg,
		LastActivity:     r.now(),
		TimerQuestionID:  r.countdown.QuestionID(),
		RemainingSeconds: r.countdown.RemainingSeconds(),
	}
	if err := r.store.Save(session); err != nil {
		r.printf("Warning: %v\n", err)
	}
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func questionHeader(msg entity.ChatMessage) string {
	index, _ := msg.Metadata[entity.MetaQuestionIndex].(float64)
	difficulty, _ := msg.Metadata[entity.MetaDifficulty].(string)
	limit, _ := msg.Metadata[entity.MetaTimeLimit].(float64)
	return fmt.Sprintf("%d/%d, %s, %ds", int(index)+1, entity.TotalQuestions, difficulty, int(limit))
}

func displayName(c *entity.Candidate) string {
	if name := c.DisplayName(); name != "" {
		return name
	}
	return "candidate"
}

func userMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
