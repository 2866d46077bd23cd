package candidateclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

// SessionFreshness - сколько времени после последней активности предлагается продолжить сессию
const SessionFreshness = 24 * time.Hour

// Session - сохраненное состояние клиента между запусками
type Session struct {
	Aggregate    *entity.CandidateAggregate `json:"aggregate"`
	LastActivity time.Time                  `json:"last_activity"`

	// Остаток времени по вопросу на момент сохранения
	TimerQuestionID  string `json:"timer_question_id,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

// CandidateID возвращает ID кандидата сессии или пустую строку
func (s *Session) CandidateID() string {
	if s == nil || s.Aggregate == nil || s.Aggregate.Candidate == nil {
		return ""
	}
	return s.Aggregate.Candidate.ID
}

// ShouldOfferResume проверяет, стоит ли предложить продолжить интервью:
// кандидат есть, активность была меньше суток назад и интервью не завершено
func (s *Session) ShouldOfferResume(now time.Time) bool {
	if s.CandidateID() == "" {
		return false
	}
	if now.Sub(s.LastActivity) >= SessionFreshness {
		return false
	}
	return s.Aggregate.Candidate.IsResumable()
}

// SessionStore хранит сессию в JSON-файле
type SessionStore struct {
	path string
}

// NewSessionStore создает хранилище сессии по указанному пути
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionPath возвращает путь к файлу сессии в каталоге конфигурации пользователя
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "interview-cli", "session.json"), nil
}

// Path возвращает путь к файлу сессии
func (s *SessionStore) Path() string {
	return s.path
}

// Load читает сессию. Отсутствие файла - не ошибка: возвращается nil.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	return &session, nil
}

// Save записывает сессию атомарно через временный файл
func (s *SessionStore) Save(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Clear удаляет сохраненную сессию ("начать заново")
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
