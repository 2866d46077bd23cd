package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния: ожидаемый индекс вопроса
	// не совпал с сохраненным, ответ на вопрос уже существует и т.п.
	ErrConflict = errors.New("resource state conflict")
)

// StaleReference возвращает ошибку устаревшей ссылки на вопрос.
// Она одновременно является ErrConflict и ErrNotFound: текущий вопрос
// с таким идентификатором больше не существует, потому что индекс уже сдвинулся.
func StaleReference(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w: %s", ErrConflict, ErrNotFound, fmt.Sprintf(format, args...))
}

// Validation оборачивает ErrValidation с пояснением
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
