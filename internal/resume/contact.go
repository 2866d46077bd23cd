package resume

import (
	"regexp"
	"strings"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

var (
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern    = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	nameWordPattern = regexp.MustCompile(`^[A-Za-z]+[A-Za-z\-'.]*$`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// ExtractContactInfo эвристически находит имя, email и телефон в тексте резюме.
// Отсутствие поля - нормальный результат.
func ExtractContactInfo(text string) entity.ContactInfo {
	return entity.ContactInfo{
		Name:  extractName(text),
		Email: emailPattern.FindString(text),
		Phone: phonePattern.FindString(text),
	}
}

// extractName возвращает первую строку, похожую на имя: 2-4 слова из букв
func extractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !mayBeName(line) {
			continue
		}
		words := whitespace.Split(line, -1)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		isName := true
		for _, w := range words {
			if len(w) < 2 || !nameWordPattern.MatchString(w) {
				isName = false
				break
			}
		}
		if isName {
			return line
		}
	}
	return ""
}

func mayBeName(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(line, "@"),
		line[0] >= '0' && line[0] <= '9',
		strings.Contains(lower, "resume"),
		strings.Contains(lower, "cv"),
		len(line) < 3,
		len(line) > 50:
		return false
	}
	return true
}
