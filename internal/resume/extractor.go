// Package resume извлекает текст и контактные данные из загруженного резюме.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"github.com/yourusername/interview-api/internal/domain/entity"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
	"github.com/yourusername/interview-api/internal/pkg/logger"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeText = "text/plain"

	parseTimeout = 30 * time.Second

	// Текст ошибки парсера в ответ не попадает
	msgResumeUnreadable = "failed to read resume, please upload it again"
)

// TextParser извлекает текст из PDF-документа
type TextParser interface {
	ParseText(ctx context.Context, r io.Reader, uri string) (string, error)
}

// Extractor реализует извлечение резюме: PDF через парсер, plain text как есть
type Extractor struct {
	pdf TextParser
	log zerolog.Logger
}

// NewExtractor создает экстрактор с указанным PDF-парсером
func NewExtractor(pdfParser TextParser) *Extractor {
	return &Extractor{pdf: pdfParser, log: logger.Component("resume")}
}

// Extract определяет тип документа, извлекает текст и контактные данные.
// Любая ошибка извлечения оборачивает ErrValidation: документ нужно загрузить заново.
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (*entity.ExtractedResume, error) {
	if len(data) == 0 {
		return nil, apperrors.Validation("resume file is empty")
	}

	var text string
	switch DetectContentType(fileName, data) {
	case contentTypePDF:
		if e.pdf == nil {
			return nil, apperrors.Validation("pdf resumes are not supported")
		}
		parsed, err := e.pdf.ParseText(ctx, bytes.NewReader(data), fileName)
		if err != nil {
			e.log.Warn().Err(err).Str("file", fileName).Int("size", len(data)).Msg("Не удалось разобрать PDF")
			return nil, apperrors.Validation(msgResumeUnreadable)
		}
		text = parsed
	case contentTypeText:
		if !utf8.Valid(data) {
			return nil, apperrors.Validation("resume text is not valid UTF-8")
		}
		text = string(data)
	default:
		return nil, apperrors.Validation("unsupported resume format, upload a PDF or plain text file")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("no text could be extracted from the resume")
	}

	return &entity.ExtractedResume{
		ContactInfo: ExtractContactInfo(text),
		FullText:    text,
	}, nil
}

// DetectContentType определяет тип документа по содержимому и расширению
func DetectContentType(fileName string, data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return contentTypePDF
	}
	detected := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(detected, contentTypePDF):
		return contentTypePDF
	case strings.HasPrefix(detected, contentTypeText):
		return contentTypeText
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md":
		return contentTypeText
	}
	return detected
}

// EinoPDFParser извлекает текст PDF через Eino PDF parser
type EinoPDFParser struct {
	parser *pdf.PDFParser
}

// NewEinoPDFParser создает парсер; документ извлекается целиком, без разбиения на страницы
func NewEinoPDFParser(ctx context.Context) (*EinoPDFParser, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}
	return &EinoPDFParser{parser: p}, nil
}

// ParseText возвращает весь текст документа
func (p *EinoPDFParser) ParseText(ctx context.Context, r io.Reader, uri string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	docs, err := p.parser.Parse(ctx, r, einoParser.WithURI(uri))
	if err != nil {
		return "", fmt.Errorf("eino pdf parser failed for %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino pdf parser returned no documents for %s", uri)
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(doc.Content)
	}
	return sb.String(), nil
}
