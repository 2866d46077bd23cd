// Package candidateclient - клиент кандидата для API интервью:
// HTTP-вызовы, локальное сохранение сессии и обратный отсчет по вопросу.
package candidateclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/interview-api/internal/domain/entity"
	"github.com/yourusername/interview-api/internal/handler"
	"github.com/yourusername/interview-api/internal/handler/dto"
	apperrors "github.com/yourusername/interview-api/internal/pkg/errors"
)

// APIError - ответ сервера с кодом ошибки
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is сопоставляет HTTP-статус с ошибками домена, чтобы вызывающий код
// мог проверять errors.Is(err, apperrors.ErrConflict)
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusConflict:
		return target == apperrors.ErrConflict
	case http.StatusNotFound:
		return target == apperrors.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return target == apperrors.ErrValidation
	}
	return false
}

// Client вызывает HTTP API интервью
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент. baseURL - адрес сервера без /api.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StartInterview загружает резюме и начинает интервью
func (c *Client) StartInterview(ctx context.Context, fileName string, data []byte) (*entity.CandidateAggregate, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("resume", fileName)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/candidates"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var agg entity.CandidateAggregate
	if err := c.do(req, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// SupplyInfo отправляет недостающие контактные данные
func (c *Client) SupplyInfo(ctx context.Context, candidateID string, info entity.ContactInfo) (*entity.CandidateAggregate, error) {
	payload := dto.SupplyInfoRequest{Name: info.Name, Email: info.Email, Phone: info.Phone}
	var agg entity.CandidateAggregate
	if err := c.doJSON(ctx, http.MethodPatch, "/api/candidates/"+candidateID+"/info", "", payload, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// SubmitAnswer отправляет ответ. Повтор с тем же idempotencyKey вернет тот же результат.
func (c *Client) SubmitAnswer(ctx context.Context, candidateID, idempotencyKey string, answer dto.SubmitAnswerRequest) (*entity.CandidateAggregate, error) {
	var agg entity.CandidateAggregate
	if err := c.doJSON(ctx, http.MethodPost, "/api/candidates/"+candidateID+"/answers", idempotencyKey, answer, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// GetCandidate возвращает актуальное представление кандидата
func (c *Client) GetCandidate(ctx context.Context, candidateID string) (*entity.CandidateAggregate, error) {
	var agg entity.CandidateAggregate
	if err := c.doJSON(ctx, http.MethodGet, "/api/candidates/"+candidateID, "", nil, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// SetPaused ставит интервью на паузу или снимает с нее
func (c *Client) SetPaused(ctx context.Context, candidateID string, paused bool) (*entity.Candidate, error) {
	action := "resume"
	if paused {
		action = "pause"
	}
	var candidate entity.Candidate
	if err := c.doJSON(ctx, http.MethodPatch, "/api/candidates/"+candidateID+"/pause", "", dto.PauseRequest{Action: action}, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// GetCandidateAnswers возвращает карточку кандидата с вопросами и ответами
func (c *Client) GetCandidateAnswers(ctx context.Context, candidateID string) (*dto.CandidateDetailResponse, error) {
	var detail dto.CandidateDetailResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/candidates/"+candidateID+"/answers", "", nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListCandidates возвращает список кандидатов для дашборда
func (c *Client) ListCandidates(ctx context.Context) ([]dto.CandidateListItem, error) {
	var list []dto.CandidateListItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/candidates", "", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetStats возвращает статистику интервью
func (c *Client) GetStats(ctx context.Context) (*entity.InterviewStats, error) {
	var stats entity.InterviewStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", "", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Export скачивает выгрузку кандидатов и возвращает содержимое и имя файла
func (c *Client) Export(ctx context.Context, format string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/candidates/export?format="+url.QueryEscape(format)), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("export request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}

	fileName := "candidates." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		fileName = params["filename"]
	}
	return data, fileName, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) doJSON(ctx context.Context, method, path, idempotencyKey string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(handler.IdempotencyKeyHeader, idempotencyKey)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}

// IsNetworkError проверяет, что запрос не дошел до сервера или ответ не получен
func IsNetworkError(err error) bool {
	var apiErr *APIError
	return err != nil && !errors.As(err, &apiErr)
}
