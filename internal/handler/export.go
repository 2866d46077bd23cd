package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/interview-api/internal/domain/entity"
)

var exportHeaders = []string{"ID", "Name", "Email", "Phone", "Status", "Questions", "Score", "Started", "Completed", "Summary"}

// ExportCandidates выгружает кандидатов в CSV или Excel
// GET /api/candidates/export?format=csv|xlsx
func (h *CandidateHandler) ExportCandidates(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	candidates, err := h.candidateService.ListCandidates(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("candidates_%s", time.Now().UTC().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, candidates, filename)
		return
	}
	h.exportCSV(c, candidates, filename)
}

// exportCSV пишет CSV с BOM, чтобы Excel корректно открыл UTF-8
func (h *CandidateHandler) exportCSV(c *gin.Context, candidates []entity.Candidate, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		h.log.Warn().Err(err).Msg("Ошибка записи CSV")
		return
	}

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(exportHeaders); err != nil {
		h.log.Warn().Err(err).Msg("Ошибка записи заголовков CSV")
		return
	}
	for i := range candidates {
		if err := writer.Write(exportRow(&candidates[i])); err != nil {
			h.log.Warn().Err(err).Msg("Ошибка записи строки CSV")
			return
		}
	}
}

// exportXLSX пишет Excel через StreamWriter
func (h *CandidateHandler) exportXLSX(c *gin.Context, candidates []entity.Candidate, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Candidates"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		h.log.Error().Err(err).Msg("Ошибка создания листа Excel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.log.Error().Err(err).Msg("Ошибка создания StreamWriter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, v := range exportHeaders {
		headers[i] = v
	}
	if err := sw.SetRow("A1", headers); err != nil {
		h.log.Warn().Err(err).Msg("Ошибка записи заголовков")
	}

	for i := range candidates {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := exportRow(&candidates[i])
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		// оценка числом, чтобы по ней можно было сортировать
		if candidates[i].Score != nil {
			row[6] = *candidates[i].Score
		}
		if err := sw.SetRow(cell, row); err != nil {
			h.log.Warn().Err(err).Int("row", i+2).Msg("Ошибка записи строки")
		}
	}

	if err := sw.Flush(); err != nil {
		h.log.Error().Err(err).Msg("Ошибка при Flush")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.log.Warn().Err(err).Msg("Ошибка записи Excel в response")
	}
}

func exportRow(c *entity.Candidate) []string {
	score := ""
	if c.Score != nil {
		score = strconv.FormatFloat(*c.Score, 'f', 1, 64)
	}
	completed := ""
	if c.CompletedAt != nil {
		completed = c.CompletedAt.UTC().Format(time.RFC3339)
	}
	summary := ""
	if c.Summary != nil {
		summary = *c.Summary
	}
	return []string{
		c.ID,
		sanitizeForExcel(deref(c.Name)),
		sanitizeForExcel(deref(c.Email)),
		sanitizeForExcel(deref(c.Phone)),
		c.Status,
		strconv.Itoa(c.CurrentQuestionIndex),
		score,
		c.StartedAt.UTC().Format(time.RFC3339),
		completed,
		sanitizeForExcel(summary),
	}
}

// phoneLike - только цифры и разделители номера: такую строку Excel не выполнит как функцию
var phoneLike = regexp.MustCompile(`^[+-]?[0-9][0-9 ().-]*$`)

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV.
// Телефоны вида +1 555 123 4567 остаются как есть.
func sanitizeForExcel(s string) string {
	if len(s) == 0 || phoneLike.MatchString(s) {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
