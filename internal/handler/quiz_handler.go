package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	"github.com/yourusername/eneza-api/internal/handler/dto"
	"github.com/yourusername/eneza-api/internal/handler/helper"
	"github.com/yourusername/eneza-api/internal/middleware"
	"github.com/yourusername/eneza-api/internal/service"
)

// QuizHandler обрабатывает запросы викторин и попыток
type QuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// CreateQuizRequest представляет запрос на создание викторины
type CreateQuizRequest struct {
	VideoTutorialID uint `json:"video_tutorial_id" binding:"required"`
}

// CreateQuiz создает викторину для видеоурока
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateQuizRequest
	if !bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), req.VideoTutorialID, userID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz))
}

// GetQuiz возвращает викторину с видеоуроком
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	quiz, err := h.quizService.GetQuizByID(c.Request.Context(), quizID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz))
}

// ListQuizzes возвращает список викторин с пагинацией и фильтрацией
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var filters repository.QuizFilters
	if raw := c.Query("video_tutorial_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video_tutorial_id", "error_type": "validation"})
			return
		}
		tutorialID := uint(id)
		filters.VideoTutorialID = &tutorialID
	}
	if c.Query("mine") == "true" {
		if userID, ok := middleware.UserID(c); ok {
			filters.CreatedBy = &userID
		}
	}

	quizzes, total, err := h.quizService.ListQuizzes(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedQuizResponse(quizzes, total, page, pageSize))
}

// StartQuiz начинает попытку прохождения викторины
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	attempt, err := h.attemptService.StartAttempt(c.Request.Context(), quizID, userID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAttemptResponse(attempt))
}

// SubmitAnswerItem - один ответ в теле запроса submit.
// Answer - id варианта (число или строка) для MULTI_CHOICE или текст для FREE_FORM.
type SubmitAnswerItem struct {
	Question uint            `json:"question"`
	Answer   json.RawMessage `json:"answer"`
}

// SubmitAnswers принимает пакет ответов и завершает попытку
func (h *QuizHandler) SubmitAnswers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	var items []SubmitAnswerItem
	if !bindJSON(c, &items) {
		return
	}
	inputs := make([]service.AnswerInput, 0, len(items))
	for i, item := range items {
		if item.Question == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("item %d: question is required", i), "error_type": "validation"})
			return
		}
		raw, err := helper.RawAnswerToString(item.Answer)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("item %d: %v", i, err), "error_type": "validation"})
			return
		}
		inputs = append(inputs, service.AnswerInput{QuestionID: item.Question, Raw: raw})
	}

	attempt, err := h.attemptService.SubmitAnswers(c.Request.Context(), quizID, userID, inputs)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// EndQuiz завершает попытку без отправки новых ответов
func (h *QuizHandler) EndQuiz(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	attempt, err := h.attemptService.FinalizeAttempt(c.Request.Context(), quizID, userID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// GetMyAttempt возвращает попытку текущего пользователя
func (h *QuizHandler) GetMyAttempt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.writeAttempt(c, userID, userID)
}

// GetUserAttempt возвращает попытку указанного пользователя (владельцу викторины или самому пользователю)
func (h *QuizHandler) GetUserAttempt(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.writeAttempt(c, c.MustGet(middleware.TargetUserKey).(uint), callerID)
}

func (h *QuizHandler) writeAttempt(c *gin.Context, attemptUserID, callerID uint) {
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	details, err := h.attemptService.GetAttempt(c.Request.Context(), quizID, attemptUserID, callerID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptDetailsResponse(details.Attempt, details.Activities))
}

// ListAttempts возвращает все попытки викторины (только владельцу)
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	attempts, err := h.attemptService.ListAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": dto.NewListAttemptResponse(attempts), "total": len(attempts)})
}

// ExportAttempts экспортирует попытки викторины в CSV или Excel
// GET /api/quizzes/:id/attempts/export?format=csv|xlsx
func (h *QuizHandler) ExportAttempts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx", "error_type": "validation"})
		return
	}

	attempts, err := h.attemptService.ListAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		handleServiceError(c, "QuizHandler", err)
		return
	}

	filename := fmt.Sprintf("quiz_%d_attempts_%s", quizID, time.Now().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, attempts, filename)
		return
	}
	h.exportCSV(c, attempts, filename)
}

var exportHeaders = []string{"Попытка", "Пользователь", "Начало", "Окончание", "Время", "Завершена", "Баллы", "Письмо отправлено"}

func yesNo(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}

func exportRow(a *entity.Attempt) []string {
	stop := ""
	if a.Stop != nil {
		stop = a.Stop.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatUint(uint64(a.ID), 10),
		strconv.FormatUint(uint64(a.UserID), 10),
		a.Start.UTC().Format(time.RFC3339),
		stop,
		service.FormatDuration(a.TimeTaken()),
		yesNo(a.Complete),
		strconv.Itoa(a.TotalPoints),
		yesNo(a.Notified),
	}
}

// exportCSV экспортирует попытки в CSV с правильным экранированием спецсимволов
func (h *QuizHandler) exportCSV(c *gin.Context, attempts []entity.Attempt, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	// BOM для корректного отображения UTF-8 в Excel
	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		log.Printf("[QuizHandler] Ошибка записи CSV: %v", err)
		return
	}

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(exportHeaders); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков CSV: %v", err)
		return
	}
	for i := range attempts {
		row := exportRow(&attempts[i])
		for j := range row {
			row[j] = sanitizeForExcel(row[j])
		}
		if err := writer.Write(row); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки CSV: %v", err)
			return
		}
	}
}

// exportXLSX экспортирует попытки в Excel с использованием StreamWriter
func (h *QuizHandler) exportXLSX(c *gin.Context, attempts []entity.Attempt, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Попытки"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		log.Printf("[QuizHandler] Ошибка переименования листа: %v", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, name := range exportHeaders {
		headers[i] = name
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков: %v", err)
	}

	for i := range attempts {
		a := &attempts[i]
		cells := exportRow(a)
		row := []interface{}{a.ID, a.UserID, cells[2], cells[3], cells[4], cells[5], a.TotalPoints, cells[7]}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] Ошибка при Flush: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
