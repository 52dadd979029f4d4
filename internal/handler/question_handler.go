package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/handler/dto"
	"github.com/yourusername/eneza-api/internal/middleware"
	"github.com/yourusername/eneza-api/internal/service"
)

// QuestionHandler обрабатывает запросы банка вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
	attemptService  *service.AttemptService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService, attemptService *service.AttemptService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		attemptService:  attemptService,
	}
}

// ChoiceRequest - вариант ответа в запросе
type ChoiceRequest struct {
	Position  int    `json:"position" binding:"required,min=1"`
	Text      string `json:"text" binding:"required,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionRequest представляет запрос на создание вопроса
type CreateQuestionRequest struct {
	Kind            entity.QuestionKind `json:"kind" binding:"required"`
	Position        int                 `json:"position" binding:"required,min=1"`
	Content         string              `json:"content" binding:"required"`
	Points          int                 `json:"points" binding:"omitempty,min=1"`
	ReferenceAnswer string              `json:"reference_answer"`
	Choices         []ChoiceRequest     `json:"choices" binding:"omitempty,dive"`
}

// UpdateQuestionRequest - частичное обновление вопроса
type UpdateQuestionRequest struct {
	Position        *int    `json:"position" binding:"omitempty,min=1"`
	Content         *string `json:"content"`
	Points          *int    `json:"points"`
	ReferenceAnswer *string `json:"reference_answer"`
}

// UpdateChoiceRequest - частичное обновление варианта ответа
type UpdateChoiceRequest struct {
	Position  *int    `json:"position" binding:"omitempty,min=1"`
	Text      *string `json:"text"`
	IsCorrect *bool   `json:"is_correct"`
}

// ListQuestions возвращает вопросы викторины с собственными ответами пользователя.
// Параметр ?position= возвращает один вопрос.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	var position *int
	if raw := c.Query("position"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid position", "error_type": "validation"})
			return
		}
		position = &p
	}

	items, reveal, err := h.attemptService.ListQuestionsForAttempt(c.Request.Context(), quizID, userID, position)
	if err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}

	resp := make([]dto.QuestionResponse, len(items))
	for i := range items {
		resp[i] = dto.NewQuestionResponse(&items[i].Question, items[i].Answer, reveal)
	}
	if position != nil && len(resp) == 1 {
		c.JSON(http.StatusOK, resp[0])
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateQuestion добавляет вопрос в викторину
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet(middleware.QuizIDKey).(uint)

	var req CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	input := service.QuestionInput{
		Kind:            req.Kind,
		Position:        req.Position,
		Content:         req.Content,
		Points:          req.Points,
		ReferenceAnswer: req.ReferenceAnswer,
	}
	for _, ch := range req.Choices {
		input.Choices = append(input.Choices, service.ChoiceInput{Position: ch.Position, Text: ch.Text, IsCorrect: ch.IsCorrect})
	}

	question, err := h.questionService.CreateQuestion(c.Request.Context(), quizID, userID, input)
	if err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuestionResponse(question, nil, true))
}

// GetQuestion возвращает вопрос; правильные ответы видит только владелец викторины
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID := c.MustGet(middleware.QuestionIDKey).(uint)

	question, reveal, err := h.questionService.GetQuestion(c.Request.Context(), questionID, userID)
	if err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question, nil, reveal))
}

// UpdateQuestion частично обновляет вопрос
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID := c.MustGet(middleware.QuestionIDKey).(uint)

	var req UpdateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.UpdateQuestion(c.Request.Context(), questionID, userID, service.QuestionPatch{
		Position:        req.Position,
		Content:         req.Content,
		Points:          req.Points,
		ReferenceAnswer: req.ReferenceAnswer,
	})
	if err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question, nil, true))
}

// DeleteQuestion удаляет вопрос (soft delete)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID := c.MustGet(middleware.QuestionIDKey).(uint)

	if err := h.questionService.DeleteQuestion(c.Request.Context(), questionID, userID); err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddChoice добавляет вариант ответа
func (h *QuestionHandler) AddChoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	questionID := c.MustGet(middleware.QuestionIDKey).(uint)

	var req ChoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	choice, err := h.questionService.AddChoice(c.Request.Context(), questionID, userID, service.ChoiceInput{
		Position:  req.Position,
		Text:      req.Text,
		IsCorrect: req.IsCorrect,
	})
	if err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewChoiceResponse(choice, true))
}

// UpdateChoice частично обновляет вариант ответа
func (h *QuestionHandler) UpdateChoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	choiceID := c.MustGet(middleware.ChoiceIDKey).(uint)

	var req UpdateChoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	choice, err := h.questionService.UpdateChoice(c.Request.Context(), choiceID, userID, service.ChoicePatch{
		Position:  req.Position,
		Text:      req.Text,
		IsCorrect: req.IsCorrect,
	})
	if err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewChoiceResponse(choice, true))
}

// DeleteChoice удаляет вариант ответа (soft delete)
func (h *QuestionHandler) DeleteChoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	choiceID := c.MustGet(middleware.ChoiceIDKey).(uint)

	if err := h.questionService.DeleteChoice(c.Request.Context(), choiceID, userID); err != nil {
		handleServiceError(c, "QuestionHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}
