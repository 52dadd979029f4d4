package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/middleware"
	"github.com/yourusername/eneza-api/internal/repository/memory"
	"github.com/yourusername/eneza-api/internal/service"
	"github.com/yourusername/eneza-api/pkg/auth"
)

const (
	instructorID uint = 1
	studentID    uint = 2
	strangerID   uint = 3
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	jwt    *auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	store.AddUser(entity.User{ID: instructorID, Username: "instructor", Email: "instructor@example.com", IsActive: true})
	store.AddUser(entity.User{ID: studentID, Username: "student", Email: "student@example.com", IsActive: true})
	store.AddUser(entity.User{ID: strangerID, Username: "stranger", Email: "stranger@example.com", IsActive: true})
	cache := memory.NewCache()

	jwtService, err := auth.NewJWTService("handler-test-secret", "")
	require.NoError(t, err)

	questions := service.NewQuestionService(store, cache, time.Minute)
	notifications := service.NewNotificationService(store, questions, &service.NoopEmailService{}, cache, time.Minute,
		service.NotificationRetryPolicy{MaxFailures: 3})
	attempts := service.NewAttemptService(store, questions, notifications, time.Second, 50)

	router := NewRouter(RouterConfig{
		Auth:        middleware.NewAuthMiddleware(jwtService),
		RateLimiter: middleware.NewRateLimiter(cache),
		SubmitLimit: middleware.SubmitRateLimitConfig(100, time.Minute),
		Quizzes:     NewQuizHandler(service.NewQuizService(store), attempts),
		Questions:   NewQuestionHandler(questions, attempts),
		Videos:      NewVideoTutorialHandler(service.NewVideoTutorialService(store, "http://127.0.0.1:0", time.Second)),
	})
	return &testEnv{t: t, router: router, store: store, jwt: jwtService}
}

func (e *testEnv) do(method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := e.jwt.GenerateToken(userID, "", time.Hour)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

type seededQuiz struct {
	quizID        uint
	multiID       uint
	freeID        uint
	correctChoice uint
	wrongChoice   uint
}

// seedQuiz создает через API видеоурок, викторину и два вопроса
func (e *testEnv) seedQuiz() seededQuiz {
	t := e.t
	t.Helper()
	var s seededQuiz

	w := e.do(http.MethodPost, "/api/videos", instructorID, gin.H{
		"title": "Capitals", "video_link": "https://example.com/v.mp4", "embed_type": "Other",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var video struct{ ID uint }
	decode(t, w, &video)

	w = e.do(http.MethodPost, "/api/quizzes", instructorID, gin.H{"video_tutorial_id": video.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var quiz struct{ ID uint }
	decode(t, w, &quiz)
	s.quizID = quiz.ID

	w = e.do(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/questions", s.quizID), instructorID, gin.H{
		"kind": "MULTI_CHOICE", "position": 1, "content": "2 + 2 = ?",
		"choices": []gin.H{
			{"position": 1, "text": "3"},
			{"position": 2, "text": "4", "is_correct": true},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var multi struct {
		ID      uint
		Choices []struct{ ID uint }
	}
	decode(t, w, &multi)
	s.multiID = multi.ID
	s.wrongChoice = multi.Choices[0].ID
	s.correctChoice = multi.Choices[1].ID

	w = e.do(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/questions", s.quizID), instructorID, gin.H{
		"kind": "FREE_FORM", "position": 2, "content": "Capital of France?", "reference_answer": "Paris",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var free struct{ ID uint }
	decode(t, w, &free)
	s.freeID = free.ID
	return s
}

func TestRouter_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/quizzes", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuizFlow_EndToEnd(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	s := env.seedQuiz()
	base := fmt.Sprintf("/api/quizzes/%d", s.quizID)

	// Вопросы недоступны до старта
	w := env.do(http.MethodGet, base+"/questions", studentID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "Без попытки список вопросов недоступен")

	// Act: старт
	w = env.do(http.MethodPost, base+"/start", studentID, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, base+"/start", studentID, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "Повторный старт запрещен")

	// Студент видит вопросы без правильных ответов
	w = env.do(http.MethodGet, base+"/questions", studentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"is_correct":true`)
	assert.NotContains(t, w.Body.String(), "Paris")

	// Act: отправка ответов (id варианта числом, текст строкой)
	w = env.do(http.MethodPost, base+"/submit", studentID,
		fmt.Sprintf(`[{"question": %d, "answer": %d}, {"question": %d, "answer": "paris"}]`, s.multiID, s.correctChoice, s.freeID))

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var attempt struct {
		Complete    bool `json:"complete"`
		TotalPoints int  `json:"total_points"`
		Notified    bool `json:"notified"`
	}
	decode(t, w, &attempt)
	assert.True(t, attempt.Complete)
	assert.Equal(t, 2, attempt.TotalPoints)

	w = env.do(http.MethodPost, base+"/submit", studentID, fmt.Sprintf(`[{"question": %d, "answer": "Paris"}]`, s.freeID))
	assert.Equal(t, http.StatusConflict, w.Code, "После завершения ответы не принимаются")

	w = env.do(http.MethodPost, base+"/end", studentID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Собственный ответ виден в списке вопросов
	w = env.do(http.MethodGet, fmt.Sprintf("%s/questions?position=2", base), studentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"answer_text":"paris"`)

	// Попытка с журналом событий
	w = env.do(http.MethodGet, base+"/attempt", studentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"END_TEST"`)
	assert.Contains(t, w.Body.String(), `"notified":true`, "NoopEmailService считается успешной отправкой")

	w = env.do(http.MethodGet, fmt.Sprintf("%s/attempts/%d", base, studentID), instructorID, nil)
	assert.Equal(t, http.StatusOK, w.Code, "Владелец викторины видит попытку")

	w = env.do(http.MethodGet, fmt.Sprintf("%s/attempts/%d", base, studentID), strangerID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmit_InvalidPayloads(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedQuiz()
	base := fmt.Sprintf("/api/quizzes/%d", s.quizID)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, base+"/start", studentID, nil).Code)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"не массив", `{"question": 1}`, http.StatusBadRequest},
		{"пустой массив", `[]`, http.StatusBadRequest},
		{"без вопроса", `[{"answer": "x"}]`, http.StatusBadRequest},
		{"объект вместо ответа", fmt.Sprintf(`[{"question": %d, "answer": {"id": 1}}]`, s.multiID), http.StatusBadRequest},
		{"нечисловой вариант", fmt.Sprintf(`[{"question": %d, "answer": "four"}]`, s.multiID), http.StatusBadRequest},
		{"дубликат в пакете", fmt.Sprintf(`[{"question": %d, "answer": "a"}, {"question": %d, "answer": "b"}]`, s.freeID, s.freeID), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, base+"/submit", studentID, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	w := env.do(http.MethodGet, base+"/attempt", studentID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"complete":false`, "Ни одна ошибочная отправка не завершила попытку")
}

func TestQuestionRedaction(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedQuiz()

	w := env.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", s.multiID), strangerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_correct":null`)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", s.multiID), instructorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_correct":true`)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", s.freeID), strangerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "reference_answer")
}

func TestQuestionCRUD(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedQuiz()
	base := fmt.Sprintf("/api/quizzes/%d", s.quizID)

	w := env.do(http.MethodPost, base+"/questions", strangerID, gin.H{"kind": "FREE_FORM", "position": 3, "content": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, base+"/questions", instructorID, gin.H{"kind": "FREE_FORM", "position": 2, "content": "x"})
	assert.Equal(t, http.StatusConflict, w.Code, "Позиция занята")

	w = env.do(http.MethodPatch, fmt.Sprintf("/api/questions/%d", s.freeID), instructorID, gin.H{"points": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"points":3`)

	w = env.do(http.MethodPost, fmt.Sprintf("/api/questions/%d/choices", s.multiID), instructorID, gin.H{"position": 3, "text": "5"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var choice struct{ ID uint }
	decode(t, w, &choice)

	w = env.do(http.MethodPatch, fmt.Sprintf("/api/choices/%d", choice.ID), instructorID, gin.H{"text": "6"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/api/choices/%d", choice.ID), instructorID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// После старта попытки вопросы заморожены
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, base+"/start", studentID, nil).Code)
	w = env.do(http.MethodDelete, fmt.Sprintf("/api/questions/%d", s.freeID), instructorID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportAttempts(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	s := env.seedQuiz()
	base := fmt.Sprintf("/api/quizzes/%d", s.quizID)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, base+"/start", studentID, nil).Code)
	w := env.do(http.MethodPost, base+"/submit", studentID, fmt.Sprintf(`[{"question": %d, "answer": "%d"}]`, s.multiID, s.correctChoice))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Act & Assert: CSV
	w = env.do(http.MethodGet, base+"/attempts/export?format=csv", instructorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"), "CSV начинается с BOM")
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ",Да,1,")

	// XLSX
	w = env.do(http.MethodGet, base+"/attempts/export?format=xlsx", instructorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Попытки")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Баллы", rows[0][6])
	assert.Equal(t, "1", rows[1][6])

	// Только владелец
	w = env.do(http.MethodGet, base+"/attempts/export", studentID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, base+"/attempts/export?format=pdf", instructorID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSanitizeForExcel(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeForExcel("=SUM(A1)"))
	assert.Equal(t, "'@cmd", sanitizeForExcel("@cmd"))
	assert.Equal(t, "plain", sanitizeForExcel("plain"))
	assert.Equal(t, "", sanitizeForExcel(""))
}
