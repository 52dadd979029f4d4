package dto

import (
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// VideoTutorialResponse представляет видеоурок в ответе клиенту
type VideoTutorialResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoLink   string    `json:"video_link"`
	EmbedType   string    `json:"embed_type"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuizResponse представляет викторину в ответе клиенту
type QuizResponse struct {
	ID              uint                   `json:"id"`
	VideoTutorialID uint                   `json:"video_tutorial_id"`
	Title           string                 `json:"title,omitempty"`
	VideoTutorial   *VideoTutorialResponse `json:"video_tutorial,omitempty"`
	CreatedBy       uint                   `json:"created_by"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// PaginatedQuizResponse - страница списка викторин
type PaginatedQuizResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// ChoiceResponse представляет вариант ответа.
// IsCorrect равен null для всех, кроме владельца викторины.
type ChoiceResponse struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"question_id"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
	IsCorrect  *bool  `json:"is_correct"`
}

// QuestionResponse представляет вопрос в ответе клиенту.
// ReferenceAnswer и IsCorrect вариантов раскрываются только владельцу викторины.
type QuestionResponse struct {
	ID              uint                `json:"id"`
	QuizID          uint                `json:"quiz_id"`
	Kind            entity.QuestionKind `json:"kind"`
	Position        int                 `json:"position"`
	Content         string              `json:"content"`
	Points          int                 `json:"points"`
	ReferenceAnswer *string             `json:"reference_answer,omitempty"`
	Choices         []ChoiceResponse    `json:"choices,omitempty"`
	UserAnswer      *AnswerResponse     `json:"user_answer,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewVideoTutorialResponse создает DTO видеоурока
func NewVideoTutorialResponse(v *entity.VideoTutorial) *VideoTutorialResponse {
	if v == nil {
		return nil
	}
	return &VideoTutorialResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		VideoLink:   v.VideoLink,
		EmbedType:   v.EmbedType,
		CreatedBy:   v.CreatedBy,
		CreatedAt:   v.CreatedAt,
	}
}

// NewQuizResponse создает DTO викторины
func NewQuizResponse(quiz *entity.Quiz) *QuizResponse {
	if quiz == nil {
		return nil
	}
	return &QuizResponse{
		ID:              quiz.ID,
		VideoTutorialID: quiz.VideoTutorialID,
		Title:           quiz.Title(),
		VideoTutorial:   NewVideoTutorialResponse(quiz.VideoTutorial),
		CreatedBy:       quiz.CreatedBy,
		CreatedAt:       quiz.CreatedAt,
		UpdatedAt:       quiz.UpdatedAt,
	}
}

// NewPaginatedQuizResponse создает DTO страницы викторин
func NewPaginatedQuizResponse(quizzes []entity.Quiz, total int64, page, perPage int) *PaginatedQuizResponse {
	list := make([]*QuizResponse, len(quizzes))
	for i := range quizzes {
		list[i] = NewQuizResponse(&quizzes[i])
	}
	return &PaginatedQuizResponse{Quizzes: list, Total: total, Page: page, PerPage: perPage}
}

// NewChoiceResponse создает DTO варианта ответа
func NewChoiceResponse(c *entity.Choice, reveal bool) ChoiceResponse {
	resp := ChoiceResponse{
		ID:         c.ID,
		QuestionID: c.QuestionID,
		Position:   c.Position,
		Text:       c.Text,
	}
	if reveal {
		isCorrect := c.IsCorrect
		resp.IsCorrect = &isCorrect
	}
	return resp
}

// NewQuestionResponse создает DTO вопроса.
// answer - собственный ответ вызывающего (может быть nil).
func NewQuestionResponse(q *entity.Question, answer *entity.Answer, reveal bool) QuestionResponse {
	resp := QuestionResponse{
		ID:         q.ID,
		QuizID:     q.QuizID,
		Kind:       q.Kind,
		Position:   q.Position,
		Content:    q.Content,
		Points:     q.Points,
		UserAnswer: NewAnswerResponse(answer),
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
	if q.IsFreeForm() && reveal {
		ref := q.ReferenceAnswer
		resp.ReferenceAnswer = &ref
	}
	if q.IsMultiChoice() {
		resp.Choices = make([]ChoiceResponse, 0, len(q.Choices))
		for i := range q.Choices {
			if !q.Choices[i].IsActive {
				continue
			}
			resp.Choices = append(resp.Choices, NewChoiceResponse(&q.Choices[i], reveal))
		}
	}
	return resp
}
