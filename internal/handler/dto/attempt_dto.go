package dto

import (
	"encoding/json"
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

// AnswerResponse - ответ пользователя на вопрос
type AnswerResponse struct {
	ID               uint                `json:"id"`
	QuestionID       uint                `json:"question_id"`
	Kind             entity.QuestionKind `json:"kind"`
	SelectedChoiceID *uint               `json:"selected_choice_id,omitempty"`
	AnswerText       *string             `json:"answer_text,omitempty"`
	IsValid          bool                `json:"is_valid"`
	CreatedAt        time.Time           `json:"created_at"`
}

// AttemptResponse - попытка прохождения викторины
type AttemptResponse struct {
	ID          uint       `json:"id"`
	QuizID      uint       `json:"quiz_id"`
	UserID      uint       `json:"user_id"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
	Complete    bool       `json:"complete"`
	Retake      bool       `json:"retake"`
	TotalPoints int        `json:"total_points"`
	Notified    bool       `json:"notified"`
}

// ActivityResponse - событие журнала попытки
type ActivityResponse struct {
	ID        uint            `json:"id"`
	Activity  string          `json:"activity"`
	Context   json.RawMessage `json:"context"`
	CreatedAt time.Time       `json:"created_at"`
}

// AttemptDetailsResponse - попытка вместе с журналом событий
type AttemptDetailsResponse struct {
	*AttemptResponse
	Activities []ActivityResponse `json:"activities"`
}

// NewAnswerResponse создает DTO ответа
func NewAnswerResponse(a *entity.Answer) *AnswerResponse {
	if a == nil {
		return nil
	}
	return &AnswerResponse{
		ID:               a.ID,
		QuestionID:       a.QuestionID,
		Kind:             a.Kind,
		SelectedChoiceID: a.SelectedChoiceID,
		AnswerText:       a.AnswerText,
		IsValid:          a.IsValid,
		CreatedAt:        a.CreatedAt,
	}
}

// NewAttemptResponse создает DTO попытки
func NewAttemptResponse(a *entity.Attempt) *AttemptResponse {
	if a == nil {
		return nil
	}
	return &AttemptResponse{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserID:      a.UserID,
		Start:       a.Start,
		Stop:        a.Stop,
		Complete:    a.Complete,
		Retake:      a.Retake,
		TotalPoints: a.TotalPoints,
		Notified:    a.Notified,
	}
}

// NewListAttemptResponse создает слайс DTO попыток
func NewListAttemptResponse(attempts []entity.Attempt) []*AttemptResponse {
	list := make([]*AttemptResponse, len(attempts))
	for i := range attempts {
		list[i] = NewAttemptResponse(&attempts[i])
	}
	return list
}

// NewAttemptDetailsResponse создает DTO попытки с событиями
func NewAttemptDetailsResponse(a *entity.Attempt, activities []entity.AttemptActivity) *AttemptDetailsResponse {
	list := make([]ActivityResponse, len(activities))
	for i, act := range activities {
		list[i] = ActivityResponse{
			ID:        act.ID,
			Activity:  act.Activity,
			Context:   json.RawMessage(act.Context),
			CreatedAt: act.CreatedAt,
		}
	}
	return &AttemptDetailsResponse{AttemptResponse: NewAttemptResponse(a), Activities: list}
}
