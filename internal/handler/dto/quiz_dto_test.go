package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eneza-api/internal/domain/entity"
)

func multiChoiceQuestion() *entity.Question {
	return &entity.Question{
		ID:       1,
		QuizID:   10,
		Kind:     entity.QuestionKindMultiChoice,
		Position: 1,
		Content:  "2 + 2 = ?",
		Points:   1,
		Choices: []entity.Choice{
			{ID: 11, QuestionID: 1, Position: 1, Text: "3", AuditFields: entity.AuditFields{IsActive: true}},
			{ID: 12, QuestionID: 1, Position: 2, Text: "4", IsCorrect: true, AuditFields: entity.AuditFields{IsActive: true}},
			{ID: 13, QuestionID: 1, Position: 3, Text: "5", AuditFields: entity.AuditFields{IsActive: false}},
		},
	}
}

func TestNewQuestionResponse_RedactsForNonOwner(t *testing.T) {
	// Act
	resp := NewQuestionResponse(multiChoiceQuestion(), nil, false)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	// Assert
	require.Len(t, resp.Choices, 2, "Удаленные варианты не отдаются")
	for _, c := range resp.Choices {
		assert.Nil(t, c.IsCorrect)
	}
	assert.Contains(t, string(raw), `"is_correct":null`)
	assert.NotContains(t, string(raw), `"is_correct":true`)
}

func TestNewQuestionResponse_RevealsForOwner(t *testing.T) {
	resp := NewQuestionResponse(multiChoiceQuestion(), nil, true)

	require.Len(t, resp.Choices, 2)
	require.NotNil(t, resp.Choices[1].IsCorrect)
	assert.True(t, *resp.Choices[1].IsCorrect)
	require.NotNil(t, resp.Choices[0].IsCorrect)
	assert.False(t, *resp.Choices[0].IsCorrect)
}

func TestNewQuestionResponse_FreeForm(t *testing.T) {
	text := "paris"
	q := &entity.Question{ID: 2, QuizID: 10, Kind: entity.QuestionKindFreeForm, Position: 2, Content: "Capital?", Points: 1, ReferenceAnswer: "Paris"}
	answer := &entity.Answer{ID: 5, QuestionID: 2, Kind: entity.QuestionKindFreeForm, AnswerText: &text}

	hidden := NewQuestionResponse(q, answer, false)
	shown := NewQuestionResponse(q, nil, true)

	assert.Nil(t, hidden.ReferenceAnswer, "Эталонный ответ скрыт от студента")
	require.NotNil(t, hidden.UserAnswer)
	assert.Equal(t, "paris", *hidden.UserAnswer.AnswerText)
	require.NotNil(t, shown.ReferenceAnswer)
	assert.Equal(t, "Paris", *shown.ReferenceAnswer)
	assert.Nil(t, shown.UserAnswer)
}

func TestNewAttemptDetailsResponse(t *testing.T) {
	attempt := &entity.Attempt{ID: 3, QuizID: 10, UserID: 2, Complete: true, TotalPoints: 2}
	activity, err := entity.NewAttemptActivity(3, entity.ActivityStartTest, entity.ActivityContext{})
	require.NoError(t, err)

	resp := NewAttemptDetailsResponse(attempt, []entity.AttemptActivity{*activity})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"total_points":2`)
	assert.Contains(t, string(raw), `"activity":"START_TEST"`)
	assert.Contains(t, string(raw), `"context":{"time"`, "Контекст события отдается как JSON-объект")
}
