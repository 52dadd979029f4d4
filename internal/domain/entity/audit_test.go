package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp_NewEntity(t *testing.T) {
	// Arrange
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	quiz := &Quiz{VideoTutorialID: 1}

	// Act
	Stamp(quiz, 7, now)

	// Assert
	assert.Equal(t, uint(7), quiz.CreatedBy)
	assert.Equal(t, now, quiz.CreatedAt)
	assert.Equal(t, now, quiz.UpdatedAt)
	assert.True(t, quiz.IsActive, "Новая запись должна быть активной")
	assert.Nil(t, quiz.UpdatedBy, "UpdatedBy не заполняется при создании")
	assert.Equal(t, uint(7), quiz.OwnerID())
}

func TestStamp_ExistingEntity(t *testing.T) {
	// Arrange
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	question := &Question{}
	Stamp(question, 7, created)

	// Act
	Stamp(question, 9, updated)

	// Assert
	assert.Equal(t, uint(7), question.CreatedBy, "Автор не меняется при обновлении")
	assert.Equal(t, created, question.CreatedAt)
	require.NotNil(t, question.UpdatedBy)
	assert.Equal(t, uint(9), *question.UpdatedBy)
	assert.Equal(t, updated, question.UpdatedAt)
}

func TestDeactivate(t *testing.T) {
	now := time.Now()
	choice := &Choice{}
	Stamp(choice, 1, now)

	Deactivate(choice, 1, now.Add(time.Minute))

	assert.False(t, choice.IsActive)
	require.NotNil(t, choice.UpdatedBy)
}

func TestAttempt_TimeTaken(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	attempt := &Attempt{Start: start}

	assert.Equal(t, time.Duration(0), attempt.TimeTaken(), "Незавершенная попытка не имеет длительности")

	stop := start.Add(90 * time.Second)
	attempt.Stop = &stop
	assert.Equal(t, 90*time.Second, attempt.TimeTaken())
}

func TestNewAttemptActivity(t *testing.T) {
	points := 3
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	activity, err := NewAttemptActivity(5, ActivityEndTest, ActivityContext{Time: now, Points: &points})

	require.NoError(t, err)
	assert.Equal(t, uint(5), activity.AttemptID)
	assert.Equal(t, ActivityEndTest, activity.Activity)
	assert.JSONEq(t, `{"time":"2024-03-01T10:00:00Z","points":3}`, activity.Context)
}
