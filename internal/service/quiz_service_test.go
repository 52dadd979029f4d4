package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

func TestQuizService_CreateQuiz(t *testing.T) {
	// Arrange
	f := newQuizFixture(t)
	ctx := context.Background()
	tutorial := &entity.VideoTutorial{Title: "Fractions", VideoLink: "https://example.com/f.mp4", EmbedType: entity.EmbedTypeOther}
	entity.Stamp(tutorial, ownerID, time.Now())
	require.NoError(t, f.store.VideoTutorials().Create(ctx, tutorial))

	// Act
	_, errForeign := f.quizzes.CreateQuiz(ctx, tutorial.ID, otherID)
	quiz, err := f.quizzes.CreateQuiz(ctx, tutorial.ID, ownerID)
	_, errDup := f.quizzes.CreateQuiz(ctx, tutorial.ID, ownerID)
	_, errMissing := f.quizzes.CreateQuiz(ctx, 9999, ownerID)

	// Assert
	assert.ErrorIs(t, errForeign, apperrors.ErrForbidden, "Викторину создает только автор видеоурока")
	require.NoError(t, err)
	assert.Equal(t, ownerID, quiz.CreatedBy)
	assert.Equal(t, "Fractions", quiz.Title())
	assert.ErrorIs(t, errDup, apperrors.ErrConflict, "У видеоурока может быть только одна викторина")
	assert.ErrorIs(t, errMissing, apperrors.ErrNotFound)
}

func TestQuizService_GetQuizByID(t *testing.T) {
	f := newQuizFixture(t)

	quiz, err := f.quizzes.GetQuizByID(context.Background(), f.quiz.ID)

	require.NoError(t, err)
	require.NotNil(t, quiz.VideoTutorial)
	assert.Equal(t, "Capitals", quiz.Title())

	_, err = f.quizzes.GetQuizByID(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuizService_ListQuizzes(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.newOtherQuiz(t)

	all, total, err := f.quizzes.ListQuizzes(ctx, repository.QuizFilters{}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 1, "Размер страницы ограничивает выборку")

	tutorialID := f.quiz.VideoTutorialID
	filtered, total, err := f.quizzes.ListQuizzes(ctx, repository.QuizFilters{VideoTutorialID: &tutorialID}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, filtered, 1)
	assert.Equal(t, f.quiz.ID, filtered[0].ID)

	creator := otherID
	_, total, err = f.quizzes.ListQuizzes(ctx, repository.QuizFilters{CreatedBy: &creator}, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}
