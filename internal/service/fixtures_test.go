package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/repository/memory"
)

const (
	ownerID   uint = 1
	studentID uint = 2
	otherID   uint = 3
)

// MockResultsNotifier реализует ResultsNotifier
type MockResultsNotifier struct {
	mock.Mock
}

func (m *MockResultsNotifier) NotifyAttempt(ctx context.Context, attemptID uint) error {
	args := m.Called(ctx, attemptID)
	return args.Error(0)
}

// MockEmailService реализует EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Send(ctx context.Context, msg EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// quizFixture - викторина владельца ownerID с двумя вопросами по 1 баллу:
// MULTI_CHOICE (правильный вариант correctChoice) и FREE_FORM с эталоном "Paris".
type quizFixture struct {
	store     *memory.Store
	cache     *memory.Cache
	questions *QuestionService
	quizzes   *QuizService
	attempts  *AttemptService
	notifier  *MockResultsNotifier

	quiz          *entity.Quiz
	multi         *entity.Question
	free          *entity.Question
	correctChoice uint
	wrongChoice   uint
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	store.AddUser(entity.User{ID: ownerID, Username: "instructor", Email: "instructor@example.com", IsActive: true})
	store.AddUser(entity.User{ID: studentID, Username: "student", Email: "student@example.com", IsActive: true})
	store.AddUser(entity.User{ID: otherID, Username: "other", Email: "other@example.com", IsActive: true})
	cache := memory.NewCache()

	f := &quizFixture{
		store:     store,
		cache:     cache,
		questions: NewQuestionService(store, cache, time.Minute),
		quizzes:   NewQuizService(store),
		notifier:  &MockResultsNotifier{},
	}
	f.attempts = NewAttemptService(store, f.questions, f.notifier, time.Second, 50)

	tutorial := &entity.VideoTutorial{Title: "Capitals", VideoLink: "https://example.com/v.mp4", EmbedType: entity.EmbedTypeOther}
	entity.Stamp(tutorial, ownerID, time.Now())
	require.NoError(t, store.VideoTutorials().Create(ctx, tutorial))

	quiz, err := f.quizzes.CreateQuiz(ctx, tutorial.ID, ownerID)
	require.NoError(t, err)
	f.quiz = quiz

	f.multi, err = f.questions.CreateQuestion(ctx, quiz.ID, ownerID, QuestionInput{
		Kind:     entity.QuestionKindMultiChoice,
		Position: 1,
		Content:  "2 + 2 = ?",
		Choices: []ChoiceInput{
			{Position: 1, Text: "3"},
			{Position: 2, Text: "4", IsCorrect: true},
		},
	})
	require.NoError(t, err)
	f.wrongChoice = f.multi.Choices[0].ID
	f.correctChoice = f.multi.Choices[1].ID

	f.free, err = f.questions.CreateQuestion(ctx, quiz.ID, ownerID, QuestionInput{
		Kind:            entity.QuestionKindFreeForm,
		Position:        2,
		Content:         "Capital of France?",
		ReferenceAnswer: "Paris",
	})
	require.NoError(t, err)
	return f
}

// newOtherQuiz создает вторую викторину владельца с одним вопросом
func (f *quizFixture) newOtherQuiz(t *testing.T) (*entity.Quiz, *entity.Question) {
	t.Helper()
	ctx := context.Background()

	tutorial := &entity.VideoTutorial{Title: "Other", VideoLink: "https://example.com/o.mp4", EmbedType: entity.EmbedTypeOther}
	entity.Stamp(tutorial, ownerID, time.Now())
	require.NoError(t, f.store.VideoTutorials().Create(ctx, tutorial))

	quiz, err := f.quizzes.CreateQuiz(ctx, tutorial.ID, ownerID)
	require.NoError(t, err)
	question, err := f.questions.CreateQuestion(ctx, quiz.ID, ownerID, QuestionInput{
		Kind:            entity.QuestionKindFreeForm,
		Position:        1,
		Content:         "Capital of Kenya?",
		ReferenceAnswer: "Nairobi",
	})
	require.NoError(t, err)
	return quiz, question
}
