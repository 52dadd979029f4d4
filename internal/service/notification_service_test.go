package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

// newNotifiedFixture подключает настоящий NotificationService вместо мока уведомлений
func newNotifiedFixture(t *testing.T) (*quizFixture, *NotificationService, *MockEmailService) {
	t.Helper()
	f := newQuizFixture(t)
	email := &MockEmailService{}
	notifications := NewNotificationService(f.store, f.questions, email, f.cache, time.Minute,
		NotificationRetryPolicy{MaxFailures: 3})
	f.attempts = NewAttemptService(f.store, f.questions, notifications, time.Second, 50)
	return f, notifications, email
}

func completeStudentAttempt(t *testing.T, f *quizFixture) uint {
	t.Helper()
	ctx := context.Background()
	_, err := f.attempts.StartAttempt(ctx, f.quiz.ID, studentID)
	require.NoError(t, err)
	attempt, err := f.attempts.SubmitAnswers(ctx, f.quiz.ID, studentID, []AnswerInput{
		{QuestionID: f.multi.ID, Raw: choiceRaw(f.correctChoice)},
		{QuestionID: f.free.ID, Raw: "London"},
	})
	require.NoError(t, err)
	return attempt.ID
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{42 * time.Second, "0:00:42"},
		{61*time.Minute + 5*time.Second, "1:01:05"},
		{1500 * time.Millisecond, "0:00:01"},
		{-time.Second, "0:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestRenderResultsEmail_EscapesHTML(t *testing.T) {
	html, text, err := RenderResultsEmail(ResultsEmail{
		Username:    "<b>eve</b>",
		QuizTitle:   "Capitals",
		Points:      1,
		TotalPoints: 2,
		TimeTaken:   "0:01:00",
	})

	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;eve&lt;/b&gt;", "Имя пользователя должно экранироваться")
	assert.Contains(t, html, "<strong>1</strong> / 2")
	assert.Contains(t, text, "Score: 1 / 2")
}

func TestNotificationService_SendsOnFinalize(t *testing.T) {
	// Arrange
	f, _, email := newNotifiedFixture(t)
	email.On("Send", mock.Anything, mock.MatchedBy(func(msg EmailMessage) bool {
		return msg.To == "student@example.com" &&
			msg.Subject == resultsSubject &&
			strings.HasPrefix(msg.IdempotencyKey, "attempt-results-") &&
			strings.Contains(msg.Text, "Capitals") &&
			strings.Contains(msg.Text, "Score: 1 / 2")
	})).Return(nil).Once()

	// Act
	attemptID := completeStudentAttempt(t, f)

	// Assert
	email.AssertExpectations(t)
	attempt, err := f.store.Attempts().GetByID(context.Background(), attemptID)
	require.NoError(t, err)
	assert.True(t, attempt.Notified, "После отправки попытка помечается уведомленной")
}

func TestNotificationService_RetryBySweep(t *testing.T) {
	// Arrange: первая отправка падает
	f, notifications, email := newNotifiedFixture(t)
	ctx := context.Background()
	email.On("Send", mock.Anything, mock.Anything).Return(errors.New("provider unavailable")).Once()
	attemptID := completeStudentAttempt(t, f)

	attempt, err := f.store.Attempts().GetByID(ctx, attemptID)
	require.NoError(t, err)
	require.True(t, attempt.Complete, "Попытка завершена несмотря на ошибку письма")
	require.False(t, attempt.Notified)

	email.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	// Act
	sent, err := notifications.SweepPending(ctx, 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	attempt, err = f.store.Attempts().GetByID(ctx, attemptID)
	require.NoError(t, err)
	assert.True(t, attempt.Notified)

	sent, err = notifications.SweepPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "Повторно письмо не отправляется")
	email.AssertNumberOfCalls(t, "Send", 2)
}

func TestNotificationService_AlreadyNotified(t *testing.T) {
	f, notifications, email := newNotifiedFixture(t)
	email.On("Send", mock.Anything, mock.Anything).Return(nil)
	attemptID := completeStudentAttempt(t, f)

	err := notifications.NotifyAttempt(context.Background(), attemptID)

	assert.NoError(t, err)
	email.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotificationService_LockHeld(t *testing.T) {
	f, notifications, email := newNotifiedFixture(t)
	email.On("Send", mock.Anything, mock.Anything).Return(errors.New("down")).Once()
	attemptID := completeStudentAttempt(t, f)

	acquired, err := f.cache.SetNX(notifyLockKey(attemptID), "other-worker", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	err = notifications.NotifyAttempt(context.Background(), attemptID)

	assert.NoError(t, err)
	email.AssertNumberOfCalls(t, "Send", 1)
	acquired, err = f.cache.SetNX(notifyLockKey(attemptID), "third-worker", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "Чужая блокировка не должна сниматься")

	sent, err := notifications.SweepPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "Занятая блокировка не считается отправкой")
	email.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotificationService_ReleasesOwnLock(t *testing.T) {
	f, _, email := newNotifiedFixture(t)
	email.On("Send", mock.Anything, mock.Anything).Return(errors.New("down")).Once()
	attemptID := completeStudentAttempt(t, f)

	acquired, err := f.cache.SetNX(notifyLockKey(attemptID), "next-worker", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "После отправки своя блокировка снимается")
}

func TestNotificationRetryPolicy_Delay(t *testing.T) {
	policy := NotificationRetryPolicy{MaxFailures: 10, Backoff: time.Minute, MaxBackoff: 10 * time.Minute}
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 10 * time.Minute},
		{50, 10 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Delay(tt.failures), "failures=%d", tt.failures)
	}

	assert.Equal(t, time.Duration(0), NotificationRetryPolicy{}.Delay(3), "Без Backoff повтор сразу")
	assert.Equal(t, 8*time.Minute, NotificationRetryPolicy{Backoff: time.Minute}.Delay(4), "Без MaxBackoff задержка не ограничена")
}

func TestNotificationService_BackoffDelaysSweep(t *testing.T) {
	// Arrange
	f, notifications, email := newNotifiedFixture(t)
	ctx := context.Background()
	now := time.Now()
	notifications.now = func() time.Time { return now }
	notifications.retry = NotificationRetryPolicy{MaxFailures: 5, Backoff: time.Minute, MaxBackoff: time.Hour}
	email.On("Send", mock.Anything, mock.Anything).Return(errors.New("provider unavailable")).Once()
	attemptID := completeStudentAttempt(t, f)

	attempt, err := f.store.Attempts().GetByID(ctx, attemptID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.NotifyFailures)
	require.NotNil(t, attempt.NotifyRetryAt)
	assert.True(t, attempt.NotifyRetryAt.Equal(now.Add(time.Minute)))

	// Act: срок повтора еще не наступил
	sent, err := notifications.SweepPending(ctx, 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	email.AssertNumberOfCalls(t, "Send", 1)

	email.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	now = now.Add(2 * time.Minute)
	sent, err = notifications.SweepPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "После паузы письмо отправляется")
	email.AssertNumberOfCalls(t, "Send", 2)
}

func TestNotificationService_StopsAfterMaxFailures(t *testing.T) {
	// Arrange: MaxFailures = 3, каждая отправка падает
	f, notifications, email := newNotifiedFixture(t)
	ctx := context.Background()
	email.On("Send", mock.Anything, mock.Anything).Return(errors.New("invalid recipient"))
	attemptID := completeStudentAttempt(t, f)

	// Act
	for i := 0; i < 5; i++ {
		sent, err := notifications.SweepPending(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	}

	// Assert
	email.AssertNumberOfCalls(t, "Send", 3)
	attempt, err := f.store.Attempts().GetByID(ctx, attemptID)
	require.NoError(t, err)
	assert.Equal(t, 3, attempt.NotifyFailures)
	assert.False(t, attempt.Notified)
}

func TestNotificationSweeper_StartRejectsEmptyBatch(t *testing.T) {
	_, notifications, _ := newNotifiedFixture(t)
	sweeper := NewNotificationSweeper(notifications, "@every 1m", 0, time.Second)

	err := sweeper.Start()

	assert.Error(t, err, "Пустой пакет должен отклоняться до запуска планировщика")
}

func TestNotificationService_IncompleteAttempt(t *testing.T) {
	f, notifications, email := newNotifiedFixture(t)
	attempt, err := f.attempts.StartAttempt(context.Background(), f.quiz.ID, studentID)
	require.NoError(t, err)

	err = notifications.NotifyAttempt(context.Background(), attempt.ID)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
