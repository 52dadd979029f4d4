package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
	"github.com/yourusername/eneza-api/internal/service/grading"
)

const resultsSubject = "Quiz Results"

var resultsHTML = template.Must(template.New("quiz_results").Parse(`<p>Hi {{.Username}},</p>
<p>You have completed the quiz <strong>{{.QuizTitle}}</strong>.</p>
<p>Score: <strong>{{.Points}}</strong> / {{.TotalPoints}}</p>
<p>Time taken: {{.TimeTaken}}</p>`))

// ResultsEmail - данные письма с результатами
type ResultsEmail struct {
	Username    string
	QuizTitle   string
	Points      int
	TotalPoints int
	TimeTaken   string
}

// FormatDuration форматирует длительность как H:MM:SS
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// RenderResultsEmail формирует HTML и текстовую версии письма
func RenderResultsEmail(data ResultsEmail) (string, string, error) {
	var buf bytes.Buffer
	if err := resultsHTML.Execute(&buf, data); err != nil {
		return "", "", err
	}
	text := fmt.Sprintf("You have completed the quiz %s. Score: %d / %d. Time taken: %s.",
		data.QuizTitle, data.Points, data.TotalPoints, data.TimeTaken)
	return buf.String(), text, nil
}

// NotificationRetryPolicy задает повторы неудачных отправок.
// Задержка удваивается с каждой неудачей: Backoff, 2*Backoff, ... но не больше MaxBackoff.
// После MaxFailures неудач попытка больше не выбирается (0 - без ограничения).
type NotificationRetryPolicy struct {
	MaxFailures int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// Delay возвращает паузу перед следующей попыткой после failures неудач
func (p NotificationRetryPolicy) Delay(failures int) time.Duration {
	if p.Backoff <= 0 || failures <= 0 {
		return 0
	}
	delay := p.Backoff
	for i := 1; i < failures && (p.MaxBackoff <= 0 || delay < p.MaxBackoff); i++ {
		delay *= 2
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		delay = p.MaxBackoff
	}
	return delay
}

// NotificationService отправляет письма с результатами завершенных попыток.
// Флаг notified выставляется только после успешной отправки; блокировка в кеше
// не дает отправить одно письмо из двух мест одновременно.
type NotificationService struct {
	store     repository.Store
	questions QuestionLister
	email     EmailService
	cacheRepo repository.CacheRepository
	lockTTL   time.Duration
	retry     NotificationRetryPolicy
	now       func() time.Time
}

// NewNotificationService создает сервис уведомлений
func NewNotificationService(
	store repository.Store,
	questions QuestionLister,
	email EmailService,
	cacheRepo repository.CacheRepository,
	lockTTL time.Duration,
	retry NotificationRetryPolicy,
) *NotificationService {
	return &NotificationService{
		store:     store,
		questions: questions,
		email:     email,
		cacheRepo: cacheRepo,
		lockTTL:   lockTTL,
		retry:     retry,
		now:       time.Now,
	}
}

func notifyLockKey(attemptID uint) string {
	return fmt.Sprintf("notify:attempt:%d", attemptID)
}

// NotifyAttempt отправляет письмо по завершенной попытке, если оно еще не отправлено
func (s *NotificationService) NotifyAttempt(ctx context.Context, attemptID uint) error {
	_, err := s.deliver(ctx, attemptID)
	return err
}

// deliver возвращает true, только если письмо действительно ушло в этом вызове
func (s *NotificationService) deliver(ctx context.Context, attemptID uint) (bool, error) {
	if s.cacheRepo != nil {
		key := notifyLockKey(attemptID)
		token := uuid.NewString()
		acquired, err := s.cacheRepo.SetNX(key, token, s.lockTTL)
		if err != nil {
			return false, fmt.Errorf("failed to acquire notification lock: %w", err)
		}
		if !acquired {
			log.Printf("[NotificationService] Письмо по попытке #%d уже отправляется", attemptID)
			return false, nil
		}
		defer func() {
			released, err := s.cacheRepo.DeleteIfValue(key, token)
			if err != nil {
				log.Printf("[NotificationService] Не удалось снять блокировку %s: %v", key, err)
			} else if !released {
				log.Printf("[NotificationService] Блокировка %s истекла до завершения отправки", key)
			}
		}()
	}

	attempt, err := s.store.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		return false, fmt.Errorf("attempt #%d: %w", attemptID, err)
	}
	if !attempt.IsComplete() {
		return false, fmt.Errorf("%w: attempt #%d is not complete", apperrors.ErrConflict, attemptID)
	}
	if attempt.Notified {
		return false, nil
	}

	if err := s.send(ctx, attempt); err != nil {
		s.recordFailure(ctx, attempt, err)
		return false, err
	}
	return true, nil
}

func (s *NotificationService) send(ctx context.Context, attempt *entity.Attempt) error {
	user, err := s.store.Users().GetByID(ctx, attempt.UserID)
	if err != nil {
		return fmt.Errorf("user #%d: %w", attempt.UserID, err)
	}
	quiz, err := s.store.Quizzes().GetWithTutorial(ctx, attempt.QuizID)
	if err != nil {
		return fmt.Errorf("quiz #%d: %w", attempt.QuizID, err)
	}
	questions, err := s.questions.ListQuizQuestions(ctx, attempt.QuizID)
	if err != nil {
		return err
	}

	title := quiz.Title()
	if title == "" {
		title = fmt.Sprintf("Quiz #%d", quiz.ID)
	}
	html, text, err := RenderResultsEmail(ResultsEmail{
		Username:    user.Username,
		QuizTitle:   title,
		Points:      attempt.TotalPoints,
		TotalPoints: grading.TotalAvailable(questions),
		TimeTaken:   FormatDuration(attempt.TimeTaken()),
	})
	if err != nil {
		return fmt.Errorf("failed to render results email: %w", err)
	}

	err = s.email.Send(ctx, EmailMessage{
		To:             user.Email,
		Subject:        resultsSubject,
		HTML:           html,
		Text:           text,
		IdempotencyKey: fmt.Sprintf("attempt-results-%d", attempt.ID),
	})
	if err != nil {
		return err
	}

	if err := s.store.Attempts().MarkNotified(ctx, attempt.ID); err != nil {
		return fmt.Errorf("failed to mark attempt #%d notified: %w", attempt.ID, err)
	}
	log.Printf("[NotificationService] Результаты попытки #%d отправлены на %s", attempt.ID, user.Email)
	return nil
}

// recordFailure откладывает следующую отправку согласно политике повторов
func (s *NotificationService) recordFailure(ctx context.Context, attempt *entity.Attempt, cause error) {
	failures := attempt.NotifyFailures + 1
	retryAt := s.now().Add(s.retry.Delay(failures))
	if err := s.store.Attempts().RecordNotifyFailure(context.WithoutCancel(ctx), attempt.ID, retryAt); err != nil {
		log.Printf("[NotificationService] Не удалось сохранить неудачу отправки по попытке #%d: %v", attempt.ID, err)
		return
	}
	if s.retry.MaxFailures > 0 && failures >= s.retry.MaxFailures {
		log.Printf("[NotificationService] Письмо по попытке #%d не отправлено после %d попыток, повторов не будет: %v",
			attempt.ID, failures, cause)
	}
}

// SweepPending повторяет отправку для завершенных попыток без письма.
// Возвращает количество отправленных писем.
func (s *NotificationService) SweepPending(ctx context.Context, batch int) (int, error) {
	attempts, err := s.store.Attempts().ListPendingNotification(ctx, s.now(), s.retry.MaxFailures, batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, a := range attempts {
		delivered, err := s.deliver(ctx, a.ID)
		if err != nil {
			log.Printf("[NotificationService] Повторная отправка по попытке #%d не удалась: %v", a.ID, err)
			continue
		}
		if delivered {
			sent++
		}
	}
	return sent, nil
}
