package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

type attemptRepo struct{ s *Store }

func (r *attemptRepo) Create(_ context.Context, attempt *entity.Attempt) error {
	return r.s.view(func(t *tables) error {
		for _, a := range t.attempts {
			if a.QuizID == attempt.QuizID && a.UserID == attempt.UserID {
				return conflict("idx_attempt_quiz_user")
			}
		}
		attempt.ID = t.newID()
		t.attempts[attempt.ID] = *attempt
		return nil
	})
}

func (r *attemptRepo) find(quizID, userID uint) (*entity.Attempt, error) {
	var out *entity.Attempt
	_ = r.s.view(func(t *tables) error {
		for _, a := range t.attempts {
			if a.IsActive && a.QuizID == quizID && a.UserID == userID {
				found := a
				out = &found
				return nil
			}
		}
		return nil
	})
	if out == nil {
		return nil, apperrors.ErrNotFound
	}
	return out, nil
}

func (r *attemptRepo) GetByQuizAndUser(_ context.Context, quizID, userID uint) (*entity.Attempt, error) {
	return r.find(quizID, userID)
}

// Транзакции уже сериализованы, отдельная блокировка строки не нужна
func (r *attemptRepo) GetByQuizAndUserForUpdate(_ context.Context, quizID, userID uint) (*entity.Attempt, error) {
	return r.find(quizID, userID)
}

func (r *attemptRepo) GetByID(_ context.Context, id uint) (*entity.Attempt, error) {
	var out entity.Attempt
	err := r.s.view(func(t *tables) error {
		a, ok := t.attempts[id]
		if !ok || !a.IsActive {
			return apperrors.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *attemptRepo) Update(_ context.Context, attempt *entity.Attempt) error {
	return r.s.view(func(t *tables) error {
		if _, ok := t.attempts[attempt.ID]; !ok {
			return apperrors.ErrNotFound
		}
		t.attempts[attempt.ID] = *attempt
		return nil
	})
}

func (r *attemptRepo) MarkNotified(_ context.Context, attemptID uint) error {
	return r.s.view(func(t *tables) error {
		a, ok := t.attempts[attemptID]
		if !ok {
			return apperrors.ErrNotFound
		}
		a.Notified = true
		t.attempts[attemptID] = a
		return nil
	})
}

func (r *attemptRepo) filter(pred func(a entity.Attempt) bool) []entity.Attempt {
	out := []entity.Attempt{}
	_ = r.s.view(func(t *tables) error {
		for _, a := range t.attempts {
			if a.IsActive && pred(a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *attemptRepo) ListByQuiz(_ context.Context, quizID uint) ([]entity.Attempt, error) {
	return r.filter(func(a entity.Attempt) bool { return a.QuizID == quizID }), nil
}

func (r *attemptRepo) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	attempts, _ := r.ListByQuiz(ctx, quizID)
	return int64(len(attempts)), nil
}

func (r *attemptRepo) ListPendingNotification(_ context.Context, now time.Time, maxFailures, limit int) ([]entity.Attempt, error) {
	out := r.filter(func(a entity.Attempt) bool {
		if !a.Complete || a.Notified {
			return false
		}
		if a.NotifyRetryAt != nil && a.NotifyRetryAt.After(now) {
			return false
		}
		return maxFailures <= 0 || a.NotifyFailures < maxFailures
	})
	return paginate(out, limit, 0), nil
}

func (r *attemptRepo) RecordNotifyFailure(_ context.Context, attemptID uint, retryAt time.Time) error {
	return r.s.view(func(t *tables) error {
		a, ok := t.attempts[attemptID]
		if !ok {
			return apperrors.ErrNotFound
		}
		a.NotifyFailures++
		a.NotifyRetryAt = &retryAt
		t.attempts[attemptID] = a
		return nil
	})
}

type answerRepo struct{ s *Store }

type answerKey struct{ a, b uint }

func (r *answerRepo) CreateBatch(_ context.Context, answers []entity.Answer) error {
	return r.s.view(func(t *tables) error {
		byAttempt := make(map[answerKey]bool, len(t.answers)+len(answers))
		byUser := make(map[answerKey]bool, len(t.answers)+len(answers))
		for _, a := range t.answers {
			byAttempt[answerKey{a.AttemptID, a.QuestionID}] = true
			byUser[answerKey{a.QuestionID, a.CreatedBy}] = true
		}
		for _, a := range answers {
			ka := answerKey{a.AttemptID, a.QuestionID}
			ku := answerKey{a.QuestionID, a.CreatedBy}
			if byAttempt[ka] {
				return conflict("idx_answer_attempt_question")
			}
			if byUser[ku] {
				return conflict("idx_answer_question_user")
			}
			byAttempt[ka] = true
			byUser[ku] = true
		}
		for i := range answers {
			answers[i].ID = t.newID()
			t.answers[answers[i].ID] = answers[i]
		}
		return nil
	})
}

func (r *answerRepo) filter(pred func(a entity.Answer) bool) []entity.Answer {
	out := []entity.Answer{}
	_ = r.s.view(func(t *tables) error {
		for _, a := range t.answers {
			if a.IsActive && pred(a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *answerRepo) GetByAttempt(_ context.Context, attemptID uint) ([]entity.Answer, error) {
	return r.filter(func(a entity.Answer) bool { return a.AttemptID == attemptID }), nil
}

func (r *answerRepo) ExistsForQuestionByUser(_ context.Context, questionID, userID uint) (bool, error) {
	found := r.filter(func(a entity.Answer) bool { return a.QuestionID == questionID && a.CreatedBy == userID })
	return len(found) > 0, nil
}

func (r *answerRepo) GetByUserAndQuestions(_ context.Context, userID uint, questionIDs []uint) ([]entity.Answer, error) {
	wanted := make(map[uint]bool, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = true
	}
	return r.filter(func(a entity.Answer) bool { return a.CreatedBy == userID && wanted[a.QuestionID] }), nil
}

func (r *answerRepo) UpdateValidity(_ context.Context, answerID uint, isValid bool) error {
	return r.s.view(func(t *tables) error {
		a, ok := t.answers[answerID]
		if !ok {
			return apperrors.ErrNotFound
		}
		a.IsValid = isValid
		t.answers[answerID] = a
		return nil
	})
}

type activityRepo struct{ s *Store }

func (r *activityRepo) Create(_ context.Context, activity *entity.AttemptActivity) error {
	return r.s.view(func(t *tables) error {
		activity.ID = t.newID()
		t.activities[activity.ID] = *activity
		return nil
	})
}

func (r *activityRepo) ListByAttempt(_ context.Context, attemptID uint) ([]entity.AttemptActivity, error) {
	out := []entity.AttemptActivity{}
	_ = r.s.view(func(t *tables) error {
		for _, a := range t.activities {
			if a.IsActive && a.AttemptID == attemptID {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
