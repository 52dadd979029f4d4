package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	"github.com/yourusername/eneza-api/internal/domain/repository"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
	"github.com/yourusername/eneza-api/internal/service/grading"
)

// AnswerInput - один ответ из запроса submit.
// Raw содержит id варианта (для MULTI_CHOICE) или текст ответа (для FREE_FORM).
type AnswerInput struct {
	QuestionID uint
	Raw        string
}

// QuestionWithAnswer - вопрос викторины с собственным ответом пользователя (если есть)
type QuestionWithAnswer struct {
	Question entity.Question
	Answer   *entity.Answer
}

// AttemptDetails - попытка вместе с журналом событий
type AttemptDetails struct {
	Attempt    *entity.Attempt
	Activities []entity.AttemptActivity
}

// ResultsNotifier отправляет письмо с результатами завершенной попытки
type ResultsNotifier interface {
	NotifyAttempt(ctx context.Context, attemptID uint) error
}

// QuestionLister возвращает вопросы викторины в порядке position
type QuestionLister interface {
	ListQuizQuestions(ctx context.Context, quizID uint) ([]entity.Question, error)
}

// AttemptService управляет жизненным циклом попытки: старт, отправка ответов, завершение
type AttemptService struct {
	store         repository.Store
	questions     QuestionLister
	notifier      ResultsNotifier
	notifyTimeout time.Duration
	maxBatch      int
	now           func() time.Time
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	store repository.Store,
	questions QuestionLister,
	notifier ResultsNotifier,
	notifyTimeout time.Duration,
	maxBatch int,
) *AttemptService {
	return &AttemptService{
		store:         store,
		questions:     questions,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		maxBatch:      maxBatch,
		now:           time.Now,
	}
}

// StartAttempt создает попытку для пары (quiz, user).
// Повторный старт (в том числе конкурентный) возвращает ErrConflict.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID, userID uint) (*entity.Attempt, error) {
	if _, err := s.store.Quizzes().GetByID(ctx, quizID); err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}

	now := s.now()
	attempt := &entity.Attempt{
		QuizID: quizID,
		UserID: userID,
		Start:  now,
	}
	entity.Stamp(attempt, userID, now)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Attempts().Create(ctx, attempt); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return ErrAttemptExists
			}
			return err
		}
		return s.logActivity(ctx, tx, attempt, entity.ActivityStartTest, nil)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AttemptService] Пользователь #%d начал викторину #%d (attempt #%d)", userID, quizID, attempt.ID)
	return attempt, nil
}

// SubmitAnswers проверяет, сохраняет пакет ответов и завершает попытку одной транзакцией.
// Если хотя бы один ответ некорректен, не сохраняется ни один и возвращается первая ошибка.
func (s *AttemptService) SubmitAnswers(ctx context.Context, quizID, userID uint, inputs []AnswerInput) (*entity.Attempt, error) {
	if len(inputs) == 0 {
		return nil, ErrNoAnswers
	}
	if s.maxBatch > 0 && len(inputs) > s.maxBatch {
		return nil, ErrTooManyAnswers
	}
	if _, err := s.store.Quizzes().GetByID(ctx, quizID); err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}

	var finalized *entity.Attempt
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		attempt, err := tx.Attempts().GetByQuizAndUserForUpdate(ctx, quizID, userID)
		if err != nil {
			return fmt.Errorf("attempt for quiz #%d: %w", quizID, err)
		}
		if attempt.IsComplete() {
			return ErrAttemptComplete
		}

		answers, err := s.buildAnswers(ctx, tx, attempt, userID, inputs)
		if err != nil {
			return err
		}
		if err := tx.Answers().CreateBatch(ctx, answers); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return ErrAlreadyAnswered
			}
			return err
		}
		if err := s.finalizeTx(ctx, tx, attempt, userID); err != nil {
			return err
		}
		finalized = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AttemptService] Пользователь #%d отправил %d ответ(ов) в викторине #%d, попытка #%d завершена: %d балл(ов)",
		userID, len(inputs), quizID, finalized.ID, finalized.TotalPoints)
	s.notify(ctx, finalized)
	return finalized, nil
}

// buildAnswers валидирует весь пакет до записи
func (s *AttemptService) buildAnswers(
	ctx context.Context,
	tx repository.Store,
	attempt *entity.Attempt,
	userID uint,
	inputs []AnswerInput,
) ([]entity.Answer, error) {
	ids := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.QuestionID)
	}
	questions, err := tx.Questions().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	now := s.now()
	seen := make(map[uint]bool, len(inputs))
	answers := make([]entity.Answer, 0, len(inputs))
	for _, in := range inputs {
		question, ok := byID[in.QuestionID]
		if !ok || question.QuizID != attempt.QuizID {
			return nil, fmt.Errorf("%w: question #%d does not belong to quiz #%d", apperrors.ErrValidation, in.QuestionID, attempt.QuizID)
		}
		if seen[question.ID] {
			return nil, fmt.Errorf("%w: question #%d", ErrAlreadyAnswered, question.ID)
		}
		seen[question.ID] = true

		answered, err := tx.Answers().ExistsForQuestionByUser(ctx, question.ID, userID)
		if err != nil {
			return nil, err
		}
		if answered {
			return nil, fmt.Errorf("%w: question #%d", ErrAlreadyAnswered, question.ID)
		}

		answer := entity.Answer{
			AttemptID:  attempt.ID,
			QuestionID: question.ID,
			Kind:       question.Kind,
		}
		switch question.Kind {
		case entity.QuestionKindMultiChoice:
			choiceID, err := strconv.ParseUint(strings.TrimSpace(in.Raw), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: answer to question #%d must be a choice id", apperrors.ErrValidation, question.ID)
			}
			if !question.HasChoice(uint(choiceID)) {
				return nil, fmt.Errorf("%w: choice #%d does not belong to question #%d", apperrors.ErrValidation, choiceID, question.ID)
			}
			selected := uint(choiceID)
			answer.SelectedChoiceID = &selected
		case entity.QuestionKindFreeForm:
			text := in.Raw
			answer.AnswerText = &text
		default:
			return nil, fmt.Errorf("%w: question #%d has unknown kind %q", apperrors.ErrValidation, question.ID, question.Kind)
		}
		entity.Stamp(&answer, userID, now)
		answers = append(answers, answer)
	}
	return answers, nil
}

// FinalizeAttempt проверяет все ответы попытки и помечает ее завершенной.
// Выполняется под блокировкой строки попытки: второй конкурентный вызов видит complete=true
// и получает ErrConflict. Ошибка отправки письма логируется и не влияет на результат.
func (s *AttemptService) FinalizeAttempt(ctx context.Context, quizID, userID uint) (*entity.Attempt, error) {
	var finalized *entity.Attempt

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		attempt, err := tx.Attempts().GetByQuizAndUserForUpdate(ctx, quizID, userID)
		if err != nil {
			return fmt.Errorf("attempt for quiz #%d: %w", quizID, err)
		}
		if attempt.IsComplete() {
			return ErrAttemptComplete
		}
		if err := s.finalizeTx(ctx, tx, attempt, userID); err != nil {
			return err
		}
		finalized = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AttemptService] Попытка #%d завершена: %d балл(ов)", finalized.ID, finalized.TotalPoints)
	s.notify(ctx, finalized)
	return finalized, nil
}

// finalizeTx оценивает ответы и закрывает попытку внутри уже открытой транзакции.
// Попытка должна быть получена под блокировкой и еще не завершена.
func (s *AttemptService) finalizeTx(ctx context.Context, tx repository.Store, attempt *entity.Attempt, userID uint) error {
	answers, err := tx.Answers().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return err
	}
	questionIDs := make([]uint, 0, len(answers))
	for _, a := range answers {
		questionIDs = append(questionIDs, a.QuestionID)
	}
	questions, err := tx.Questions().GetByIDs(ctx, questionIDs)
	if err != nil {
		return err
	}
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	score := grading.ScoreAttempt(answers, byID)
	for _, res := range score.Results {
		if err := tx.Answers().UpdateValidity(ctx, res.AnswerID, res.IsValid); err != nil {
			return err
		}
	}

	now := s.now()
	attempt.TotalPoints = score.TotalPoints
	attempt.Stop = &now
	attempt.Complete = true
	entity.Stamp(attempt, userID, now)
	if err := tx.Attempts().Update(ctx, attempt); err != nil {
		return err
	}

	points := score.TotalPoints
	return s.logActivity(ctx, tx, attempt, entity.ActivityEndTest, &points)
}

// notify отправляет письмо с результатами. Ошибки только логируются.
func (s *AttemptService) notify(ctx context.Context, attempt *entity.Attempt) {
	if s.notifier == nil {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, s.notifyTimeout)
		defer cancel()
	}
	if err := s.notifier.NotifyAttempt(notifyCtx, attempt.ID); err != nil {
		log.Printf("[AttemptService] Не удалось отправить результаты попытки #%d: %v", attempt.ID, err)
	}
}

func (s *AttemptService) logActivity(ctx context.Context, tx repository.Store, attempt *entity.Attempt, activity string, points *int) error {
	record, err := entity.NewAttemptActivity(attempt.ID, activity, entity.ActivityContext{
		Time:   s.now(),
		Points: points,
	})
	if err != nil {
		return err
	}
	entity.Stamp(record, attempt.UserID, s.now())
	return tx.Activities().Create(ctx, record)
}

// GetAttempt возвращает попытку пользователя attemptUserID.
// Доступна владельцу попытки и владельцу викторины.
func (s *AttemptService) GetAttempt(ctx context.Context, quizID, attemptUserID, callerID uint) (*AttemptDetails, error) {
	quiz, err := s.store.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	attempt, err := s.store.Attempts().GetByQuizAndUser(ctx, quizID, attemptUserID)
	if err != nil {
		return nil, fmt.Errorf("attempt for quiz #%d: %w", quizID, err)
	}
	if !IsOwner(attempt, callerID) && !IsOwner(quiz, callerID) {
		return nil, fmt.Errorf("%w: attempt #%d", apperrors.ErrForbidden, attempt.ID)
	}

	activities, err := s.store.Activities().ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	return &AttemptDetails{Attempt: attempt, Activities: activities}, nil
}

// ListQuestionsForAttempt возвращает вопросы викторины с собственными ответами вызывающего.
// Требует начатой попытки или владения викториной. Второе значение - можно ли
// показывать правильные ответы (только владельцу викторины).
func (s *AttemptService) ListQuestionsForAttempt(ctx context.Context, quizID, callerID uint, position *int) ([]QuestionWithAnswer, bool, error) {
	quiz, err := s.store.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		return nil, false, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	owner := IsOwner(quiz, callerID)
	if !owner {
		if _, err := s.store.Attempts().GetByQuizAndUser(ctx, quizID, callerID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, false, ErrMustStartQuiz
			}
			return nil, false, err
		}
	}

	questions, err := s.questions.ListQuizQuestions(ctx, quizID)
	if err != nil {
		return nil, false, err
	}
	if position != nil {
		var filtered []entity.Question
		for _, q := range questions {
			if q.Position == *position {
				filtered = append(filtered, q)
			}
		}
		if len(filtered) == 0 {
			return nil, false, fmt.Errorf("question at position %d: %w", *position, apperrors.ErrNotFound)
		}
		questions = filtered
	}

	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	answers, err := s.store.Answers().GetByUserAndQuestions(ctx, callerID, ids)
	if err != nil {
		return nil, false, err
	}
	byQuestion := make(map[uint]*entity.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	result := make([]QuestionWithAnswer, 0, len(questions))
	for _, q := range questions {
		result = append(result, QuestionWithAnswer{Question: q, Answer: byQuestion[q.ID]})
	}
	return result, owner, nil
}

// ListAttempts возвращает все попытки викторины. Только для владельца викторины.
func (s *AttemptService) ListAttempts(ctx context.Context, quizID, callerID uint) ([]entity.Attempt, error) {
	quiz, err := s.store.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz #%d: %w", quizID, err)
	}
	if err := requireQuizOwner(quiz, callerID); err != nil {
		return nil, err
	}
	return s.store.Attempts().ListByQuiz(ctx, quizID)
}
