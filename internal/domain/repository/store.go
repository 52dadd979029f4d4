package repository

import "context"

// Store объединяет репозитории одного хранилища и дает транзакционный доступ к ним.
// Репозитории, полученные из tx внутри WithTx, работают в одной транзакции.
type Store interface {
	Quizzes() QuizRepository
	VideoTutorials() VideoTutorialRepository
	Questions() QuestionRepository
	Choices() ChoiceRepository
	Attempts() AttemptRepository
	Answers() AnswerRepository
	Activities() ActivityRepository
	Users() UserRepository

	// WithTx выполняет fn в транзакции. Ошибка fn откатывает все изменения.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
