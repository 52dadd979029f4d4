package errors

import "errors"

// Общие ошибки приложения. Сервисы оборачивают их через fmt.Errorf("...: %w", ErrX),
// хендлеры сопоставляют их с HTTP-статусами через errors.Is.
var (
	// ErrNotFound используется, когда запись не найдена или помечена как неактивная (soft delete).
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда в запросе нет идентичности пользователя.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда пользователь не является владельцем ресурса.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для некорректных входных данных
	// (нечисловой id варианта, вопрос не из этой викторины и т.п.).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для нарушений уникальности и состояния:
	// повторная попытка, повторный ответ, повторная финализация.
	ErrConflict = errors.New("resource state conflict")
)
