package service

import (
	"fmt"

	"github.com/yourusername/eneza-api/internal/domain/entity"
	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

// IsOwner проверяет, что пользователь владеет сущностью
func IsOwner(e entity.Owned, userID uint) bool {
	return e != nil && userID != 0 && e.OwnerID() == userID
}

// RequireOwner возвращает ErrForbidden, если пользователь не владелец
func RequireOwner(e entity.Owned, userID uint) error {
	if !IsOwner(e, userID) {
		return fmt.Errorf("%w: user #%d is not the owner", apperrors.ErrForbidden, userID)
	}
	return nil
}

// requireQuizOwner проверяет владельца викторины.
// Вопросы и варианты изменяются только создателем викторины, а не автором записи.
func requireQuizOwner(quiz *entity.Quiz, userID uint) error {
	if !IsOwner(quiz, userID) {
		return fmt.Errorf("%w: quiz #%d", ErrNotQuizOwner, quiz.ID)
	}
	return nil
}
