package entity

import (
	"time"
)

// Attempt представляет попытку прохождения викторины пользователем.
// На пару (quiz_id, user_id) допускается только одна попытка.
type Attempt struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	QuizID      uint       `gorm:"not null;uniqueIndex:idx_attempt_quiz_user" json:"quiz_id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_attempt_quiz_user;index" json:"user_id"`
	Start       time.Time  `gorm:"not null" json:"start"`
	Stop        *time.Time `json:"stop,omitempty"`
	Complete    bool       `gorm:"not null;default:false" json:"complete"`
	Retake      bool       `gorm:"not null;default:false" json:"retake"` // Хранится, но не используется логикой
	TotalPoints int        `gorm:"not null;default:0" json:"total_points"`
	Notified    bool       `gorm:"not null;default:false;index" json:"notified"`
	// Неудачные попытки отправить письмо и время следующей попытки
	NotifyFailures int        `gorm:"not null;default:0" json:"-"`
	NotifyRetryAt  *time.Time `json:"-"`
	AuditFields `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "attempts"
}

// OwnerID возвращает ID пользователя, проходящего викторину
func (a *Attempt) OwnerID() uint {
	return a.UserID
}

// IsComplete возвращает true, если попытка завершена и оценена
func (a *Attempt) IsComplete() bool {
	return a.Complete
}

// TimeTaken возвращает время прохождения. Для незавершенной попытки - 0.
func (a *Attempt) TimeTaken() time.Duration {
	if a.Stop == nil {
		return 0
	}
	return a.Stop.Sub(a.Start)
}
