package entity

// Answer представляет ответ пользователя на один вопрос в рамках попытки.
// Вариант определяется Kind: для MULTI_CHOICE заполнен SelectedChoiceID,
// для FREE_FORM - AnswerText.
type Answer struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	AttemptID        uint         `gorm:"not null;uniqueIndex:idx_answer_attempt_question" json:"attempt_id"`
	QuestionID       uint         `gorm:"not null;uniqueIndex:idx_answer_attempt_question;uniqueIndex:idx_answer_question_user" json:"question_id"`
	Kind             QuestionKind `gorm:"size:16;not null" json:"kind"`
	SelectedChoiceID *uint        `json:"selected_choice_id,omitempty"`
	AnswerText       *string      `gorm:"type:text" json:"answer_text,omitempty"`
	IsValid          bool         `gorm:"not null;default:false" json:"is_valid"`
	AuditFields      `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}

// OwnerID возвращает ID автора ответа
func (a *Answer) OwnerID() uint {
	return a.CreatedBy
}

// Text возвращает текст свободного ответа или пустую строку
func (a *Answer) Text() string {
	if a.AnswerText == nil {
		return ""
	}
	return *a.AnswerText
}
