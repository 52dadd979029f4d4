package entity

// QuestionKind - дискриминатор варианта вопроса
type QuestionKind string

// Варианты вопросов
const (
	QuestionKindMultiChoice QuestionKind = "MULTI_CHOICE"
	QuestionKindFreeForm    QuestionKind = "FREE_FORM"
)

// IsValid проверяет, что вид вопроса известен
func (k QuestionKind) IsValid() bool {
	return k == QuestionKindMultiChoice || k == QuestionKindFreeForm
}

// Question представляет вопрос викторины.
// Оба варианта хранятся в одной таблице: для MULTI_CHOICE используются Choices,
// для FREE_FORM - ReferenceAnswer.
type Question struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	QuizID          uint         `gorm:"not null;index" json:"quiz_id"`
	Kind            QuestionKind `gorm:"size:16;not null" json:"kind"`
	Position        int          `gorm:"not null" json:"position"`
	Content         string       `gorm:"type:text;not null" json:"content"`
	Points          int          `gorm:"not null;default:1" json:"points"`
	ReferenceAnswer string       `gorm:"type:text;not null;default:''" json:"reference_answer"` // Только для FREE_FORM
	Choices         []Choice     `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
	AuditFields     `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsMultiChoice возвращает true для вопроса с вариантами ответа
func (q *Question) IsMultiChoice() bool {
	return q.Kind == QuestionKindMultiChoice
}

// IsFreeForm возвращает true для вопроса со свободным ответом
func (q *Question) IsFreeForm() bool {
	return q.Kind == QuestionKindFreeForm
}

// CorrectChoiceID возвращает ID правильного варианта.
// Второе значение false, если активных правильных вариантов ноль или больше одного.
func (q *Question) CorrectChoiceID() (uint, bool) {
	var (
		id    uint
		count int
	)
	for i := range q.Choices {
		c := &q.Choices[i]
		if !c.IsActive || !c.IsCorrect {
			continue
		}
		id = c.ID
		count++
	}
	if count != 1 {
		return 0, false
	}
	return id, true
}

// HasChoice проверяет, что активный вариант с таким ID принадлежит вопросу
func (q *Question) HasChoice(choiceID uint) bool {
	for i := range q.Choices {
		if q.Choices[i].ID == choiceID && q.Choices[i].IsActive {
			return true
		}
	}
	return false
}

// Choice представляет вариант ответа вопроса MULTI_CHOICE
type Choice struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	QuestionID  uint   `gorm:"not null;index" json:"question_id"`
	Position    int    `gorm:"not null" json:"position"`
	Text        string `gorm:"type:text;not null" json:"text"`
	IsCorrect   bool   `gorm:"not null;default:false" json:"is_correct"`
	AuditFields `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (Choice) TableName() string {
	return "choices"
}
