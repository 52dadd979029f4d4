package entity

// Quiz представляет викторину, привязанную к видеоуроку (1:1)
type Quiz struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	VideoTutorialID uint           `gorm:"not null;uniqueIndex" json:"video_tutorial_id"`
	VideoTutorial   *VideoTutorial `gorm:"foreignKey:VideoTutorialID" json:"video_tutorial,omitempty"`
	Questions       []Question     `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	AuditFields     `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// OwnerID возвращает ID создателя викторины.
// Только он может добавлять и изменять вопросы и варианты ответов.
func (q *Quiz) OwnerID() uint {
	return q.CreatedBy
}

// Title возвращает название викторины (название видеоурока, если он загружен)
func (q *Quiz) Title() string {
	if q.VideoTutorial != nil && q.VideoTutorial.Title != "" {
		return q.VideoTutorial.Title
	}
	return ""
}
