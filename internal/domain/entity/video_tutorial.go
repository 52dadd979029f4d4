package entity

// Типы встраивания видео
const (
	EmbedTypeYoutube = "Youtube"
	EmbedTypeOther   = "Other"
)

// VideoTutorial представляет видеоурок, к которому прикрепляется викторина
type VideoTutorial struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	VideoLink   string `gorm:"type:text;not null" json:"video_link"`
	EmbedType   string `gorm:"size:32;not null" json:"embed_type"`
	AuditFields `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (VideoTutorial) TableName() string {
	return "video_tutorials"
}

// OwnerID возвращает ID автора видеоурока
func (v *VideoTutorial) OwnerID() uint {
	return v.CreatedBy
}

// IsValidEmbedType проверяет допустимость типа встраивания
func IsValidEmbedType(embedType string) bool {
	return embedType == EmbedTypeYoutube || embedType == EmbedTypeOther
}
