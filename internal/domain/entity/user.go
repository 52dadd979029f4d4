package entity

// User - проекция пользователя из сервиса идентификации.
// Приложение только читает эту таблицу (адрес для письма с результатами).
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;not null" json:"username"`
	Email    string `gorm:"size:100;not null" json:"email"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}
