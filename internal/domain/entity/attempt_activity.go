package entity

import (
	"encoding/json"
	"time"
)

// Виды событий попытки
const (
	ActivityStartTest = "START_TEST"
	ActivityEndTest   = "END_TEST"
)

// ActivityContext - полезная нагрузка события попытки
type ActivityContext struct {
	Time   time.Time `json:"time"`
	Points *int      `json:"points,omitempty"`
}

// AttemptActivity - запись журнала событий попытки
type AttemptActivity struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AttemptID   uint   `gorm:"not null;index" json:"attempt_id"`
	Activity    string `gorm:"size:32;not null" json:"activity"`
	Context     string `gorm:"type:jsonb;not null;default:'{}'" json:"context"`
	AuditFields `gorm:"embedded"`
}

// TableName определяет имя таблицы для GORM
func (AttemptActivity) TableName() string {
	return "attempt_activities"
}

// NewAttemptActivity создает событие попытки с сериализованным контекстом
func NewAttemptActivity(attemptID uint, activity string, ctx ActivityContext) (*AttemptActivity, error) {
	raw, err := json.Marshal(ctx)
	if err != nil {
		return nil, err
	}
	return &AttemptActivity{
		AttemptID: attemptID,
		Activity:  activity,
		Context:   string(raw),
	}, nil
}
