package entity

import (
	"time"
)

// AuditFields содержит общие служебные поля всех сущностей:
// флаг активности (soft delete) и сведения о том, кто и когда создал/изменил запись.
type AuditFields struct {
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	UpdatedBy *uint     `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Audit возвращает служебные поля сущности
func (a *AuditFields) Audit() *AuditFields {
	return a
}

// Auditable реализуют все сущности, встраивающие AuditFields
type Auditable interface {
	Audit() *AuditFields
}

// Owned реализуют сущности, у которых есть владелец
type Owned interface {
	OwnerID() uint
}

// Stamp проставляет служебные поля перед сохранением.
// Для новой записи (CreatedAt не задан) заполняются created_*, для существующей - updated_by.
func Stamp(e Auditable, userID uint, now time.Time) {
	a := e.Audit()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		a.CreatedBy = userID
		a.IsActive = true
	} else {
		uid := userID
		a.UpdatedBy = &uid
	}
	a.UpdatedAt = now
}

// Deactivate помечает запись как удаленную (soft delete)
func Deactivate(e Auditable, userID uint, now time.Time) {
	Stamp(e, userID, now)
	e.Audit().IsActive = false
}
