package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	Delete(key string) error
	Increment(key string) (int64, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Expire(key string, expiration time.Duration) error
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
	// DeleteIfValue удаляет ключ, только если он хранит value (снятие своей блокировки)
	DeleteIfValue(key string, value interface{}) (bool, error)
}
