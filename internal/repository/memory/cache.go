package memory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/yourusername/eneza-api/internal/pkg/errors"
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Cache реализует repository.CacheRepository в памяти процесса
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewCache создает пустой кеш
func NewCache() *Cache {
	return &Cache{items: make(map[string]cacheItem), now: time.Now}
}

func (c *Cache) get(key string) (cacheItem, bool) {
	item, ok := c.items[key]
	if !ok {
		return cacheItem{}, false
	}
	if item.expired(c.now()) {
		delete(c.items, key)
		return cacheItem{}, false
	}
	return item, true
}

func (c *Cache) deadline(expiration time.Duration) time.Time {
	if expiration <= 0 {
		return time.Time{}
	}
	return c.now().Add(expiration)
}

// Delete удаляет значение из кеша
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Increment увеличивает значение на 1, сохраняя TTL
func (c *Cache) Increment(key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, _ := c.get(key)
	var n int64
	if len(item.value) > 0 {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	item.value = []byte(strconv.FormatInt(n, 10))
	c.items[key] = item
	return n, nil
}

// SetJSON сохраняет структуру JSON в кеше
func (c *Cache) SetJSON(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{value: data, expiresAt: c.deadline(expiration)}
	return nil
}

// GetJSON получает структуру JSON из кеша
func (c *Cache) GetJSON(key string, dest interface{}) error {
	c.mu.Lock()
	item, ok := c.get(key)
	c.mu.Unlock()
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(item.value, dest)
}

// Expire устанавливает TTL существующего ключа
func (c *Cache) Expire(key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.get(key)
	if !ok {
		return nil
	}
	item.expiresAt = c.deadline(expiration)
	c.items[key] = item
	return nil
}

// SetNX устанавливает значение ключа, только если ключ не существует
func (c *Cache) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.get(key); ok {
		return false, nil
	}
	c.items[key] = cacheItem{value: data, expiresAt: c.deadline(expiration)}
	return true, nil
}

// DeleteIfValue удаляет ключ, только если он хранит value
func (c *Cache) DeleteIfValue(key string, value interface{}) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.get(key)
	if !ok || !bytes.Equal(item.value, data) {
		return false, nil
	}
	delete(c.items, key)
	return true, nil
}
