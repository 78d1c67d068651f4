package utils

import (
	"os"
	"sync"
	"time"
)

// CacheItem is a cached value plus the file stamp it was derived from
type CacheItem[T any] struct {
	Value   T
	ModTime time.Time
	Size    int64
}

// Cache is a concurrency-safe map whose entries can be tied to a file and
// dropped once that file changes on disk
type Cache[K comparable, V any] struct {
	items map[K]*CacheItem[V]
	mutex sync.RWMutex
}

// NewCache creates an empty cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]*CacheItem[V]),
	}
}

// Get retrieves an item regardless of file state
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if item, exists := c.items[key]; exists {
		return item.Value, true
	}

	var zero V
	return zero, false
}

// GetWithFileValidation returns the cached value only while filePath keeps
// the modification time and size recorded at Set time
func (c *Cache[K, V]) GetWithFileValidation(key K, filePath string) (V, bool) {
	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if stat, err := os.Stat(filePath); err == nil {
		if stat.ModTime().Equal(item.ModTime) && stat.Size() == item.Size {
			return item.Value, true
		}
	}

	c.Delete(key)
	return zero, false
}

// GetOrLoad returns the cached value for key or stores the result of load
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, value)
	return value, nil
}

// Set stores an item without file metadata
func (c *Cache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem[V]{Value: value}
}

// SetWithFileInfo stores an item stamped with filePath's current metadata
func (c *Cache[K, V]) SetWithFileInfo(key K, value V, filePath string) error {
	stat, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem[V]{
		Value:   value,
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
	}
	return nil
}

// Delete removes an item
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Size returns the number of items
func (c *Cache[K, V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}
