package utils

import (
	"sort"
	"sync"

	"github.com/toyz/dbweave/internal/errors"
)

// RegistryValidator checks a key-value pair before it is registered
type RegistryValidator[K comparable, V any] func(key K, value V, existing map[K]V) error

// BaseRegistry is a generic, thread-safe registry with pluggable validation
type BaseRegistry[K comparable, V any] struct {
	mu            sync.RWMutex
	items         map[K]V
	validator     RegistryValidator[K, V]
	registryName  string
	keyDescriptor string // e.g. "type name"
}

// NewBaseRegistry creates an empty registry
func NewBaseRegistry[K comparable, V any](registryName, keyDesc string) *BaseRegistry[K, V] {
	return &BaseRegistry[K, V]{
		items:         make(map[K]V),
		registryName:  registryName,
		keyDescriptor: keyDesc,
	}
}

// SetValidator sets the validation applied to every registration
func (r *BaseRegistry[K, V]) SetValidator(validator RegistryValidator[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = validator
}

// Register adds an item after validation
func (r *BaseRegistry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.validator != nil {
		if err := r.validator(key, value, r.items); err != nil {
			return err
		}
	}

	r.items[key] = value
	return nil
}

// Get retrieves an item
func (r *BaseRegistry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, exists := r.items[key]
	return value, exists
}

// Has reports whether key is registered
func (r *BaseRegistry[K, V]) Has(key K) bool {
	_, exists := r.Get(key)
	return exists
}

// Size returns the number of registered items
func (r *BaseRegistry[K, V]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// ForEach calls fn for every item
func (r *BaseRegistry[K, V]) ForEach(fn func(K, V)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, value := range r.items {
		fn(key, value)
	}
}

// Name returns the registry name used in errors
func (r *BaseRegistry[K, V]) Name() string {
	return r.registryName
}

// KeyDescriptor describes what the keys are
func (r *BaseRegistry[K, V]) KeyDescriptor() string {
	return r.keyDescriptor
}

// SortedKeys returns the string keys of r in ascending order
func SortedKeys[V any](r *BaseRegistry[string, V]) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for key := range r.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NotEmptyKeyValidator rejects empty string keys
func NotEmptyKeyValidator[V any](componentType, keyDesc string) RegistryValidator[string, V] {
	return func(key string, value V, existing map[string]V) error {
		if key == "" {
			return errors.NewRegistrationError(componentType, key, keyDesc+" cannot be empty")
		}
		return nil
	}
}

// NoDuplicateValidator rejects keys that are already registered
func NoDuplicateValidator[V any](componentType string) RegistryValidator[string, V] {
	return func(key string, value V, existing map[string]V) error {
		if _, exists := existing[key]; exists {
			return errors.NewRegistrationError(componentType, key, "already registered")
		}
		return nil
	}
}

// ChainValidators runs validators in order and stops at the first failure
func ChainValidators[K comparable, V any](validators ...RegistryValidator[K, V]) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		for _, validator := range validators {
			if validator == nil {
				continue
			}
			if err := validator(key, value, existing); err != nil {
				return err
			}
		}
		return nil
	}
}
