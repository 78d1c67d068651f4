package weave

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BindValueMap holds the values bound to a statement, keyed by parameter
// index. It is safe for concurrent use.
type BindValueMap struct {
	mu     sync.RWMutex
	values map[int]any
}

// NewBindValueMap creates an empty map
func NewBindValueMap() *BindValueMap {
	return &BindValueMap{values: make(map[int]any)}
}

// Set binds value to index, replacing any earlier value
func (m *BindValueMap) Set(index int, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[index] = value
}

// Get returns the value bound to index
func (m *BindValueMap) Get(index int) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[index]
	return value, ok
}

// Len returns the number of bound indices
func (m *BindValueMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Clear removes every binding
func (m *BindValueMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
}

// Snapshot returns a copy of the current bindings
func (m *BindValueMap) Snapshot() map[int]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(map[int]any, len(m.values))
	for index, value := range m.values {
		snapshot[index] = value
	}
	return snapshot
}

// Indices returns the bound indices in ascending order
func (m *BindValueMap) Indices() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	indices := make([]int, 0, len(m.values))
	for index := range m.values {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// String renders the bindings as "1:foo, 2:9" ordered by index
func (m *BindValueMap) String() string {
	snapshot := m.Snapshot()
	indices := make([]int, 0, len(snapshot))
	for index := range snapshot {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	parts := make([]string, len(indices))
	for i, index := range indices {
		parts[i] = fmt.Sprintf("%d:%v", index, snapshot[index])
	}
	return strings.Join(parts, ", ")
}
