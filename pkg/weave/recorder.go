package weave

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation is one captured statement execution
type Operation struct {
	ID         uuid.UUID
	TypeName   string
	Method     string
	URL        string
	SQL        string
	BindValues map[int]any
	Started    time.Time
	Duration   time.Duration
	Err        error
	Success    bool
}

// Recorder receives completed operations
type Recorder interface {
	Record(op Operation)
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(op Operation)

// Record calls f(op)
func (f RecorderFunc) Record(op Operation) {
	f(op)
}

// DefaultCapacity is the ring size of DefaultRecorder
const DefaultCapacity = 1024

// DefaultRecorder receives operations from interceptors built without an
// explicit recorder
var DefaultRecorder Recorder = NewMemoryRecorder(DefaultCapacity)

// MemoryRecorder keeps the most recent operations in a bounded ring
type MemoryRecorder struct {
	mu       sync.Mutex
	ops      []Operation
	next     int
	full     bool
	capacity int
}

// NewMemoryRecorder creates a recorder holding at most capacity operations
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryRecorder{
		ops:      make([]Operation, capacity),
		capacity: capacity,
	}
}

// Record stores op, overwriting the oldest entry when full
func (r *MemoryRecorder) Record(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[r.next] = op
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
}

// Operations returns the stored operations, oldest first
func (r *MemoryRecorder) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Operation, r.next)
		copy(out, r.ops[:r.next])
		return out
	}
	out := make([]Operation, 0, r.capacity)
	out = append(out, r.ops[r.next:]...)
	out = append(out, r.ops[:r.next]...)
	return out
}

// Len returns the number of stored operations
func (r *MemoryRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return r.capacity
	}
	return r.next
}

// Reset discards every stored operation
func (r *MemoryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = make([]Operation, r.capacity)
	r.next = 0
	r.full = false
}
