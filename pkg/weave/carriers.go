package weave

import "sync"

// URLCarrier exposes the connection URL trace variable
type URLCarrier interface {
	TraceURL() string
	SetTraceURL(url string)
}

// SQLCarrier exposes the SQL text trace variable
type SQLCarrier interface {
	TraceSQL() string
	SetTraceSQL(sql string)
}

// BindValueCarrier exposes the bind value trace variable
type BindValueCarrier interface {
	TraceBindValues() *BindValueMap
	SetTraceBindValues(values *BindValueMap)
}

// TraceState implements every carrier interface. Wrappers composed at
// runtime embed it; generated decorators declare their own fields instead.
type TraceState struct {
	mu         sync.RWMutex
	url        string
	sql        string
	bindValues *BindValueMap
}

// NewTraceState creates state for url with an empty bind map
func NewTraceState(url string) *TraceState {
	return &TraceState{url: url, bindValues: NewBindValueMap()}
}

func (s *TraceState) TraceURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

func (s *TraceState) SetTraceURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

func (s *TraceState) TraceSQL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sql
}

func (s *TraceState) SetTraceSQL(sql string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sql = sql
}

func (s *TraceState) TraceBindValues() *BindValueMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindValues
}

func (s *TraceState) SetTraceBindValues(values *BindValueMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindValues = values
}
