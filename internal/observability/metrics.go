package observability

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineMetrics counts message outcomes for the consumer.
type PipelineMetrics struct {
	processed atomic.Int64
	rejected  atomic.Int64
	retried   atomic.Int64
	startedAt time.Time
}

// PipelineSnapshot is a point-in-time copy of the pipeline counters.
type PipelineSnapshot struct {
	MessagesProcessed int64 `json:"messagesProcessed"`
	MessagesRejected  int64 `json:"messagesRejected"`
	MessagesRetried   int64 `json:"messagesRetried"`
	Uptime            int64 `json:"uptime"`
}

// NewPipelineMetrics starts the uptime clock.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{startedAt: time.Now()}
}

func (m *PipelineMetrics) IncProcessed() {
	if m != nil {
		m.processed.Add(1)
	}
}

func (m *PipelineMetrics) IncRejected() {
	if m != nil {
		m.rejected.Add(1)
	}
}

func (m *PipelineMetrics) IncRetried() {
	if m != nil {
		m.retried.Add(1)
	}
}

// Snapshot returns the counters and uptime in whole seconds.
func (m *PipelineMetrics) Snapshot() PipelineSnapshot {
	if m == nil {
		return PipelineSnapshot{}
	}
	return PipelineSnapshot{
		MessagesProcessed: m.processed.Load(),
		MessagesRejected:  m.rejected.Load(),
		MessagesRetried:   m.retried.Load(),
		Uptime:            int64(time.Since(m.startedAt).Round(time.Second) / time.Second),
	}
}

// Metrics provides basic in-memory HTTP counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Requests returns a copy of the request counters keyed by path|method|status.
func (m *Metrics) Requests() map[string]int64 {
	return m.copyOf(func() map[string]int64 { return m.requestCount })
}

// Errors returns a copy of the error counters keyed by path|method|code.
func (m *Metrics) Errors() map[string]int64 {
	return m.copyOf(func() map[string]int64 { return m.errorCount })
}

func (m *Metrics) copyOf(src func() map[string]int64) map[string]int64 {
	out := make(map[string]int64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range src() {
		out[k] = v
	}
	return out
}

func pathKey(path, method, suffix string) string {
	return path + "|" + method + "|" + suffix
}
