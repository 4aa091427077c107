package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
)

// Metrics are the console's counters.
type Metrics struct {
	// browser console requests
	RequestsTotal  uint64
	RequestsFailed uint64 // 5xx

	// latency (nanoseconds)
	RequestLatencySum   uint64
	RequestLatencyCount uint64

	// console actions from the activity feed
	ActionsTotal  uint64
	ActionsFailed uint64
	RunsTotal     uint64
	RunsFailed    uint64

	StartTime time.Time
}

// Monitor collects console metrics.
type Monitor struct {
	metrics *Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	byKind map[entity.ActivityKind]uint64
}

// NewMonitor creates a monitor.
func NewMonitor(logger *zap.Logger) *Monitor {
	return &Monitor{
		metrics: &Metrics{StartTime: time.Now()},
		logger:  logger,
		byKind:  make(map[entity.ActivityKind]uint64),
	}
}

// RecordRequest counts one served request.
func (m *Monitor) RecordRequest(status int, d time.Duration) {
	atomic.AddUint64(&m.metrics.RequestsTotal, 1)
	if status >= 500 {
		atomic.AddUint64(&m.metrics.RequestsFailed, 1)
	}
	atomic.AddUint64(&m.metrics.RequestLatencySum, uint64(d.Nanoseconds()))
	atomic.AddUint64(&m.metrics.RequestLatencyCount, 1)
}

// RecordActivity counts one console action.
func (m *Monitor) RecordActivity(a entity.Activity) {
	atomic.AddUint64(&m.metrics.ActionsTotal, 1)
	if a.Failed() {
		atomic.AddUint64(&m.metrics.ActionsFailed, 1)
	}
	if a.Kind == entity.ActivityWorkflowRun {
		atomic.AddUint64(&m.metrics.RunsTotal, 1)
		if a.Failed() {
			atomic.AddUint64(&m.metrics.RunsFailed, 1)
		}
	}
	m.mu.Lock()
	m.byKind[a.Kind]++
	m.mu.Unlock()
}

// ActionsByKind returns a copy of the per-kind action counts.
func (m *Monitor) ActionsByKind() map[entity.ActivityKind]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[entity.ActivityKind]uint64, len(m.byKind))
	for k, v := range m.byKind {
		out[k] = v
	}
	return out
}

// GetStats returns the current counters.
func (m *Monitor) GetStats() map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	avgLatency := float64(0)
	if count := atomic.LoadUint64(&m.metrics.RequestLatencyCount); count > 0 {
		avgLatency = float64(atomic.LoadUint64(&m.metrics.RequestLatencySum)) / float64(count) / 1e6 // ms
	}

	return map[string]any{
		"uptime_seconds":  time.Since(m.metrics.StartTime).Seconds(),
		"requests_total":  atomic.LoadUint64(&m.metrics.RequestsTotal),
		"requests_failed": atomic.LoadUint64(&m.metrics.RequestsFailed),
		"actions_total":   atomic.LoadUint64(&m.metrics.ActionsTotal),
		"actions_failed":  atomic.LoadUint64(&m.metrics.ActionsFailed),
		"runs_total":      atomic.LoadUint64(&m.metrics.RunsTotal),
		"runs_failed":     atomic.LoadUint64(&m.metrics.RunsFailed),
		"avg_latency_ms":  avgLatency,
		"memory_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"goroutines":      runtime.NumGoroutine(),
	}
}
