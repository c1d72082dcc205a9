package metrics

import (
	"sort"
	"sync"
	"time"

	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
)

// ToolStats is a snapshot of one tool's counters.
type ToolStats struct {
	Tool        string         `json:"tool"`
	Calls       int64          `json:"calls"`
	Failures    int64          `json:"failures"`
	ByKind      map[string]int `json:"failures_by_kind"`
	AvgDuration float64        `json:"avg_duration_seconds"`
}

type toolCounters struct {
	calls    int64
	failures int64
	byKind   map[errs.Kind]int
	duration time.Duration
}

// ToolMetrics tracks calls, failures and latency per tool.
type ToolMetrics struct {
	mu    sync.RWMutex
	tools map[string]*toolCounters
}

// NewToolMetrics creates a new ToolMetrics instance
func NewToolMetrics() *ToolMetrics {
	return &ToolMetrics{tools: map[string]*toolCounters{}}
}

/*
Record counts one finished call. A non-nil err is counted as a failure under
its taxonomy kind.
*/
func (m *ToolMetrics) Record(tool string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters, ok := m.tools[tool]

	if !ok {
		counters = &toolCounters{byKind: map[errs.Kind]int{}}
		m.tools[tool] = counters
	}

	counters.calls++
	counters.duration += duration

	if err != nil {
		counters.failures++
		counters.byKind[errs.KindOf(err)]++
	}
}

// Snapshot returns the current counters ordered by tool name.
func (m *ToolMetrics) Snapshot() []ToolStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ToolStats, 0, len(m.tools))

	for name, counters := range m.tools {
		stats := ToolStats{
			Tool:     name,
			Calls:    counters.calls,
			Failures: counters.failures,
			ByKind:   map[string]int{},
		}

		for kind, n := range counters.byKind {
			stats.ByKind[kind.String()] = n
		}

		if counters.calls > 0 {
			stats.AvgDuration = counters.duration.Seconds() / float64(counters.calls)
		}

		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}

// Reset clears all counters.
func (m *ToolMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tools = map[string]*toolCounters{}
}
