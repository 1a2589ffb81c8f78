// Package monitoring keeps in-process counters for notify calls.
package monitoring

import (
	"sync"
	"time"
)

// Metrics holds delivery counters per notification shape.
type Metrics struct {
	mu sync.RWMutex

	totalSent    int64
	totalFailed  int64
	totalIgnored int64
	throttled    int64
	sendsByShape map[string]int64
	failsByShape map[string]int64
	failsByCode  map[string]int64
	ignoredBy    map[string]int64
	lastErrors   map[string]string
	avgDuration  time.Duration
	maxDuration  time.Duration
	startTime    time.Time
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	TotalSent    int64             `json:"total_sent"`
	TotalFailed  int64             `json:"total_failed"`
	TotalIgnored int64             `json:"total_ignored"`
	Throttled    int64             `json:"throttled"`
	SuccessRate  float64           `json:"success_rate"`
	SendsByShape map[string]int64  `json:"sends_by_shape"`
	FailsByShape map[string]int64  `json:"fails_by_shape"`
	FailsByCode  map[string]int64  `json:"fails_by_code"`
	IgnoredBy    map[string]int64  `json:"ignored_by_shape"`
	LastErrors   map[string]string `json:"last_errors"`
	AvgDuration  time.Duration     `json:"avg_duration"`
	MaxDuration  time.Duration     `json:"max_duration"`
	Uptime       time.Duration     `json:"uptime"`
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		sendsByShape: make(map[string]int64),
		failsByShape: make(map[string]int64),
		failsByCode:  make(map[string]int64),
		ignoredBy:    make(map[string]int64),
		lastErrors:   make(map[string]string),
		startTime:    time.Now(),
	}
}

// RecordSend records the outcome of one delivery attempt. code and errMsg are
// only used for failures.
func (m *Metrics) RecordSend(shape string, success bool, duration time.Duration, code, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.totalSent++
		m.sendsByShape[shape]++
	} else {
		m.totalFailed++
		m.failsByShape[shape]++
		if code != "" {
			m.failsByCode[code]++
		}
		if errMsg != "" {
			m.lastErrors[shape] = errMsg
		}
	}

	total := m.totalSent + m.totalFailed
	m.avgDuration = time.Duration((int64(m.avgDuration)*(total-1) + int64(duration)) / total)
	if duration > m.maxDuration {
		m.maxDuration = duration
	}
}

// RecordIgnored counts a notification vetoed by the factory.
func (m *Metrics) RecordIgnored(shape string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalIgnored++
	m.ignoredBy[shape]++
}

// RecordThrottled counts a notification dropped by the rate limit.
func (m *Metrics) RecordThrottled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttled++
}

// GetSuccessRate returns the overall success rate
func (m *Metrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRate()
}

func (m *Metrics) successRate() float64 {
	total := m.totalSent + m.totalFailed
	if total == 0 {
		return 1.0
	}
	return float64(m.totalSent) / float64(total)
}

// GetUptime returns the uptime since metrics started
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot returns a copy of the current counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		TotalSent:    m.totalSent,
		TotalFailed:  m.totalFailed,
		TotalIgnored: m.totalIgnored,
		Throttled:    m.throttled,
		SuccessRate:  m.successRate(),
		SendsByShape: copyMap(m.sendsByShape),
		FailsByShape: copyMap(m.failsByShape),
		FailsByCode:  copyMap(m.failsByCode),
		IgnoredBy:    copyMap(m.ignoredBy),
		LastErrors:   copyMap(m.lastErrors),
		AvgDuration:  m.avgDuration,
		MaxDuration:  m.maxDuration,
		Uptime:       m.GetUptime(),
	}
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
