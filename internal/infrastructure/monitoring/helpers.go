package monitoring

import "time"

// GetSnapshot returns current metric values for the JSON API
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}

	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	if snap.TotalRequests > 0 {
		snap.AvgLatencySeconds = snap.totalDuration / float64(snap.TotalRequests)
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
