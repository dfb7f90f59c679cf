package metrics

import (
	"sync/atomic"
	"time"
)

// WarmingMetrics tracks cache warming scheduler activity for the ops
// endpoints and the alert evaluator. Prometheus series for the same
// events live on the Metrics singleton.
type WarmingMetrics struct {
	PassCount      int64
	OperationCount int64
	FailureCount   int64
	lastPassUnix   int64
	lastDurationMs int64
}

// NewWarmingMetrics creates a new warming metrics tracker
func NewWarmingMetrics() *WarmingMetrics {
	return &WarmingMetrics{}
}

// RecordPass records a completed warming pass
func (wm *WarmingMetrics) RecordPass(duration time.Duration) {
	atomic.AddInt64(&wm.PassCount, 1)
	atomic.StoreInt64(&wm.lastPassUnix, time.Now().Unix())
	atomic.StoreInt64(&wm.lastDurationMs, duration.Milliseconds())
}

// RecordOperation records a single warm operation outcome
func (wm *WarmingMetrics) RecordOperation(err error) {
	atomic.AddInt64(&wm.OperationCount, 1)
	if err != nil {
		atomic.AddInt64(&wm.FailureCount, 1)
	}
}

// LastPassAt returns when the last pass completed, zero if none ran yet
func (wm *WarmingMetrics) LastPassAt() time.Time {
	unix := atomic.LoadInt64(&wm.lastPassUnix)
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// GetStats returns current metrics as a map
func (wm *WarmingMetrics) GetStats() map[string]interface{} {
	opCount := atomic.LoadInt64(&wm.OperationCount)
	failures := atomic.LoadInt64(&wm.FailureCount)

	var failureRate float64
	if opCount > 0 {
		failureRate = float64(failures) / float64(opCount) * 100
	}

	return map[string]interface{}{
		"pass_count":       atomic.LoadInt64(&wm.PassCount),
		"operation_count":  opCount,
		"failure_count":    failures,
		"failure_rate":     failureRate,
		"last_pass_at":     atomic.LoadInt64(&wm.lastPassUnix),
		"last_duration_ms": atomic.LoadInt64(&wm.lastDurationMs),
	}
}

// Reset clears all metrics
func (wm *WarmingMetrics) Reset() {
	atomic.StoreInt64(&wm.PassCount, 0)
	atomic.StoreInt64(&wm.OperationCount, 0)
	atomic.StoreInt64(&wm.FailureCount, 0)
	atomic.StoreInt64(&wm.lastPassUnix, 0)
	atomic.StoreInt64(&wm.lastDurationMs, 0)
}
