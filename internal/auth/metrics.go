package auth

import (
	"sync"
	"time"
)

// LoginMetrics is a point-in-time copy of the login counters.
type LoginMetrics struct {
	StartTime        time.Time `json:"start_time"`
	CodesIssued      int64     `json:"codes_issued"`
	DeliveryFailures int64     `json:"delivery_failures"`
	Verified         int64     `json:"verified"`
	Rejected         int64     `json:"rejected"`
	Lockouts         int64     `json:"lockouts"`
	LastLockout      time.Time `json:"last_lockout,omitempty"`
}

type MetricsCollector struct {
	metrics LoginMetrics
	mu      sync.RWMutex
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: LoginMetrics{StartTime: time.Now().UTC()},
	}
}

func (mc *MetricsCollector) CodeIssued() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics.CodesIssued++
}

func (mc *MetricsCollector) DeliveryFailed() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics.DeliveryFailures++
}

func (mc *MetricsCollector) Verified(ok bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if ok {
		mc.metrics.Verified++
	} else {
		mc.metrics.Rejected++
	}
}

func (mc *MetricsCollector) Lockout(at time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics.Lockouts++
	mc.metrics.LastLockout = at
}

func (mc *MetricsCollector) Snapshot() LoginMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.metrics
}
