package http

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/navigator/internal/domain/navigator"
	"github.com/GriffinCanCode/AgentOS/navigator/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackPageOperation times a navigator call made on behalf of an HTTP client.
// The returned func records the outcome.
func (hm *HandlerMetrics) TrackPageOperation(operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		status := "success"
		if err != nil {
			status = navigator.Code(err)
		}
		hm.metrics.RecordServiceCall("navigator_api", operation, status, time.Since(start))
	}
}

// TrackServiceOperation times a registry call
func (hm *HandlerMetrics) TrackServiceOperation(operation string) func() {
	start := time.Now()
	return func() {
		hm.metrics.RecordServiceCall("service_registry", operation, "success", time.Since(start))
	}
}
