package aggregates

import (
	"time"

	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// NewMetricsHooks reports to Prometheus. A nil metrics value yields no-op hooks.
func NewMetricsHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{m: metrics}
}

type metricsHooks struct{ m *observability.Metrics }

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(name, status, dur)
}
func (h metricsHooks) IncConflict(name string) { h.m.IncAggregateConflict(name) }
func (h metricsHooks) IncRetry(name string)    { h.m.IncAggregateRetry(name) }

// NewLogHooks logs concurrency losses, which are expected under contention
// and otherwise invisible.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return logHooks{log: log.With("component", "aggregates")}
}

type logHooks struct{ log *logger.Logger }

func (logHooks) ObserveOperation(string, string, time.Duration) {}
func (h logHooks) IncConflict(name string)                      { h.log.Info("aggregate conflict", "op", name) }
func (h logHooks) IncRetry(name string)                         { h.log.Info("aggregate retryable failure", "op", name) }

// Fanout delivers every event to each of hs in order.
func Fanout(hs ...Hooks) Hooks {
	out := make(fanout, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

type fanout []Hooks

func (f fanout) ObserveOperation(name, status string, dur time.Duration) {
	for _, h := range f {
		h.ObserveOperation(name, status, dur)
	}
}

func (f fanout) IncConflict(name string) {
	for _, h := range f {
		h.IncConflict(name)
	}
}

func (f fanout) IncRetry(name string) {
	for _, h := range f {
		h.IncRetry(name)
	}
}
