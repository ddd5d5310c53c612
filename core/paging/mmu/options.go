package mmu

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option customizes a memory manager.
type Option func(*MMU)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *MMU) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracer sets the tracer used for translation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *MMU) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// WithMeter sets the meter the translation metrics are registered on.
func WithMeter(meter metric.Meter) Option {
	return func(m *MMU) {
		if meter != nil {
			m.meter = meter
		}
	}
}

// WithRunID overrides the generated simulation run id.
func WithRunID(id string) Option {
	return func(m *MMU) {
		if id != "" {
			m.runID = id
		}
	}
}
