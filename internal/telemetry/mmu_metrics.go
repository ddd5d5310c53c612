package internaltelemetry

import (
	"go.opentelemetry.io/otel/metric"
)

// MMUMetrics holds the metric instruments of one memory manager.
type MMUMetrics struct {
	TranslationsCounter  metric.Int64Counter
	PageFaultsCounter    metric.Int64Counter
	EvictionsCounter     metric.Int64Counter
	ResidentPagesCounter metric.Int64UpDownCounter
}

// NewMMUMetrics creates and registers the address translation metrics.
func NewMMUMetrics(meter metric.Meter) (*MMUMetrics, error) {
	translationsCounter, err := meter.Int64Counter(
		"gojovmm.mmu.translations_total",
		metric.WithDescription("Total number of virtual address translations, by result."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	pageFaultsCounter, err := meter.Int64Counter(
		"gojovmm.mmu.page_faults_total",
		metric.WithDescription("Total number of page faults handled."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	evictionsCounter, err := meter.Int64Counter(
		"gojovmm.mmu.evictions_total",
		metric.WithDescription("Total number of resident pages evicted by FIFO replacement."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	residentPagesCounter, err := meter.Int64UpDownCounter(
		"gojovmm.mmu.resident_pages",
		metric.WithDescription("Number of virtual pages currently loaded in a frame."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &MMUMetrics{
		TranslationsCounter:  translationsCounter,
		PageFaultsCounter:    pageFaultsCounter,
		EvictionsCounter:     evictionsCounter,
		ResidentPagesCounter: residentPagesCounter,
	}, nil
}
