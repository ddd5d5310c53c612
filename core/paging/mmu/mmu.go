// Package mmu translates virtual addresses into physical ones for a single
// simulated process, loading pages on demand and replacing them in FIFO order.
package mmu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sushant-115/gojovmm/core/paging"
	"github.com/sushant-115/gojovmm/core/paging/frametable"
	"github.com/sushant-115/gojovmm/core/paging/pagetable"
	internaltelemetry "github.com/sushant-115/gojovmm/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// VirtualAddress is an address as seen by the simulated process.
type VirtualAddress uint64

// PhysicalAddress is an address in simulated physical memory.
type PhysicalAddress uint64

// Config sizes the simulation. All values are fixed for the lifetime of an MMU.
type Config struct {
	// PageSize is the number of bytes per page and per frame.
	PageSize int `yaml:"page_size"`
	// NumPages is the number of virtual pages of the process.
	NumPages int `yaml:"num_pages"`
	// NumFrames is the number of physical frames.
	NumFrames int `yaml:"num_frames"`
}

// Validate reports the first non-positive size.
func (c Config) Validate() error {
	switch {
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	case c.NumPages <= 0:
		return fmt.Errorf("%w: number of pages must be positive, got %d", ErrInvalidConfig, c.NumPages)
	case c.NumFrames <= 0:
		return fmt.Errorf("%w: number of frames must be positive, got %d", ErrInvalidConfig, c.NumFrames)
	}
	return nil
}

// MMU owns the page table and the frame table of one simulation. A single
// mutex covers both tables: every fault touches both, and the whole
// select/evict/load/occupy/advance sequence must look atomic to concurrent
// callers.
type MMU struct {
	mu     sync.Mutex
	cfg    Config
	pages  *pagetable.PageTable
	frames *frametable.FrameTable
	stats  Stats

	runID   string
	logger  *zap.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *internaltelemetry.MMUMetrics
}

// New validates cfg and allocates both tables. Nothing is allocated when the
// configuration is rejected.
func New(cfg Config, opts ...Option) (*MMU, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &MMU{
		cfg:    cfg,
		runID:  uuid.New().String(),
		logger: zap.NewNop(),
		tracer: nooptrace.NewTracerProvider().Tracer(""),
		meter:  noop.NewMeterProvider().Meter(""),
	}
	for _, opt := range opts {
		opt(m)
	}

	metrics, err := internaltelemetry.NewMMUMetrics(m.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create mmu metrics: %w", err)
	}
	m.metrics = metrics

	if m.pages, err = pagetable.New(cfg.NumPages); err != nil {
		return nil, err
	}
	if m.frames, err = frametable.New(cfg.NumFrames); err != nil {
		return nil, err
	}

	m.logger = m.logger.With(zap.String("run_id", m.runID))
	m.logger.Info("memory manager initialized",
		zap.Int("num_pages", cfg.NumPages),
		zap.Int("num_frames", cfg.NumFrames),
		zap.Int("page_size", cfg.PageSize))
	return m, nil
}

func (m *MMU) Config() Config { return m.cfg }

// RunID identifies this simulation in logs.
func (m *MMU) RunID() string { return m.runID }

// Translate resolves va into a physical address, handling a page fault first
// when the page is not resident. An address whose page is beyond the virtual
// address space yields an *AddressOutOfRangeError and leaves the tables
// untouched.
func (m *MMU) Translate(ctx context.Context, va VirtualAddress) (PhysicalAddress, error) {
	ctx, span := m.tracer.Start(ctx, "mmu.Translate", trace.WithAttributes(
		attribute.Int64("mmu.virtual_address", int64(va)),
	))
	defer span.End()

	pa, hit, err := m.translate(ctx, va)
	result := "hit"
	switch {
	case err != nil:
		result = "error"
		var rangeErr *AddressOutOfRangeError
		if errors.As(err, &rangeErr) {
			result = "out_of_range"
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	case !hit:
		result = "fault"
	}
	if err == nil {
		span.SetAttributes(attribute.Int64("mmu.physical_address", int64(pa)), attribute.Bool("mmu.hit", hit))
		span.SetStatus(otelcodes.Ok, "")
	}
	m.metrics.TranslationsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	return pa, err
}

func (m *MMU) translate(ctx context.Context, va VirtualAddress) (PhysicalAddress, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pages == nil {
		return 0, false, ErrShutdown
	}

	pageSize := uint64(m.cfg.PageSize)
	pageIdx := uint64(va) / pageSize
	offset := uint64(va) % pageSize

	if pageIdx >= uint64(m.cfg.NumPages) {
		m.stats.OutOfRange++
		m.logger.Warn("invalid virtual address", zap.Uint64("virtual_address", uint64(va)), zap.Uint64("page", pageIdx))
		return 0, false, &AddressOutOfRangeError{VirtualAddress: va, Page: pageIdx, NumPages: m.cfg.NumPages}
	}

	m.stats.Accesses++
	page := paging.PageID(pageIdx)
	hit := m.pages.IsResident(page)
	if hit {
		m.stats.Hits++
	} else {
		m.handlePageFault(ctx, page)
	}

	frame, ok := m.pages.Frame(page)
	if !ok {
		panic(fmt.Sprintf("mmu: page %d not resident after fault handling", page))
	}
	pa := PhysicalAddress(uint64(frame)*pageSize + offset)
	m.logger.Debug("translated address",
		zap.Uint64("virtual_address", uint64(va)),
		zap.Uint64("physical_address", uint64(pa)),
		zap.Bool("hit", hit))
	return pa, hit, nil
}

// handlePageFault installs page in the next FIFO frame, evicting its current
// occupant. Must be called with m.mu held.
func (m *MMU) handlePageFault(ctx context.Context, page paging.PageID) {
	m.stats.Faults++
	m.metrics.PageFaultsCounter.Add(ctx, 1)
	m.logger.Debug("page fault", zap.Uint64("page", uint64(page)))

	frame, evicted, occupied := m.frames.SelectVictim()
	if occupied {
		m.pages.MarkEvicted(evicted)
		m.stats.Evictions++
		m.metrics.EvictionsCounter.Add(ctx, 1)
		m.logger.Debug("replacing page", zap.Uint64("page", uint64(evicted)), zap.Uint64("frame", uint64(frame)))
	} else {
		m.metrics.ResidentPagesCounter.Add(ctx, 1)
	}
	m.pages.MarkLoaded(page, frame)
	m.frames.Occupy(frame, page)
	m.frames.Advance()
}

// Shutdown releases both tables. Later translations fail with ErrShutdown.
// Calling it more than once is harmless.
func (m *MMU) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pages == nil {
		return
	}
	resident := m.pages.Resident()
	m.pages = nil
	m.frames = nil
	m.metrics.ResidentPagesCounter.Add(context.Background(), -int64(resident))
	m.logger.Info("memory manager shut down",
		zap.Uint64("accesses", m.stats.Accesses),
		zap.Uint64("faults", m.stats.Faults))
}
