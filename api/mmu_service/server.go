// Package mmuservice serves one shared memory manager over gRPC so that
// several callers can translate addresses against the same tables.
package mmuservice

import (
	"context"
	"errors"
	"time"

	"github.com/sushant-115/gojovmm/core/paging/mmu"
	internaltelemetry "github.com/sushant-115/gojovmm/internal/telemetry"
	"github.com/sushant-115/gojovmm/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Options tunes admission control of the service.
type Options struct {
	// RateLimit is the number of requests per second admitted; 0 means unlimited.
	RateLimit float64
	// Burst is the limiter bucket size. Defaults to 1.
	Burst int
}

// Server implements MMUServer on top of an *mmu.MMU.
type Server struct {
	mmu         *mmu.MMU
	logger      *zap.Logger
	tracer      trace.Tracer
	metrics     *internaltelemetry.RPCMetrics
	limiter     *rate.Limiter
	serviceName string
}

var _ MMUServer = (*Server)(nil)

// NewServer wraps m. tel may come from telemetry.New with telemetry disabled.
func NewServer(m *mmu.MMU, tel *telemetry.Telemetry, logger *zap.Logger, opts Options) (*Server, error) {
	rpcMetrics, err := internaltelemetry.NewRPCMetrics(tel.Meter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		mmu:         m,
		logger:      logger.Named("mmu_service"),
		tracer:      tel.Tracer,
		metrics:     rpcMetrics,
		limiter:     rate.NewLimiter(limit, burst),
		serviceName: ServiceName,
	}, nil
}

// NewGRPCServer builds a grpc.Server with the service registered and its
// interceptor installed. creds may be nil for plaintext.
func NewGRPCServer(s *Server, creds credentials.TransportCredentials) *grpc.Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(s.UnaryInterceptor())}
	if creds != nil {
		opts = append(opts, grpc.Creds(creds))
	}
	gs := grpc.NewServer(opts...)
	gs.RegisterService(&ServiceDesc, s)
	return gs
}

func (s *Server) Translate(ctx context.Context, in *wrapperspb.UInt64Value) (*wrapperspb.UInt64Value, error) {
	pa, err := s.mmu.Translate(ctx, mmu.VirtualAddress(in.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt64(uint64(pa)), nil
}

func (s *Server) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.mmu.Stats()
	return structpb.NewStruct(map[string]any{
		"accesses":       st.Accesses,
		"hits":           st.Hits,
		"faults":         st.Faults,
		"evictions":      st.Evictions,
		"out_of_range":   st.OutOfRange,
		"resident_pages": st.ResidentPages,
	})
}

func (s *Server) Tables(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	tables, err := s.mmu.Tables()
	if err != nil {
		return nil, toStatus(err)
	}

	pages := make([]any, 0, len(tables.Pages))
	for _, pe := range tables.Pages {
		var frame any
		if pe.Valid {
			frame = uint64(pe.Frame)
		}
		pages = append(pages, map[string]any{"page": uint64(pe.Page), "frame": frame})
	}
	frames := make([]any, 0, len(tables.Frames))
	for _, fe := range tables.Frames {
		var page any
		if fe.Occupied {
			page = uint64(fe.Page)
		}
		frames = append(frames, map[string]any{"frame": uint64(fe.Frame), "page": page})
	}
	return structpb.NewStruct(map[string]any{
		"pages":       pages,
		"frames":      frames,
		"next_victim": uint64(tables.NextVictim),
	})
}

// toStatus maps memory manager errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, mmu.ErrAddressOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, mmu.ErrShutdown):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// UnaryInterceptor applies the rate limit and records metrics and a span for
// every call.
func (s *Server) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		metricCtx, span, startTime := s.StartMetricsAndTrace(ctx, info.FullMethod)

		var resp any
		var err error
		if !s.limiter.Allow() {
			err = status.Error(codes.ResourceExhausted, "rate limit exceeded")
		} else {
			resp, err = handler(metricCtx, req)
		}

		code := status.Code(err)
		if code != codes.OK && code != codes.OutOfRange {
			s.logger.Warn("rpc failed", zap.String("method", info.FullMethod), zap.Error(err))
		}
		s.EndMetricsAndTrace(metricCtx, span, startTime, info.FullMethod, code)
		return resp, err
	}
}

// StartMetricsAndTrace begins the telemetry recording for a gRPC method.
// It returns a new context, the trace span, and the start time.
func (s *Server) StartMetricsAndTrace(ctx context.Context, fullMethodName string) (context.Context, trace.Span, time.Time) {
	startTime := time.Now()
	attrs := metric.WithAttributes(
		attribute.String("grpc.service", s.serviceName),
		attribute.String("grpc.method", fullMethodName),
	)
	s.metrics.ActiveRpcsUpDownCounter.Add(ctx, 1, attrs)
	s.metrics.RpcsStartedCounter.Add(ctx, 1, attrs)

	ctx, span := s.tracer.Start(ctx, fullMethodName, trace.WithAttributes(
		attribute.String("grpc.service", s.serviceName),
		attribute.String("grpc.method", fullMethodName),
	))
	return ctx, span, startTime
}

// EndMetricsAndTrace completes the telemetry recording for a gRPC method.
func (s *Server) EndMetricsAndTrace(ctx context.Context, span trace.Span, startTime time.Time, fullMethodName string, code codes.Code) {
	latency := float64(time.Since(startTime).Microseconds()) / 1000

	if code != codes.OK {
		span.SetStatus(otelcodes.Error, code.String())
	} else {
		span.SetStatus(otelcodes.Ok, "Success")
	}
	span.End()

	s.metrics.ActiveRpcsUpDownCounter.Add(ctx, -1, metric.WithAttributes(
		attribute.String("grpc.service", s.serviceName),
		attribute.String("grpc.method", fullMethodName),
	))

	metricAttributes := attribute.NewSet(
		attribute.String("grpc.service", s.serviceName),
		attribute.String("grpc.method", fullMethodName),
		attribute.String("grpc.code", code.String()),
	)
	s.metrics.RpcLatencyHistogram.Record(ctx, latency, metric.WithAttributeSet(metricAttributes))
	s.metrics.RpcsHandledCounter.Add(ctx, 1, metric.WithAttributeSet(metricAttributes))
}
