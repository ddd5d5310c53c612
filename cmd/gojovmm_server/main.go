package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	mmuservice "github.com/sushant-115/gojovmm/api/mmu_service"
	"github.com/sushant-115/gojovmm/config"
	"github.com/sushant-115/gojovmm/config/certs"
	"github.com/sushant-115/gojovmm/core/paging/mmu"
	"github.com/sushant-115/gojovmm/pkg/logger"
	"github.com/sushant-115/gojovmm/pkg/telemetry"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

const telemetryStopTimeout = 5 * time.Second

var (
	listenAddr  = flag.String("listen_addr", "", "gRPC bind address (overrides server.listen_addr)")
	metricsAddr = flag.String("metrics_addr", "", "Prometheus /metrics bind address; enables telemetry")
	genCerts    = flag.String("gen_certs", "", "Write a CA, server and client certificate into this directory and exit")
)

func main() {
	cfgFlags := config.BindFlags(flag.CommandLine)
	flag.Parse()

	if *genCerts != "" {
		if err := certs.Generate(*genCerts); err != nil {
			fmt.Fprintf(os.Stderr, "gojovmm_server: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Certificates written to %s\n", *genCerts)
		return
	}

	cfg, err := cfgFlags.Resolve(flag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojovmm_server: %v\n", err)
		os.Exit(2)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *metricsAddr != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.MetricsAddr = *metricsAddr
	}

	zlogger, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojovmm_server: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zlogger.Sync()

	if err := serve(cfg, zlogger); err != nil {
		zlogger.Error("Server exited with error", zap.Error(err))
		zlogger.Sync()
		os.Exit(1)
	}
}

func serve(cfg config.Config, zlogger *zap.Logger) error {
	tel, shutdownTelemetry, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryStopTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			zlogger.Error("Error during telemetry shutdown", zap.Error(err))
		}
	}()
	if addr := tel.MetricsAddr(); addr != "" {
		zlogger.Info("Metrics endpoint listening", zap.String("address", addr))
	}

	m, err := mmu.New(cfg.Memory, mmu.WithLogger(zlogger), mmu.WithTracer(tel.Tracer), mmu.WithMeter(tel.Meter))
	if err != nil {
		return err
	}
	defer m.Shutdown()

	srv, err := mmuservice.NewServer(m, tel, zlogger, mmuservice.Options{
		RateLimit: cfg.Server.RateLimit,
		Burst:     cfg.Server.Burst,
	})
	if err != nil {
		return fmt.Errorf("failed to create MMU service: %w", err)
	}

	var creds credentials.TransportCredentials
	if t := cfg.Server.TLS; t.Enabled() {
		tlsConfig, err := certs.LoadServerTLSConfig(t.CAFile, t.CertFile, t.KeyFile)
		if err != nil {
			return err
		}
		creds = credentials.NewTLS(tlsConfig)
	}
	grpcServer := mmuservice.NewGRPCServer(srv, creds)

	lis, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddr, err)
	}

	setupSignalHandling(grpcServer, zlogger)

	zlogger.Info("gRPC server starting",
		zap.String("address", lis.Addr().String()),
		zap.Bool("tls", creds != nil),
		zap.String("run_id", m.RunID()))
	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server failed to serve: %w", err)
	}
	zlogger.Info("gRPC server stopped gracefully.")
	return nil
}

// setupSignalHandling stops the gRPC server on SIGINT or SIGTERM, letting
// in-flight translations finish.
func setupSignalHandling(grpcServer *grpc.Server, zlogger *zap.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		zlogger.Info("Received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		grpcServer.GracefulStop()
	}()
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\nServes one shared memory manager over gRPC.\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}
