package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	mmuservice "github.com/sushant-115/gojovmm/api/mmu_service"
	"github.com/sushant-115/gojovmm/config"
	"github.com/sushant-115/gojovmm/config/certs"
	"github.com/sushant-115/gojovmm/core/paging/mmu"
	"github.com/sushant-115/gojovmm/internal/driver"
	"github.com/sushant-115/gojovmm/pkg/logger"
	"github.com/sushant-115/gojovmm/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("gojovmm", flag.ContinueOnError)
	cfgFlags := config.BindFlags(fs)
	tracePath := fs.String("trace", "", "Replay addresses from a trace file ('-' for stdin)")
	keepGoing := fs.Bool("keep-going", false, "Report out-of-range addresses and continue")
	zeroQuits := fs.Bool("zero-quits", false, "Treat address 0 as the end of input")
	remote := fs.String("remote", "", "Translate against a gojovmm_server at this address")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := cfgFlags.Resolve(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojovmm: %v\n", err)
		return 2
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gojovmm: failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	tel, shutdownTelemetry, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		log.Error("Failed to initialize telemetry", zap.Error(err))
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	backend, closeBackend, err := openBackend(cfg, *remote, tel, log)
	if err != nil {
		log.Error("Failed to initialize memory manager", zap.Error(err))
		return 1
	}
	defer closeBackend()

	session := driver.NewSession(backend, stdout, log, driver.Options{KeepGoing: *keepGoing, ZeroQuits: *zeroQuits})
	ctx := context.Background()

	switch {
	case *tracePath != "":
		err = replay(ctx, session, *tracePath, stdin)
	case fs.NArg() > 0:
		err = session.Execute(ctx, strings.Join(fs.Args(), " "))
	default:
		err = interactive(ctx, session, stdin, stdout)
	}

	if err != nil && !errors.Is(err, driver.ErrQuit) {
		log.Error("Simulation aborted", zap.Error(err))
		return 1
	}
	return 0
}

// openBackend returns the in-process memory manager or a client for a remote
// one, plus a func that releases it.
func openBackend(cfg config.Config, remote string, tel *telemetry.Telemetry, log *zap.Logger) (driver.Backend, func(), error) {
	if remote == "" {
		m, err := mmu.New(cfg.Memory, mmu.WithLogger(log), mmu.WithTracer(tel.Tracer), mmu.WithMeter(tel.Meter))
		if err != nil {
			return nil, nil, err
		}
		return driver.Local{MMU: m}, m.Shutdown, nil
	}

	tlsCfg := cfg.Server.TLS
	var client *mmuservice.Client
	var err error
	if tlsCfg.Enabled() {
		clientTLS, tlsErr := certs.LoadClientTLSConfig(tlsCfg.CAFile, tlsCfg.CertFile, tlsCfg.KeyFile)
		if tlsErr != nil {
			return nil, nil, tlsErr
		}
		client, err = mmuservice.Dial(remote, clientTLS)
	} else {
		client, err = mmuservice.Dial(remote, nil)
	}
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using remote memory manager", zap.String("addr", remote), zap.Bool("tls", tlsCfg.Enabled()))
	return client, func() { _ = client.Close() }, nil
}

func replay(ctx context.Context, session *driver.Session, path string, stdin io.Reader) error {
	if path == "-" {
		return session.Replay(ctx, stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()
	return session.Replay(ctx, f)
}

func interactive(ctx context.Context, session *driver.Session, stdin io.Reader, stdout io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gojovmm> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".gojovmm_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(stdin),
		Stdout:          stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to start prompt: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(stdout, "gojovmm (interactive mode). Enter virtual addresses, 'help' for commands, 'exit' or 'quit' to leave.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := session.Execute(ctx, line); err != nil {
			return err
		}
	}
}
