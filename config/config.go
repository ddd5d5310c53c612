// Package config loads the YAML configuration shared by the gojovmm binaries.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sushant-115/gojovmm/core/paging/mmu"
	"github.com/sushant-115/gojovmm/pkg/logger"
	"github.com/sushant-115/gojovmm/pkg/telemetry"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPageSize   = 1024
	DefaultNumPages   = 8
	DefaultNumFrames  = 4
	DefaultListenAddr = "127.0.0.1:7070"
)

// TLSConfig points at the PEM files used for mutual TLS between the service
// and its clients. TLS is off when CAFile is empty.
type TLSConfig struct {
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

func (c TLSConfig) Enabled() bool { return c.CAFile != "" }

// ServerConfig configures the gRPC MMU service.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// RateLimit is the number of requests per second admitted; 0 means unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	// Burst is the limiter bucket size. Defaults to 1 when a rate is set.
	Burst int       `yaml:"burst"`
	TLS   TLSConfig `yaml:"tls"`
}

// Config is the root of the configuration file.
type Config struct {
	Memory    mmu.Config       `yaml:"memory"`
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Server    ServerConfig     `yaml:"server"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Memory: mmu.Config{
			PageSize:  DefaultPageSize,
			NumPages:  DefaultNumPages,
			NumFrames: DefaultNumFrames,
		},
		Logger: logger.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			ServiceName: "gojovmm",
		},
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
		},
	}
}

// Load reads the file at path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r on top of the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	if c.Memory.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: memory.page_size must be positive, got %d", mmu.ErrInvalidConfig, c.Memory.PageSize))
	}
	if c.Memory.NumPages <= 0 {
		errs = append(errs, fmt.Errorf("%w: memory.num_pages must be positive, got %d", mmu.ErrInvalidConfig, c.Memory.NumPages))
	}
	if c.Memory.NumFrames <= 0 {
		errs = append(errs, fmt.Errorf("%w: memory.num_frames must be positive, got %d", mmu.ErrInvalidConfig, c.Memory.NumFrames))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative, got %g", c.Server.RateLimit))
	}
	if c.Server.Burst < 0 {
		errs = append(errs, fmt.Errorf("server.burst must not be negative, got %d", c.Server.Burst))
	}
	if tls := c.Server.TLS; tls.Enabled() && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls needs cert_file and key_file when ca_file is set"))
	}
	return errors.Join(errs...)
}
