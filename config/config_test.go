package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/gojovmm/core/paging/mmu"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gojovmm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_MatchesReferenceSizes(t *testing.T) {
	cfg := Default()
	require.Equal(t, mmu.Config{PageSize: 1024, NumPages: 8, NumFrames: 4}, cfg.Memory)
	require.NoError(t, cfg.Validate())
	require.False(t, cfg.Telemetry.Enabled)
	require.False(t, cfg.Server.TLS.Enabled())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
memory:
  page_size: 4096
  num_pages: 64
logger:
  level: debug
  format: json
telemetry:
  enabled: true
  metrics_addr: ":9464"
server:
  listen_addr: "0.0.0.0:7000"
  rate_limit: 250
  burst: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 4096, cfg.Memory.PageSize)
	require.Equal(t, 64, cfg.Memory.NumPages)
	require.Equal(t, DefaultNumFrames, cfg.Memory.NumFrames)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, "json", cfg.Logger.Format)
	require.Equal(t, "stderr", cfg.Logger.OutputFile)
	require.True(t, cfg.Telemetry.Enabled)
	require.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)
	require.Equal(t, "gojovmm", cfg.Telemetry.ServiceName)
	require.Equal(t, "0.0.0.0:7000", cfg.Server.ListenAddr)
	require.Equal(t, 250.0, cfg.Server.RateLimit)
	require.Equal(t, 10, cfg.Server.Burst)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_RejectsNonPositiveSizes(t *testing.T) {
	path := writeConfig(t, `
memory:
  page_size: 0
  num_pages: -2
  num_frames: 0
`)
	_, err := Load(path)
	require.ErrorIs(t, err, mmu.ErrInvalidConfig)
	for _, key := range []string{"memory.page_size", "memory.num_pages", "memory.num_frames"} {
		require.Contains(t, err.Error(), key)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "memory:\n  num_frame: 4\n"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "num_frame"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_ServerSettings(t *testing.T) {
	cfg := Default()
	cfg.Server.RateLimit = -1
	cfg.Server.Burst = -1
	cfg.Server.TLS = TLSConfig{CAFile: "ca.crt"}

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.rate_limit")
	require.Contains(t, err.Error(), "server.burst")
	require.Contains(t, err.Error(), "server.tls")
	require.NotErrorIs(t, err, mmu.ErrInvalidConfig)
}
