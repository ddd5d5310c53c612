package config

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/gojovmm/core/paging/mmu"
)

func parseFlags(t *testing.T, args ...string) (*flag.FlagSet, *Flags) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs, f
}

func TestFlags_DefaultsWithoutFile(t *testing.T) {
	fs, f := parseFlags(t)
	cfg, err := f.Resolve(fs)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestFlags_OverrideFile(t *testing.T) {
	path := writeConfig(t, "memory:\n  num_pages: 32\n  num_frames: 8\nlogger:\n  level: warn\n")
	fs, f := parseFlags(t, "-config", path, "-frames", "2", "-log-level", "debug")

	cfg, err := f.Resolve(fs)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.Memory.NumPages)
	require.Equal(t, 2, cfg.Memory.NumFrames)
	require.Equal(t, DefaultPageSize, cfg.Memory.PageSize)
	require.Equal(t, "debug", cfg.Logger.Level)
}

func TestFlags_UnsetFlagsKeepFileValues(t *testing.T) {
	path := writeConfig(t, "memory:\n  page_size: 512\n")
	fs, f := parseFlags(t, "-config", path)

	cfg, err := f.Resolve(fs)
	require.NoError(t, err)
	require.Equal(t, 512, cfg.Memory.PageSize)
}

func TestFlags_RejectNonPositive(t *testing.T) {
	fs, f := parseFlags(t, "-pages", "0")
	_, err := f.Resolve(fs)
	require.ErrorIs(t, err, mmu.ErrInvalidConfig)
}
