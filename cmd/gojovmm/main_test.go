package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_OneShotAddresses(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-log-level", "error", "0", "4096"}, strings.NewReader(""), &out)
	require.Equal(t, 0, code)
	require.Equal(t,
		"Accessing virtual address: 0\nTranslated to physical address: 0\n"+
			"Accessing virtual address: 4096\nTranslated to physical address: 1024\n",
		out.String())
}

func TestRun_TraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte("0\n1024\n2048\n3072\n4096\n0\n"), 0o644))

	var out bytes.Buffer
	code := run([]string{"-log-level", "error", "-trace", path}, strings.NewReader(""), &out)
	require.Equal(t, 0, code)
	require.True(t, strings.HasSuffix(out.String(), "Accessing virtual address: 0\nTranslated to physical address: 1024\n"))
}

func TestRun_TraceFromStdin(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-log-level", "error", "-trace", "-", "-page-size", "100"}, strings.NewReader("250\n"), &out)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "Translated to physical address: 50")
}

func TestRun_OutOfRangeExitsNonZero(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"-log-level", "error", "-pages", "2", "5000"}, strings.NewReader(""), &out)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "Invalid virtual address: 5000")

	out.Reset()
	code = run([]string{"-log-level", "error", "-pages", "2", "-keep-going", "5000"}, strings.NewReader(""), &out)
	require.Equal(t, 0, code)
}

func TestRun_BadConfiguration(t *testing.T) {
	require.Equal(t, 2, run([]string{"-frames", "0"}, strings.NewReader(""), &bytes.Buffer{}))
	require.Equal(t, 2, run([]string{"-no-such-flag"}, strings.NewReader(""), &bytes.Buffer{}))
	require.Equal(t, 1, run([]string{"-log-level", "error", "-trace", "/does/not/exist"}, strings.NewReader(""), &bytes.Buffer{}))
}
