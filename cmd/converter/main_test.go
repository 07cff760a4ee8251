package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milexcli/internal/config"
	"milexcli/internal/operations"
	"milexcli/internal/shared/testutil"
)

func TestRun(t *testing.T) {
	t.Setenv("MILEX_LOGGING_LEVEL", "error")

	t.Run("converts sample data", func(t *testing.T) {
		base := t.TempDir()
		testutil.WriteSampleRegions(t, filepath.Join(base, config.DefaultDataDir))

		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-base", base, "-end-year", "1962", "-workers", "2"}, &stdout, &stderr)

		assert.Equal(t, operations.ExitOK, code, stderr.String())
		out := filepath.Join(base, config.DefaultOutputDir)
		for _, name := range []string{
			config.AllDataFileName,
			config.SummaryFileName,
			config.MetadataFileName,
			"year_1960.json",
			"europen.json",
		} {
			assert.FileExists(t, filepath.Join(out, name))
		}
		assert.Contains(t, stdout.String(), "Succeeded: 2/2")
		assert.Contains(t, stdout.String(), "europen.xlsx")
	})

	t.Run("no input", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(base, config.DefaultDataDir), 0755))

		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-base", base}, &stdout, &stderr)

		assert.Equal(t, operations.ExitNoInput, code)
		assert.Contains(t, stdout.String(), "Failed:")
	})

	t.Run("bad flag", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-nope"}, &stdout, &stderr)

		assert.Equal(t, operations.ExitSetupFailure, code)
	})

	t.Run("reversed years", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-base-year", "2000", "-end-year", "1990"}, &stdout, &stderr)

		assert.Equal(t, operations.ExitSetupFailure, code)
		assert.Contains(t, stderr.String(), "precedes base year")
	})

	t.Run("version", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-version"}, &stdout, &stderr)

		assert.Equal(t, operations.ExitOK, code)
		assert.Contains(t, stdout.String(), "converter v")
	})
}
