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
	"milexcli/internal/shared/testutil"
)

func sampleBase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteSampleRegions(t, filepath.Join(dir, config.DefaultDataDir))
	return dir
}

func runQuery(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Commands(t *testing.T) {
	t.Setenv("MILEX_LOGGING_LEVEL", "error")
	base := sampleBase(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "top",
			args:     []string{"top", "-year", "1960", "-n", "3"},
			contains: []string{"Beta", "300.00", "Alpha", "India"},
		},
		{
			name:     "growth",
			args:     []string{"growth", "-country", "Alpha", "-start", "1960", "-end", "1962"},
			contains: []string{"Alpha 1960-1962: 41.42% per year"},
		},
		{
			name:     "compare",
			args:     []string{"compare", "-countries", "Alpha, Brazil", "-start", "1960", "-end", "1961"},
			contains: []string{"Alpha", "Brazil", "1961", "150.00"},
		},
		{
			name:     "compare with open ended range",
			args:     []string{"compare", "-countries", "Alpha", "-start", "1961", "-end", "1099511627776"},
			contains: []string{"Alpha", "1962", "200.00"},
		},
		{
			name:     "regional total",
			args:     []string{"regional", "-year", "1962", "-region", "american"},
			contains: []string{"Americas (american) 1962: 260.00"},
		},
		{
			name:     "regional breakdown",
			args:     []string{"regional", "-year", "1960"},
			contains: []string{"europen", "Europe", "340.00"},
		},
		{
			name:     "trend",
			args:     []string{"trend", "-start", "1960", "-end", "1961"},
			contains: []string{"1960", "605.00"},
		},
		{
			name:     "summary",
			args:     []string{"summary", "-year", "1960"},
			contains: []string{"Total", "605.00", "Countries"},
		},
		{
			name:     "countries",
			args:     []string{"countries"},
			contains: []string{"Nigeria", "Japan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runQuery(t, append([]string{"-base", base}, tt.args...)...)
			require.Equal(t, exitOK, code, stderr)
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestRun_CSVExport(t *testing.T) {
	t.Setenv("MILEX_LOGGING_LEVEL", "error")
	base := sampleBase(t)
	out := filepath.Join(t.TempDir(), "top.csv")

	code, stdout, stderr := runQuery(t, "-base", base, "top", "-year", "1960", "-n", "2", "-csv", out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, "Rank,Country,Region,Expenditure\n1,Beta,Europe,300.00\n2,Alpha,Americas,100.00\n", string(data[3:]))
}

func TestRun_CompareCSVUsesTableLayout(t *testing.T) {
	t.Setenv("MILEX_LOGGING_LEVEL", "error")
	base := sampleBase(t)
	out := filepath.Join(t.TempDir(), "compare.csv")

	code, _, stderr := runQuery(t, "-base", base, "compare", "-countries", "Beta", "-start", "1960", "-end", "1962", "-csv", out)
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Country,Region,1960,1961,1962\nBeta,europen,300.00,,300.00\n", string(data[3:]))
}

func TestRun_Failures(t *testing.T) {
	t.Setenv("MILEX_LOGGING_LEVEL", "error")
	base := sampleBase(t)

	tests := []struct {
		name      string
		args      []string
		wantCode  int
		wantError string
	}{
		{"no command", nil, exitUsage, "Usage"},
		{"unknown command", []string{"plot"}, exitUsage, `unknown command "plot"`},
		{"missing year", []string{"top"}, exitUsage, "-year is required"},
		{"unknown country", []string{"growth", "-country", "Atlantis", "-start", "1960", "-end", "1962"}, exitError, "Atlantis"},
		{"invalid region", []string{"regional", "-year", "1960", "-region", "asian"}, exitError, "Error:"},
		{"undefined growth", []string{"growth", "-country", "Beta", "-start", "1960", "-end", "1961"}, exitError, "Error:"},
		{"stray argument", []string{"countries", "extra"}, exitUsage, "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runQuery(t, append([]string{"-base", base}, tt.args...)...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantError)
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runQuery(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "query v")
}
