package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"milexcli/internal/config"
)

func testPaths(t *testing.T, inputDir string) *config.Paths {
	t.Helper()
	out := filepath.Join(t.TempDir(), "output")
	return &config.Paths{
		BaseDir:      filepath.Dir(out),
		DataDir:      inputDir,
		InputDir:     inputDir,
		OutputDir:    out,
		MergedFile:   filepath.Join(inputDir, config.DefaultMergedFile),
		AllDataJSON:  filepath.Join(out, config.AllDataFileName),
		SummaryJSON:  filepath.Join(out, config.SummaryFileName),
		MetadataJSON: filepath.Join(out, config.MetadataFileName),
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func readText(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
