package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes rows into the first sheet of a new workbook at path.
// Rows are written verbatim starting at A1, without a header.
func WriteWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, f.SaveAs(path))
}

// SampleRegions returns a small data set keyed by region file base name.
// Values start at 1960.
func SampleRegions() map[string][][]any {
	return map[string][][]any{
		"african": {
			{"Nigeria", 10.0, 12.0, "..."},
			{"Kenya", 5.0, "xx", 7.0},
		},
		"american": {
			{"Alpha", 100.0, 150.0, 200.0},
			{"Brazil", 50.0, 55.0, 60.0},
		},
		"aisan": {
			{"India", 80.0, 90.0, 100.0},
		},
		"europen": {
			{"Beta", 300.0, "...", 300.0},
			{"France", 40.0, 42.0, ""},
		},
		"easternasian": {
			{"Japan", 20.0, 25.0, 30.0},
		},
	}
}

// WriteSampleRegions writes SampleRegions into dir as <region>.xlsx files.
func WriteSampleRegions(t *testing.T, dir string) {
	t.Helper()
	for region, rows := range SampleRegions() {
		WriteWorkbook(t, filepath.Join(dir, region+".xlsx"), rows)
	}
}
