package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "milexcli/internal/errors"
	"milexcli/pkg/contracts/domain"
)

// Missing-value markers found in the source spreadsheets
var missingMarkers = map[string]struct{}{
	"...": {},
	"xx":  {},
}

// NormalizeCell converts a raw cell into a value. Blanks, missing markers,
// non-numeric text and non-finite numbers all become missing; it never fails.
func NormalizeCell(raw string) domain.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Missing()
	}
	if _, ok := missingMarkers[s]; ok {
		return domain.Missing()
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Missing()
	}
	return domain.Some(f)
}

// SheetLayout describes how raw rows map onto a table
type SheetLayout struct {
	Years  []int
	Region domain.Region
}

// CanonicalLayout returns the layout for years [baseYear, endYear]
func CanonicalLayout(baseYear, endYear int, region domain.Region) SheetLayout {
	return SheetLayout{Years: domain.YearRange(baseYear, endYear), Region: region}
}

// BuildTable normalizes headerless rows: column 0 is the country name and
// the following columns are consecutive years of layout.Years. Columns
// beyond the year range are dropped and short rows are padded with missing
// values. Rows with a blank country are skipped and counted.
func BuildTable(rows [][]string, layout SheetLayout) (*domain.ExpenditureTable, int) {
	table := domain.NewExpenditureTable(layout.Years)
	width := len(layout.Years)
	skipped := 0

	for _, raw := range rows {
		if len(raw) == 0 {
			skipped++
			continue
		}
		country := strings.TrimSpace(raw[0])
		if country == "" {
			skipped++
			continue
		}

		values := make([]domain.Value, width)
		for j := 0; j < width && j+1 < len(raw); j++ {
			values[j] = NormalizeCell(raw[j+1])
		}
		table.Append(domain.Row{Country: country, Region: layout.Region, Values: values})
	}
	return table, skipped
}

// ReadRows returns the raw rows of the first worksheet of an .xlsx file or
// of a .csv file, selected by extension.
func ReadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbookRows(path)
	case ".csv":
		return readCSVRows(path)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported spreadsheet format %q", filepath.Ext(path)), nil).
			WithContext("path", path)
	}
}

// ReadTable reads and normalizes one spreadsheet
func ReadTable(path string, layout SheetLayout) (*domain.ExpenditureTable, int, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, 0, err
	}
	table, skipped := BuildTable(rows, layout)
	return table, skipped, nil
}

func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
	}

	// Raw values avoid number formats rounding the figures.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet "+sheets[0], err).WithContext("path", path)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open csv file", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read csv file", err).WithContext("path", path)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
