package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"milexcli/internal/files"
	"milexcli/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer. Relative paths are resolved against
// baseDir.
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{baseDir: baseDir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options. The file is
// replaced atomically.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	err := files.WriteAtomic(fullPath, func(out io.Writer) error {
		if options.BOMPrefix {
			if _, err := out.Write(utf8BOM); err != nil {
				return fmt.Errorf("failed to write BOM: %w", err)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return "", err
	}
	return fullPath, nil
}

// WriteTable exports a table view as Country, Region, <years...> with empty
// cells for missing values.
func (w *CSVWriter) WriteTable(filePath string, table *domain.ExpenditureTable) (string, error) {
	headers := make([]string, 0, len(table.Years)+2)
	headers = append(headers, "Country", "Region")
	for _, y := range table.Years {
		headers = append(headers, formatInt(int64(y)))
	}

	records := make([][]string, 0, table.Len())
	for _, row := range table.Rows {
		record := make([]string, 0, len(headers))
		record = append(record, row.Country, string(row.Region))
		for _, v := range row.Values {
			record = append(record, formatValue(v))
		}
		records = append(records, record)
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
