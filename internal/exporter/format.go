package exporter

import (
	"fmt"

	"milexcli/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// formatValue renders a missing value as an empty cell
func formatValue(v domain.Value) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Amount)
}

// FormatFloat is the CSV rendering of plain numbers, shared with callers
// building their own records.
func FormatFloat(f float64) string {
	return formatFloat(f)
}
