package exporter

import (
	"strconv"

	"milexcli/pkg/contracts/domain"
)

// Record keys shared with the web frontend
const (
	keyCountry     = "Country"
	keyContinent   = "Continent"
	keyExpenditure = "Expenditure"
)

// tableRecords lays out every row as {Country, <year>..., Continent} with
// missing values as null.
func tableRecords(table *domain.ExpenditureTable) []orderedObject {
	yearKeys := make([]string, len(table.Years))
	for i, y := range table.Years {
		yearKeys[i] = strconv.Itoa(y)
	}

	records := make([]orderedObject, 0, table.Len())
	for _, row := range table.Rows {
		rec := make(orderedObject, 0, len(yearKeys)+2)
		rec = append(rec, field{keyCountry, row.Country})
		for j, key := range yearKeys {
			rec = append(rec, field{key, row.Values[j]})
		}
		rec = append(rec, field{keyContinent, string(row.Region)})
		records = append(records, rec)
	}
	return records
}

// yearRecords lists {Country, Continent, Expenditure} for every row that
// reported a value in year, plus the count and sum of those values.
func yearRecords(table *domain.ExpenditureTable, year int) ([]orderedObject, int, float64) {
	col, ok := table.YearIndex(year)
	records := []orderedObject{}
	if !ok {
		return records, 0, 0
	}

	var total float64
	for _, row := range table.Rows {
		v := row.Values[col]
		if !v.Valid {
			continue
		}
		total += v.Amount
		records = append(records, orderedObject{
			{keyCountry, row.Country},
			{keyContinent, string(row.Region)},
			{keyExpenditure, v.Amount},
		})
	}
	return records, len(records), total
}

// yearSummaryEntry is one value of years_summary.json
type yearSummaryEntry struct {
	TotalCountries   int     `json:"total_countries"`
	File             string  `json:"file"`
	TotalExpenditure float64 `json:"total_expenditure"`
}
