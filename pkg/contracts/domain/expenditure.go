package domain

import (
	"encoding/json"
	"math"
)

// Value is an optional expenditure amount in millions of currency units.
// A zero Value is missing.
type Value struct {
	Amount float64
	Valid  bool
}

// Some returns a present value. Non-finite input yields a missing value.
func Some(amount float64) Value {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Value{}
	}
	return Value{Amount: amount, Valid: true}
}

// Missing returns the absent value
func Missing() Value {
	return Value{}
}

// MarshalJSON encodes missing values as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Amount)
}

// UnmarshalJSON accepts a number or null
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Row holds one country's yearly values. Values is aligned with the Years of
// the owning table.
type Row struct {
	Country string
	Region  Region
	Values  []Value
}

// ExpenditureTable is the normalized tabular form of one or more source
// spreadsheets: one row per country, one column per year.
type ExpenditureTable struct {
	Years []int
	Rows  []Row

	yearIndex map[int]int
}

// NewExpenditureTable creates an empty table with the given year columns.
func NewExpenditureTable(years []int) *ExpenditureTable {
	t := &ExpenditureTable{Years: append([]int(nil), years...)}
	t.reindex()
	return t
}

// YearRange builds the contiguous inclusive range [start, end].
func YearRange(start, end int) []int {
	if end < start {
		return nil
	}
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years
}

func (t *ExpenditureTable) reindex() {
	t.yearIndex = make(map[int]int, len(t.Years))
	for i, y := range t.Years {
		t.yearIndex[y] = i
	}
}

// YearIndex returns the column position of year.
func (t *ExpenditureTable) YearIndex(year int) (int, bool) {
	if t.yearIndex == nil || len(t.yearIndex) != len(t.Years) {
		t.reindex()
	}
	i, ok := t.yearIndex[year]
	return i, ok
}

// HasYear reports whether year is one of the table's columns.
func (t *ExpenditureTable) HasYear(year int) bool {
	_, ok := t.YearIndex(year)
	return ok
}

// Append adds a row. Values are padded or truncated to the year columns.
func (t *ExpenditureTable) Append(row Row) {
	row.Values = fitValues(row.Values, len(t.Years))
	t.Rows = append(t.Rows, row)
}

// Value returns the cell for row i and year. Unknown years are missing.
func (t *ExpenditureTable) Value(i int, year int) Value {
	col, ok := t.YearIndex(year)
	if !ok || i < 0 || i >= len(t.Rows) {
		return Value{}
	}
	return t.Rows[i].Values[col]
}

// Len returns the number of rows
func (t *ExpenditureTable) Len() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has neither rows nor year columns.
func (t *ExpenditureTable) IsEmpty() bool {
	return len(t.Rows) == 0 && len(t.Years) == 0
}

// Concat row-concatenates tables sharing the year columns of the first one.
// Rows of later tables are realigned by year so that differing column sets
// never shift values.
func Concat(tables ...*ExpenditureTable) *ExpenditureTable {
	if len(tables) == 0 {
		return NewExpenditureTable(nil)
	}
	out := NewExpenditureTable(tables[0].Years)
	for _, tbl := range tables {
		if tbl == nil {
			continue
		}
		for _, row := range tbl.Rows {
			values := make([]Value, len(out.Years))
			for j, y := range out.Years {
				if col, ok := tbl.YearIndex(y); ok && col < len(row.Values) {
					values[j] = row.Values[col]
				}
			}
			out.Rows = append(out.Rows, Row{Country: row.Country, Region: row.Region, Values: values})
		}
	}
	return out
}

// Select returns a new table containing rows accepted by keep and the given
// year columns in the given order. Years not present are ignored.
func (t *ExpenditureTable) Select(keep func(Row) bool, years []int) *ExpenditureTable {
	cols := make([]int, 0, len(years))
	kept := make([]int, 0, len(years))
	for _, y := range years {
		if col, ok := t.YearIndex(y); ok {
			cols = append(cols, col)
			kept = append(kept, y)
		}
	}
	out := NewExpenditureTable(kept)
	for _, row := range t.Rows {
		if keep != nil && !keep(row) {
			continue
		}
		values := make([]Value, len(cols))
		for j, col := range cols {
			values[j] = row.Values[col]
		}
		out.Rows = append(out.Rows, Row{Country: row.Country, Region: row.Region, Values: values})
	}
	return out
}

func fitValues(values []Value, width int) []Value {
	if len(values) == width {
		return values
	}
	out := make([]Value, width)
	copy(out, values)
	return out
}
