package domain

// CountryValue is one entry of a ranking
type CountryValue struct {
	Country string  `json:"country"`
	Region  Region  `json:"region"`
	Value   float64 `json:"expenditure"`
}

// TrendPoint is one (year, total) pair of a time series
type TrendPoint struct {
	Year  int     `json:"year"`
	Total float64 `json:"expenditure"`
}

// RegionShare is a region's total for one year and its share of the global total.
type RegionShare struct {
	Region  Region  `json:"region"`
	Label   string  `json:"label"`
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
}

// YearSummary aggregates the reported values of one year.
type YearSummary struct {
	Year          int      `json:"year"`
	Total         float64  `json:"total"`
	CountryCount  int      `json:"country_count"`
	Mean          float64  `json:"mean"`
	Median        float64  `json:"median"`
	Percentile90  float64  `json:"p90"`
	PreviousTotal *float64 `json:"previous_total,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
}
