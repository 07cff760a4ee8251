package errors

import "errors"

// Query and ingestion failures. Callers wrap them with context using
// fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	ErrInvalidRegion   = errors.New("invalid region")
	ErrCountryNotFound = errors.New("country not found")
	ErrYearNotFound    = errors.New("year not found")
	ErrNoMatchingYears = errors.New("no matching years")
	ErrMissingData     = errors.New("missing data")
	ErrInvalidRange    = errors.New("invalid year range")
	ErrUndefinedGrowth = errors.New("growth rate undefined")
	ErrNoInputFiles    = errors.New("no input spreadsheets found")
)

// IsQueryError reports whether err is one of the query failure kinds above
// rather than an I/O or internal failure.
func IsQueryError(err error) bool {
	for _, target := range []error{
		ErrInvalidRegion, ErrCountryNotFound, ErrYearNotFound, ErrNoMatchingYears,
		ErrMissingData, ErrInvalidRange, ErrUndefinedGrowth,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
