package domain

import (
	"fmt"
	"strings"
)

// Region identifies one of the fixed geographic groupings. The values are the
// base names of the source spreadsheets and must not be "corrected".
type Region string

const (
	RegionAfrican      Region = "african"
	RegionAmerican     Region = "american"
	RegionAsian        Region = "aisan"
	RegionEuropean     Region = "europen"
	RegionEasternAsian Region = "easternasian"

	// RegionUnknown tags rows whose region could not be resolved, e.g. rows
	// that only exist in the pre-merged spreadsheet.
	RegionUnknown Region = "unknown"
)

// regionLabels holds display names in canonical region order
var regionLabels = map[Region]string{
	RegionAfrican:      "Africa",
	RegionAmerican:     "Americas",
	RegionAsian:        "Asia",
	RegionEuropean:     "Europe",
	RegionEasternAsian: "East Asia",
	RegionUnknown:      "Unknown",
}

// AllRegions returns the five regions in canonical order.
func AllRegions() []Region {
	return []Region{
		RegionAfrican,
		RegionAmerican,
		RegionAsian,
		RegionEuropean,
		RegionEasternAsian,
	}
}

// IsValid reports whether r is one of the five known regions.
func (r Region) IsValid() bool {
	switch r {
	case RegionAfrican, RegionAmerican, RegionAsian, RegionEuropean, RegionEasternAsian:
		return true
	}
	return false
}

// Label returns the human readable region name
func (r Region) Label() string {
	if label, ok := regionLabels[r]; ok {
		return label
	}
	return string(r)
}

func (r Region) String() string {
	return string(r)
}

// ParseRegion converts a key into a Region. The match is exact after
// trimming surrounding whitespace.
func ParseRegion(key string) (Region, error) {
	r := Region(strings.TrimSpace(key))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown region %q (expected one of %s)", key, regionList())
	}
	return r, nil
}

func regionList() string {
	names := make([]string, 0, 5)
	for _, r := range AllRegions() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}
