package domain

// Coordinates is an approximate country centroid
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CountryMetadata holds the map-related attributes of a country. Unknown
// countries carry an empty ISO code and zero coordinates.
type CountryMetadata struct {
	ISOCode     string      `json:"iso_code"`
	Coordinates Coordinates `json:"coordinates"`
}
