package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"milexcli/internal/config"
	apperrors "milexcli/internal/errors"
	"milexcli/internal/files"
	"milexcli/pkg/contracts/domain"
)

// isoCodes maps country names, as spelled in the source spreadsheets, to
// ISO 3166-1 alpha-3 codes.
var isoCodes = map[string]string{
	"United States":  "USA",
	"China":          "CHN",
	"Russia":         "RUS",
	"United Kingdom": "GBR",
	"UK":             "GBR",
	"India":          "IND",
	"France":         "FRA",
	"Germany":        "DEU",
	"Japan":          "JPN",
	"South Korea":    "KOR",
	"Korea, South":   "KOR",
	"North Korea":    "PRK",
	"Korea, North":   "PRK",
	"Italy":          "ITA",
	"Brazil":         "BRA",
	"Canada":         "CAN",
	"Australia":      "AUS",
	"Spain":          "ESP",
	"Turkey":         "TUR",
	"Israel":         "ISR",
	"Iran":           "IRN",
	"Indonesia":      "IDN",
	"Pakistan":       "PAK",
	"Saudi Arabia":   "SAU",
	"Poland":         "POL",
	"Ukraine":        "UKR",
	"Egypt":          "EGY",
	"Thailand":       "THA",
	"Colombia":       "COL",
	"Mexico":         "MEX",
	"Malaysia":       "MYS",
	"Netherlands":    "NLD",
	"Argentina":      "ARG",
	"Sweden":         "SWE",
	"Switzerland":    "CHE",
	"Belgium":        "BEL",
	"Norway":         "NOR",
	"Vietnam":        "VNM",
	"Portugal":       "PRT",
	"Romania":        "ROU",
	"Bangladesh":     "BGD",
	"Greece":         "GRC",
	"Czech Republic": "CZE",
	"Denmark":        "DNK",
	"Finland":        "FIN",
	"Austria":        "AUT",
	"New Zealand":    "NZL",
	"Singapore":      "SGP",
	"South Africa":   "ZAF",
	"Algeria":        "DZA",
	"Chile":          "CHL",
	"Hungary":        "HUN",
	"Iraq":           "IRQ",
	"Peru":           "PER",
	"Philippines":    "PHL",
	"Kazakhstan":     "KAZ",
	"Morocco":        "MAR",
}

const yearFileGlob = "year_*.json"

// centroids holds approximate map positions
var centroids = map[string]domain.Coordinates{
	"United States":  {Lat: 37.0902, Lon: -95.7129},
	"China":          {Lat: 35.8617, Lon: 104.1954},
	"Russia":         {Lat: 61.5240, Lon: 105.3188},
	"United Kingdom": {Lat: 55.3781, Lon: -3.4360},
	"UK":             {Lat: 55.3781, Lon: -3.4360},
	"India":          {Lat: 20.5937, Lon: 78.9629},
	"France":         {Lat: 46.6034, Lon: 1.8883},
	"Germany":        {Lat: 51.1657, Lon: 10.4515},
	"Japan":          {Lat: 36.2048, Lon: 138.2529},
	"South Korea":    {Lat: 35.9078, Lon: 127.7669},
	"Korea, South":   {Lat: 35.9078, Lon: 127.7669},
	"North Korea":    {Lat: 40.3399, Lon: 127.5101},
	"Korea, North":   {Lat: 40.3399, Lon: 127.5101},
	"Italy":          {Lat: 41.8719, Lon: 12.5674},
	"Brazil":         {Lat: -14.2350, Lon: -51.9253},
	"Canada":         {Lat: 56.1304, Lon: -106.3468},
	"Australia":      {Lat: -25.2744, Lon: 133.7751},
	"Spain":          {Lat: 40.4637, Lon: -3.7492},
	"Turkey":         {Lat: 38.9637, Lon: 35.2433},
	"Israel":         {Lat: 31.0461, Lon: 34.8516},
	"Iran":           {Lat: 32.4279, Lon: 53.6880},
	"Indonesia":      {Lat: -0.7893, Lon: 113.9213},
	"Pakistan":       {Lat: 30.3753, Lon: 69.3451},
	"Saudi Arabia":   {Lat: 23.8859, Lon: 45.0792},
	"Poland":         {Lat: 51.9194, Lon: 19.1451},
	"Ukraine":        {Lat: 48.3794, Lon: 31.1656},
	"Egypt":          {Lat: 26.8206, Lon: 30.8025},
	"Thailand":       {Lat: 15.8700, Lon: 100.9925},
	"Colombia":       {Lat: 4.5709, Lon: -74.2973},
	"Mexico":         {Lat: 23.6345, Lon: -102.5528},
}

// LookupMetadata returns the ISO code and centroid of country. Unknown
// countries get an empty code and zero coordinates.
func LookupMetadata(country string) domain.CountryMetadata {
	return domain.CountryMetadata{
		ISOCode:     isoCodes[country],
		Coordinates: centroids[country],
	}
}

// MetadataGenerator writes country_metadata.json for the countries found in
// previously exported artifacts.
type MetadataGenerator struct {
	paths      *config.Paths
	sampleYear int
	logger     *slog.Logger
}

// NewMetadataGenerator creates a generator. sampleYear selects the per-year
// file used when the union file is unavailable.
func NewMetadataGenerator(paths *config.Paths, sampleYear int, logger *slog.Logger) *MetadataGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleYear == 0 {
		sampleYear = config.DefaultMetadataSampleYear
	}
	return &MetadataGenerator{
		paths:      paths,
		sampleYear: sampleYear,
		logger:     logger.With(slog.String("component", "metadata")),
	}
}

// Generate writes the metadata file and returns the number of countries in
// it. Missing inputs produce an empty object rather than an error.
func (g *MetadataGenerator) Generate(ctx context.Context) (int, error) {
	countries := g.loadCountries(ctx)

	entries := make(orderedObject, 0, len(countries))
	matched := 0
	for _, country := range countries {
		meta := LookupMetadata(country)
		if meta.ISOCode != "" {
			matched++
		}
		entries = append(entries, field{country, meta})
	}

	if err := writeJSON(g.paths.MetadataJSON, entries); err != nil {
		return 0, apperrors.NewStorageError("failed to write country metadata", err).
			WithContext("path", g.paths.MetadataJSON)
	}

	g.logger.InfoContext(ctx, "country metadata written",
		slog.String("path", g.paths.MetadataJSON),
		slog.Int("countries", len(countries)),
		slog.Int("with_iso_code", matched))
	return len(countries), nil
}

// loadCountries reads distinct country names from the union file, then the
// sample year file, then any other per-year file, newest first. Unreadable
// sources are skipped.
func (g *MetadataGenerator) loadCountries(ctx context.Context) []string {
	sources := []string{g.paths.AllDataJSON, g.paths.YearJSON(g.sampleYear)}
	sources = append(sources, g.otherYearFiles(ctx, sources[1])...)
	for _, path := range sources {
		names, err := readCountryNames(path)
		if err != nil {
			if !os.IsNotExist(err) {
				g.logger.WarnContext(ctx, "country source unreadable",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
			continue
		}
		if len(names) == 0 {
			continue
		}
		g.logger.DebugContext(ctx, "countries loaded",
			slog.String("source", filepath.Base(path)),
			slog.Int("count", len(names)))
		return names
	}
	g.logger.WarnContext(ctx, "no country source found, writing empty metadata")
	return nil
}

func (g *MetadataGenerator) otherYearFiles(ctx context.Context, skip string) []string {
	found, err := files.NewDiscovery("").FindFilesByPattern(g.paths.OutputDir, yearFileGlob)
	if err != nil {
		g.logger.WarnContext(ctx, "year file discovery failed", slog.String("error", err.Error()))
		return nil
	}
	paths := make([]string, 0, len(found))
	for i := len(found) - 1; i >= 0; i-- {
		if found[i].Path != skip {
			paths = append(paths, found[i].Path)
		}
	}
	return paths
}

func readCountryNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []struct {
		Country string `json:"Country"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	seen := make(map[string]struct{}, len(records))
	names := make([]string, 0, len(records))
	for _, r := range records {
		if r.Country == "" {
			continue
		}
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		names = append(names, r.Country)
	}
	return names, nil
}
