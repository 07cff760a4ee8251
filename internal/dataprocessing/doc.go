// Package dataprocessing turns the regional military expenditure spreadsheets
// into normalized tables and answers analytical queries over them.
//
// # Components
//
//   - Parser: reads headerless .xlsx/.csv sheets (country, then one column per
//     year) and normalizes cells, mapping "...", "xx", blanks and text to
//     missing values.
//   - Repository: loads and caches one table per region plus the merged
//     table; concurrent first loads are collapsed.
//   - Analyzer: rankings, growth rates, comparisons, regional and global
//     totals, and per-year summaries.
//
// # Usage
//
//	repo := dataprocessing.NewRepository(dataprocessing.RepositoryConfig{
//	    DataDir:    "data",
//	    MergedFile: "current_data.xlsx",
//	    BaseYear:   1960,
//	    EndYear:    2022,
//	}, logger, metrics)
//	analyzer := dataprocessing.NewAnalyzer(repo, logger)
//	top, err := analyzer.TopCountries(ctx, 2020, 5)
//
// Query failures wrap the sentinel errors of milexcli/internal/errors and
// are matched with errors.Is.
package dataprocessing
