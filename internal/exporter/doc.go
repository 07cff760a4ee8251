// Package exporter writes the artifacts derived from the expenditure
// spreadsheets.
//
// Converter reads every spreadsheet of the input directory on a bounded
// worker pool and writes, for each, <base>.json. After all workers finish it
// writes the union artifacts:
//
//	all_military_data.json   every row of every converted file
//	year_<Y>.json            {Country, Continent, Expenditure} per year
//	years_summary.json       per-year country count and total
//
// MetadataGenerator joins the exported country names with static ISO code
// and centroid tables into country_metadata.json.
//
// CSVWriter exports query results as BOM-prefixed CSV files for Excel.
//
// All files are replaced atomically.
package exporter
