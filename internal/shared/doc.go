// Package shared holds helpers used by more than one package of the
// expenditure tooling.
//
// The testutil subpackage provides a capturing slog handler and spreadsheet
// fixtures that write small regional workbooks into a test directory:
//
//	dir := t.TempDir()
//	testutil.WriteWorkbook(t, filepath.Join(dir, "europen.xlsx"), [][]any{
//		{"France", 100.0, "...", 120.0},
//	})
//
// Nothing in this package contains business logic.
package shared
