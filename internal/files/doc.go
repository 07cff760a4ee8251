// Package files discovers source spreadsheets and writes output artifacts.
//
// Discovery lists the .xlsx and .csv inputs of a directory in name order,
// skipping office lock files. WriteAtomic and WriteFileAtomic write through
// a temporary file and a rename so readers never observe a truncated
// artifact:
//
//	err := files.WriteAtomic(path, func(w io.Writer) error {
//		return json.NewEncoder(w).Encode(v)
//	})
package files
