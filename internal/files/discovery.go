package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Base    string // file name without extension
	Ext     string // lower-case extension including the dot
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// passed to its methods are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// spreadsheetExts lists accepted inputs in order of preference
var spreadsheetExts = []string{".xlsx", ".csv"}

// FindSpreadsheets lists the .xlsx and .csv files of dir sorted by name.
// Excel lock files (~$name.xlsx) and hidden files are skipped. When a base
// name exists in both formats only the .xlsx file is returned.
func (d *Discovery) FindSpreadsheets(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	byBase := make(map[string]FileInfo)
	for _, entry := range entries {
		if entry.IsDir() || IsLockFile(entry.Name()) {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		rank := extRank(ext)
		if rank < 0 {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		if prev, ok := byBase[base]; ok && extRank(prev.Ext) <= rank {
			continue
		}
		byBase[base] = FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Base:    base,
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}

	files := make([]FileInfo, 0, len(byBase))
	for _, f := range byBase {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindSource returns the spreadsheet for base in dir, preferring .xlsx over
// .csv. The returned error wraps os.ErrNotExist when neither exists.
func (d *Discovery) FindSource(dir, base string) (FileInfo, error) {
	fullPath := d.resolve(dir)
	for _, ext := range spreadsheetExts {
		path := filepath.Join(fullPath, base+ext)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return FileInfo{
			Path:    path,
			Name:    base + ext,
			Base:    base,
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}, nil
	}
	return FileInfo{}, fmt.Errorf("no spreadsheet for %q in %s: %w", base, fullPath, os.ErrNotExist)
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(d.resolve(dir), pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		name := filepath.Base(match)
		files = append(files, FileInfo{
			Path:    match,
			Name:    name,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     strings.ToLower(filepath.Ext(name)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// IsLockFile reports whether name is an office lock or hidden file
func IsLockFile(name string) bool {
	return strings.HasPrefix(name, "~") || strings.HasPrefix(name, ".")
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func extRank(ext string) int {
	for i, e := range spreadsheetExts {
		if e == ext {
			return i
		}
	}
	return -1
}

// IsSpreadsheet reports whether path has an accepted spreadsheet extension
func IsSpreadsheet(path string) bool {
	return extRank(strings.ToLower(filepath.Ext(path))) >= 0
}
