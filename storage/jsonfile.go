package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// JSONFileStorage is the production DetailStorage: daily-sharded JSON files
// under one data directory, written with a temp-then-rename swap so readers
// never observe a partial file.
type JSONFileStorage struct {
	dir      string
	baseName string
}

// NewJSONFileStorage creates a JSONFileStorage rooted at dir, using
// baseName as the shared logical filename (e.g. "typingstats-details.json")
// for both datasets.
func NewJSONFileStorage(dir, baseName string) *JSONFileStorage {
	return &JSONFileStorage{dir: dir, baseName: baseName}
}

var _ DetailStorage = (*JSONFileStorage)(nil)

func (s *JSONFileStorage) legacyStatsPath() string {
	return filepath.Join(s.dir, s.baseName)
}

func (s *JSONFileStorage) dailyStatsPath(date string) string {
	return filepath.Join(s.dir, date+"-"+s.baseName)
}

func (s *JSONFileStorage) legacyAnalyticsPath() string {
	return filepath.Join(s.dir, "analytics-"+s.baseName)
}

func (s *JSONFileStorage) dailyAnalyticsPath(date string) string {
	return filepath.Join(s.dir, date+"-analytics-"+s.baseName)
}

// writeAtomic writes data to path via a ".tmp" sibling file, then renames
// it into place, following lode/file_writer.go's write-then-place shape.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &Error{Kind: ErrIO, Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &Error{Kind: ErrIO, Op: "rename", Path: path, Err: err}
	}
	return nil
}

// listDailyShards returns every file in dir matching "YYYY-MM-DD<suffix>",
// sorted by date ascending.
func listDailyShards(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &Error{Kind: ErrIO, Op: "readdir", Path: dir, Err: err}
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		datePart := strings.TrimSuffix(name, suffix)
		if len(datePart) != len("2026-07-31") {
			continue
		}
		dates = append(dates, datePart)
	}
	sort.Strings(dates)
	return dates, nil
}

func dateGroupKey(localMinuteOrDate string) string {
	if len(localMinuteOrDate) >= len("2026-07-31") {
		return localMinuteOrDate[:len("2026-07-31")]
	}
	return localMinuteOrDate
}

