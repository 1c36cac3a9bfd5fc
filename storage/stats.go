package storage

import (
	"encoding/json"
	"os"
	"sort"
)

// LoadStats merges the legacy monolithic file (if present) with every daily
// shard. A malformed legacy file is fatal; a malformed daily file is
// skipped silently so partial recovery proceeds.
func (s *JSONFileStorage) LoadStats() ([]StatsRow, error) {
	var rows []StatsRow

	legacyPath := s.legacyStatsPath()
	if data, err := os.ReadFile(legacyPath); err == nil {
		parsed, perr := parseStatsPayload(data)
		if perr != nil {
			return nil, &Error{Kind: ErrMalformedLegacy, Op: "load", Path: legacyPath, Err: perr}
		}
		rows = append(rows, parsed...)
	} else if !os.IsNotExist(err) {
		return nil, &Error{Kind: ErrIO, Op: "load", Path: legacyPath, Err: err}
	}

	dates, err := listDailyShards(s.dir, "-"+s.baseName)
	if err != nil {
		return nil, err
	}
	for _, date := range dates {
		path := s.dailyStatsPath(date)
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			continue // best-effort: an unreadable daily file is skipped
		}
		parsed, perr := parseStatsPayload(data)
		if perr != nil {
			continue // malformed daily file: skipped silently
		}
		rows = append(rows, parsed...)
	}

	return mergeStatsRows(rows), nil
}

// parseStatsPayload accepts both the legacy bare-array form and the
// structured {rows: [...]} form.
func parseStatsPayload(data []byte) ([]StatsRow, error) {
	var doc statsDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Rows != nil {
		return doc.Rows, nil
	}
	var rows []StatsRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeStatsRows sums values across rows sharing a (date, app_name,
// window_title) key.
func mergeStatsRows(rows []StatsRow) []StatsRow {
	type key struct{ date, app, window string }
	merged := make(map[key]*StatsRow)
	order := make([]key, 0, len(rows))
	for _, r := range rows {
		k := key{r.Date, r.AppName, r.WindowTitle}
		existing, ok := merged[k]
		if !ok {
			cp := r
			merged[k] = &cp
			order = append(order, k)
			continue
		}
		existing.ActiveTypingMs += r.ActiveTypingMs
		existing.KeyCount += r.KeyCount
		existing.SessionCount += r.SessionCount
	}
	out := make([]StatsRow, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.AppName != b.AppName {
			return a.AppName < b.AppName
		}
		return a.WindowTitle < b.WindowTitle
	})
	return out
}

// SaveStats groups rows by local calendar date, writes one shard per group
// via temp-then-rename, deletes any now-empty daily shard, then removes the
// legacy monolithic file.
func (s *JSONFileStorage) SaveStats(rows []StatsRow) error {
	groups := make(map[string][]StatsRow)
	for _, r := range rows {
		date := dateGroupKey(r.Date)
		groups[date] = append(groups[date], r)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &Error{Kind: ErrIO, Op: "mkdir", Path: s.dir, Err: err}
	}

	for date, group := range groups {
		data, err := json.MarshalIndent(statsDocument{Rows: group}, "", "  ")
		if err != nil {
			return &Error{Kind: ErrIO, Op: "marshal", Path: s.dailyStatsPath(date), Err: err}
		}
		if err := writeAtomic(s.dailyStatsPath(date), data); err != nil {
			return err
		}
	}

	existingDates, err := listDailyShards(s.dir, "-"+s.baseName)
	if err != nil {
		return err
	}
	for _, date := range existingDates {
		if _, stillPresent := groups[date]; !stillPresent {
			_ = os.Remove(s.dailyStatsPath(date))
		}
	}

	_ = os.Remove(s.legacyStatsPath())
	return nil
}
