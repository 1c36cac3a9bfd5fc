// Package snapshot builds sorted, read-only row views over collector state:
// the per-bucket stats table, the shortcut leaderboard, and window-filtered
// shortcut rebuilds from the compact chunk log. Every function here is a
// pure reader; none mutate their inputs, and every ordering is stable and
// presentation-ready.
package snapshot

import (
	"sort"

	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/collector"
	"github.com/corvid-labs/typingstats/modifier"
	"github.com/corvid-labs/typingstats/shortcut"
)

// leaderboardCap is the maximum number of per-app rows kept in any
// leaderboard.
const leaderboardCap = 8

// BucketRow is one presentation-ready stats row.
type BucketRow struct {
	Date           string `json:"date"`
	AppName        string `json:"app_name"`
	WindowTitle    string `json:"window_title"`
	ActiveTypingMs uint64 `json:"active_typing_ms"`
	KeyCount       uint64 `json:"key_count"`
	SessionCount   uint64 `json:"session_count"`
}

// Rows builds the sorted bucket-row snapshot: (date, app_name, window_title,
// active_typing_ms) ascending.
func Rows(buckets []collector.BucketRow) []BucketRow {
	rows := make([]BucketRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, BucketRow{
			Date:           b.Key.Date,
			AppName:        b.Key.AppName,
			WindowTitle:    b.Key.WindowTitle,
			ActiveTypingMs: b.Value.ActiveTypingMs,
			KeyCount:       b.Value.KeyCount,
			SessionCount:   b.Value.SessionCount,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.AppName != b.AppName {
			return a.AppName < b.AppName
		}
		if a.WindowTitle != b.WindowTitle {
			return a.WindowTitle < b.WindowTitle
		}
		return a.ActiveTypingMs < b.ActiveTypingMs
	})
	return rows
}

// ShortcutRow is one leaderboard entry: a shortcut id, its total count, and
// the top apps that produced it.
type ShortcutRow struct {
	ShortcutID string     `json:"shortcut_id"`
	Count      uint64     `json:"count"`
	TopApps    []AppUsage `json:"top_apps"`
}

// AppUsage is one per-app breakdown entry within a ShortcutRow.
type AppUsage struct {
	AppID string `json:"app_id"`
	Count uint64 `json:"count"`
}

// ShortcutLeaderboard builds the sorted shortcut leaderboard: rows by
// descending count then ascending id; each row's top-apps list by
// descending count then ascending app id, truncated to leaderboardCap.
func ShortcutLeaderboard(usage []collector.ShortcutRow) []ShortcutRow {
	rows := make([]ShortcutRow, 0, len(usage))
	for _, u := range usage {
		apps := make([]AppUsage, 0, len(u.ByApp))
		for appID, count := range u.ByApp {
			apps = append(apps, AppUsage{AppID: appID, Count: count})
		}
		sortAppUsage(apps)
		if len(apps) > leaderboardCap {
			apps = apps[:leaderboardCap]
		}
		rows = append(rows, ShortcutRow{ShortcutID: u.ShortcutID, Count: u.Count, TopApps: apps})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].ShortcutID < rows[j].ShortcutID
	})
	return rows
}

func sortAppUsage(apps []AppUsage) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].Count != apps[j].Count {
			return apps[i].Count > apps[j].Count
		}
		return apps[i].AppID < apps[j].AppID
	})
}

// Full is the complete poll response for the UI: sorted bucket rows, the
// shortcut leaderboard, and every control-surface status flag including the
// normalized exclusion list.
type Full struct {
	Rows      []BucketRow      `json:"rows"`
	Shortcuts []ShortcutRow    `json:"shortcuts"`
	Status    collector.Status `json:"status"`
}

// Build bundles the three snapshot views from one State. Each underlying
// read is individually lock-consistent; the bundle as a whole is the same
// best-effort composite the polling UI would assemble from three calls.
func Build(s *collector.State) Full {
	return Full{
		Rows:      Rows(s.Buckets()),
		Shortcuts: ShortcutLeaderboard(s.ShortcutUsageRows()),
		Status:    s.Status(),
	}
}

// ShortcutRowsForRange runs the windowed rebuild against a live State using
// a single lock-consistent chunk view.
func ShortcutRowsForRange(s *collector.State, nowMs int64, r Range) ([]ShortcutRow, bool) {
	view := s.Chunks()
	rows, ok := ShortcutRowsByRange(view.Closed, view.Open, view.AppDict, view.Rules, nowMs, r)
	if !ok {
		return nil, false
	}
	return ShortcutLeaderboard(rows), true
}

// RebuildShortcutUsage re-derives the shortcut aggregate map by scanning
// every closed chunk, for read-only callers working from persisted chunks
// such as the CLI's shortcuts command (shortcut usage is never persisted;
// see storage.LoadInputAnalytics). A live State rebuilds its own usage in
// collector.State.LoadPersisted.
func RebuildShortcutUsage(closed []chunk.Closed, appDict map[uint32]string, rules shortcut.Rules) []collector.ShortcutRow {
	usage := make(map[string]*collector.ShortcutRow)
	for _, c := range closed {
		appID := appDict[c.AppRef]
		for _, raw := range c.Events {
			_, typ, key, mods, err := chunk.Decode(raw)
			if err != nil || typ != chunk.EventTypeDown {
				continue
			}
			accumulate(usage, rules, mods, key, appID)
		}
	}
	rows := make([]collector.ShortcutRow, 0, len(usage))
	for _, row := range usage {
		rows = append(rows, *row)
	}
	return rows
}

func accumulate(usage map[string]*collector.ShortcutRow, rules shortcut.Rules, mods modifier.Snapshot, key, appID string) {
	shortcutID := shortcut.Normalize(mods, key)
	if !shortcut.Admit(rules, mods, shortcutID) {
		return
	}
	row, ok := usage[shortcutID]
	if !ok {
		row = &collector.ShortcutRow{ShortcutID: shortcutID, ByApp: make(map[string]uint64)}
		usage[shortcutID] = row
	}
	row.Count++
	row.ByApp[appID]++
}
