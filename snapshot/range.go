package snapshot

import (
	"time"

	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/collector"
	"github.com/corvid-labs/typingstats/shortcut"
)

// Range selects a local-time window for a shortcut-rows rebuild query.
// Unknown values are rejected by ParseRange.
type Range string

// Range values accepted by ParseRange.
const (
	RangeToday     Range = "today"
	RangeYesterday Range = "yesterday"
	RangeSevenDay  Range = "7d"
)

// ParseRange validates a range selector string.
func ParseRange(s string) (Range, bool) {
	switch Range(s) {
	case RangeToday, RangeYesterday, RangeSevenDay:
		return Range(s), true
	default:
		return "", false
	}
}

// windowMs computes the half-open [start, end) UTC-millisecond window for r,
// anchored on nowMs's local calendar date. "7d" spans the last 7 full days
// including today.
func windowMs(nowMs int64, r Range) (start, end int64, ok bool) {
	now := time.UnixMilli(nowMs).Local()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch r {
	case RangeToday:
		return todayStart.UnixMilli(), nowMs, true
	case RangeYesterday:
		yesterdayStart := todayStart.AddDate(0, 0, -1)
		return yesterdayStart.UnixMilli(), todayStart.UnixMilli(), true
	case RangeSevenDay:
		start := todayStart.AddDate(0, 0, -6)
		return start.UnixMilli(), nowMs, true
	default:
		return 0, 0, false
	}
}

// ShortcutRowsByRange re-aggregates shortcut usage from closed chunks plus
// the still-open chunk, filtering each compact event by
// chunk_start_ms + dt falling inside [start, end). ok is false for an
// unrecognized range.
func ShortcutRowsByRange(closed []chunk.Closed, open *chunk.Open, appDict map[uint32]string, rules shortcut.Rules, nowMs int64, r Range) (rows []collector.ShortcutRow, ok bool) {
	start, end, ok := windowMs(nowMs, r)
	if !ok {
		return nil, false
	}

	usage := make(map[string]*collector.ShortcutRow)
	accumulateChunk := func(chunkStartMs int64, appRef uint32, events []string) {
		appID := appDict[appRef]
		for _, raw := range events {
			dt, typ, key, mods, err := chunk.Decode(raw)
			if err != nil || typ != chunk.EventTypeDown {
				continue
			}
			eventMs := chunkStartMs + dt
			if eventMs < start || eventMs >= end {
				continue
			}
			accumulate(usage, rules, mods, key, appID)
		}
	}

	for _, c := range closed {
		accumulateChunk(c.ChunkStartMs, c.AppRef, c.Events)
	}
	if open != nil {
		accumulateChunk(open.ChunkStartMs, open.AppRef, open.Events)
	}

	rows = make([]collector.ShortcutRow, 0, len(usage))
	for _, row := range usage {
		rows = append(rows, *row)
	}
	return rows, true
}
