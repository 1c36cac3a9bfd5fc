package snapshot

import (
	"testing"
	"time"

	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/clock"
	"github.com/corvid-labs/typingstats/collector"
	"github.com/corvid-labs/typingstats/event"
	"github.com/corvid-labs/typingstats/modifier"
	"github.com/corvid-labs/typingstats/shortcut"
)

func TestRowsSortOrder(t *testing.T) {
	buckets := []collector.BucketRow{
		{Key: collector.StatsKey{Date: "2026-07-31 10:01", AppName: "b", WindowTitle: "w"}, Value: collector.StatsValue{ActiveTypingMs: 5}},
		{Key: collector.StatsKey{Date: "2026-07-31 10:00", AppName: "b", WindowTitle: "w"}, Value: collector.StatsValue{ActiveTypingMs: 5}},
		{Key: collector.StatsKey{Date: "2026-07-31 10:00", AppName: "a", WindowTitle: "w"}, Value: collector.StatsValue{ActiveTypingMs: 5}},
	}
	rows := Rows(buckets)
	if rows[0].AppName != "a" || rows[1].Date != "2026-07-31 10:00" || rows[2].Date != "2026-07-31 10:01" {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestShortcutLeaderboardCapsAndSorts(t *testing.T) {
	byApp := make(map[string]uint64)
	for i := 0; i < 10; i++ {
		byApp[string(rune('a'+i))] = uint64(10 - i)
	}
	usage := []collector.ShortcutRow{
		{ShortcutID: "cmd_z", Count: 5, ByApp: byApp},
		{ShortcutID: "cmd_a", Count: 5, ByApp: map[string]uint64{"x": 1}},
		{ShortcutID: "cmd_c", Count: 9, ByApp: map[string]uint64{"y": 1}},
	}
	rows := ShortcutLeaderboard(usage)
	if rows[0].ShortcutID != "cmd_c" {
		t.Fatalf("expected cmd_c first by count, got %+v", rows[0])
	}
	if rows[1].ShortcutID != "cmd_a" || rows[2].ShortcutID != "cmd_z" {
		t.Fatalf("expected tie broken by ascending id, got %+v", rows)
	}
	if len(rows[2].TopApps) != leaderboardCap {
		t.Fatalf("len(TopApps) = %d, want %d", len(rows[2].TopApps), leaderboardCap)
	}
	if rows[2].TopApps[0].AppID != "a" || rows[2].TopApps[0].Count != 10 {
		t.Fatalf("top app = %+v, want a:10", rows[2].TopApps[0])
	}
}

func TestRebuildShortcutUsage(t *testing.T) {
	appDict := map[uint32]string{1: "com.test.editor"}
	raw := chunk.Encode(0, chunk.EventTypeDown, "z", modifier.Snapshot{Cmd: true})
	rawRejected := chunk.Encode(10, chunk.EventTypeDown, "z", modifier.Snapshot{Opt: true})
	rawUp := chunk.Encode(20, chunk.EventTypeUp, "z", modifier.Snapshot{Cmd: true})
	closed := []chunk.Closed{{V: 1, ChunkStartMs: 0, AppRef: 1, Events: []string{raw, rawRejected, rawUp}}}

	rows := RebuildShortcutUsage(closed, appDict, shortcut.DefaultRules())
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].ShortcutID != "cmd_z" || rows[0].Count != 1 || rows[0].ByApp["com.test.editor"] != 1 {
		t.Errorf("rebuilt usage = %+v, want one cmd_z/editor entry", rows[0])
	}
}

func TestShortcutRowsByRangeFiltersWindow(t *testing.T) {
	appDict := map[uint32]string{1: "app"}
	rules := shortcut.DefaultRules()

	day := time.Date(2026, 7, 31, 0, 0, 0, 0, time.Local)
	todayMs := day.UnixMilli()
	yesterdayMs := day.AddDate(0, 0, -1).UnixMilli()
	sixDaysAgoMs := day.AddDate(0, 0, -6).UnixMilli()
	eightDaysAgoMs := day.AddDate(0, 0, -8).UnixMilli()

	closed := []chunk.Closed{
		{V: 1, ChunkStartMs: todayMs, AppRef: 1, Events: []string{chunk.Encode(0, chunk.EventTypeDown, "a", modifier.Snapshot{Cmd: true})}},
		{V: 1, ChunkStartMs: yesterdayMs, AppRef: 1, Events: []string{chunk.Encode(0, chunk.EventTypeDown, "b", modifier.Snapshot{Cmd: true})}},
		{V: 1, ChunkStartMs: sixDaysAgoMs, AppRef: 1, Events: []string{chunk.Encode(0, chunk.EventTypeDown, "c", modifier.Snapshot{Cmd: true})}},
		{V: 1, ChunkStartMs: eightDaysAgoMs, AppRef: 1, Events: []string{chunk.Encode(0, chunk.EventTypeDown, "d", modifier.Snapshot{Cmd: true})}},
	}

	nowMs := day.Add(12 * time.Hour).UnixMilli()

	todayRows, ok := ShortcutRowsByRange(closed, nil, appDict, rules, nowMs, RangeToday)
	if !ok || len(todayRows) != 1 || todayRows[0].ShortcutID != "cmd_a" {
		t.Fatalf("today rows = %+v, ok=%v", todayRows, ok)
	}

	yesterdayRows, ok := ShortcutRowsByRange(closed, nil, appDict, rules, nowMs, RangeYesterday)
	if !ok || len(yesterdayRows) != 1 || yesterdayRows[0].ShortcutID != "cmd_b" {
		t.Fatalf("yesterday rows = %+v, ok=%v", yesterdayRows, ok)
	}

	sevenDayRows, ok := ShortcutRowsByRange(closed, nil, appDict, rules, nowMs, RangeSevenDay)
	if !ok || len(sevenDayRows) != 3 {
		t.Fatalf("7d rows = %+v, ok=%v, want 3 (today, yesterday, six-days-ago)", sevenDayRows, ok)
	}

	if _, ok := ShortcutRowsByRange(closed, nil, appDict, rules, nowMs, Range("bogus")); ok {
		t.Errorf("expected unknown range to report ok=false")
	}
}

func TestParseRange(t *testing.T) {
	for _, valid := range []string{"today", "yesterday", "7d"} {
		if _, ok := ParseRange(valid); !ok {
			t.Errorf("ParseRange(%q) should be valid", valid)
		}
	}
	if _, ok := ParseRange("last_week"); ok {
		t.Errorf("ParseRange(last_week) should be invalid")
	}
}

func TestBuildBundlesRowsShortcutsAndStatus(t *testing.T) {
	clk := clock.NewFake("2026-07-31 10:00", "2026-07-31")
	s := collector.New(clk, time.Second)
	ctx := capture.Context{AppName: "Editor", WindowTitle: "main.go", BundleID: "com.example.editor"}

	s.ApplyEvent(event.NewKeyDown("k:z", "z", modifier.Snapshot{Cmd: true}, true, ctx, clk.Now()))
	s.SetIgnoreKeyCombos(true)

	full := Build(s)
	if len(full.Rows) != 1 || full.Rows[0].KeyCount != 1 {
		t.Fatalf("Rows = %+v, want one row with key_count 1", full.Rows)
	}
	if len(full.Shortcuts) != 1 || full.Shortcuts[0].ShortcutID != "cmd_z" {
		t.Fatalf("Shortcuts = %+v, want one cmd_z entry", full.Shortcuts)
	}
	if !full.Status.IgnoreKeyCombos {
		t.Error("Status.IgnoreKeyCombos = false, want true")
	}
	if len(full.Status.ExcludedBundleIDs) != 0 {
		t.Errorf("ExcludedBundleIDs = %v, want empty", full.Status.ExcludedBundleIDs)
	}
}

func TestShortcutRowsForRangeIncludesOpenChunk(t *testing.T) {
	clk := clock.NewFake("2026-07-31 10:00", "2026-07-31")
	s := collector.New(clk, time.Second)
	ctx := capture.Context{AppName: "Editor", BundleID: "com.example.editor"}

	s.ApplyEvent(event.NewKeyDown("k:z", "z", modifier.Snapshot{Cmd: true}, true, ctx, clk.Now()))
	clk.Advance(time.Second) // the today window's end bound is exclusive

	rows, ok := ShortcutRowsForRange(s, clk.NowMs(), RangeToday)
	if !ok {
		t.Fatal("ShortcutRowsForRange rejected RangeToday")
	}
	if len(rows) != 1 || rows[0].ShortcutID != "cmd_z" {
		t.Fatalf("rows = %+v, want one cmd_z entry from the open chunk", rows)
	}

	if _, ok := ShortcutRowsForRange(s, clk.NowMs(), Range("last_century")); ok {
		t.Error("unknown range accepted")
	}
}
