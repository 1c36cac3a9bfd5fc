package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *JSONFileStorage {
	t.Helper()
	dir := t.TempDir()
	return NewJSONFileStorage(dir, "typingstats-details.json")
}

func TestSaveLoadStatsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	rows := []StatsRow{
		{Date: "2026-02-09 10:00", AppName: "editor", WindowTitle: "a.go", ActiveTypingMs: 100, KeyCount: 5, SessionCount: 1},
		{Date: "2026-02-10 11:00", AppName: "editor", WindowTitle: "b.go", ActiveTypingMs: 200, KeyCount: 7, SessionCount: 1},
	}
	if err := s.SaveStats(rows); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}

	entries, _ := os.ReadDir(s.dir)
	var jsonFiles int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			jsonFiles++
		}
	}
	if jsonFiles != 2 {
		t.Fatalf("expected 2 daily shard files, got %d", jsonFiles)
	}
	if _, err := os.Stat(s.legacyStatsPath()); !os.IsNotExist(err) {
		t.Errorf("expected no legacy stats file after save, got err=%v", err)
	}

	loaded, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len(loaded) = %d, want 2", len(loaded))
	}
}

func TestLoadStatsSumsDuplicateKeys(t *testing.T) {
	s := newTestStorage(t)
	rows := []StatsRow{
		{Date: "2026-02-09 10:00", AppName: "editor", WindowTitle: "a.go", ActiveTypingMs: 100, KeyCount: 5, SessionCount: 1},
		{Date: "2026-02-09 10:00", AppName: "editor", WindowTitle: "a.go", ActiveTypingMs: 50, KeyCount: 2, SessionCount: 1},
	}
	if err := s.SaveStats(rows); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}
	loaded, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ActiveTypingMs != 150 || loaded[0].KeyCount != 7 {
		t.Fatalf("loaded = %+v, want one summed row", loaded)
	}
}

func TestLoadStatsAcceptsLegacyBareArray(t *testing.T) {
	s := newTestStorage(t)
	legacy := []StatsRow{{Date: "2026-02-09 10:00", AppName: "editor", WindowTitle: "a.go", ActiveTypingMs: 10, KeyCount: 1, SessionCount: 1}}
	data, _ := json.Marshal(legacy)
	if err := os.WriteFile(s.legacyStatsPath(), data, 0o644); err != nil {
		t.Fatalf("seed legacy file: %v", err)
	}
	loaded, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if len(loaded) != 1 || loaded[0].AppName != "editor" {
		t.Fatalf("loaded = %+v, want legacy row parsed", loaded)
	}
}

func TestLoadStatsMalformedLegacyFails(t *testing.T) {
	s := newTestStorage(t)
	if err := os.WriteFile(s.legacyStatsPath(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed legacy file: %v", err)
	}
	if _, err := s.LoadStats(); err == nil {
		t.Fatalf("expected malformed legacy file to fail LoadStats")
	}
}

func TestLoadStatsMalformedDailyIsSkipped(t *testing.T) {
	s := newTestStorage(t)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(s.dailyStatsPath("2026-02-09"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed malformed daily file: %v", err)
	}
	loaded, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats should skip malformed daily file, got err: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %+v, want empty", loaded)
	}
}

func TestSaveLoadAnalyticsRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	day := time.Date(2026, 2, 9, 10, 0, 0, 0, time.Local).UnixMilli()
	a := Analytics{
		AppDict:    map[uint32]string{1: "editor", 2: "browser"},
		NextAppRef: 3,
		Chunks: []ChunkDocument{
			{V: 1, ChunkStartMs: day, AppRef: 1, Events: []string{"0,d,a,8"}},
		},
	}
	if err := s.SaveInputAnalytics(a); err != nil {
		t.Fatalf("SaveInputAnalytics: %v", err)
	}

	loaded, err := s.LoadInputAnalytics()
	if err != nil {
		t.Fatalf("LoadInputAnalytics: %v", err)
	}
	if loaded.NextAppRef != 3 {
		t.Errorf("NextAppRef = %d, want 3", loaded.NextAppRef)
	}
	if len(loaded.Chunks) != 1 {
		t.Fatalf("len(Chunks) = %d, want 1", len(loaded.Chunks))
	}
	if loaded.AppDict[1] != "editor" {
		t.Errorf("AppDict[1] = %q, want editor", loaded.AppDict[1])
	}
	if _, ok := loaded.AppDict[2]; ok {
		t.Errorf("AppDict should be scoped to referenced app_refs only, found ref 2 (browser, unreferenced)")
	}
}

func TestMigrateLegacyRemovesLegacyFile(t *testing.T) {
	s := newTestStorage(t)
	legacy := statsDocument{Rows: []StatsRow{{Date: "2026-02-09 10:00", AppName: "editor", WindowTitle: "a.go", KeyCount: 1, SessionCount: 1}}}
	data, _ := json.Marshal(legacy)
	if err := os.WriteFile(s.legacyStatsPath(), data, 0o644); err != nil {
		t.Fatalf("seed legacy file: %v", err)
	}

	migrated, err := s.MigrateLegacy()
	if err != nil {
		t.Fatalf("MigrateLegacy: %v", err)
	}
	if !migrated {
		t.Errorf("expected migrated=true")
	}
	if _, statErr := os.Stat(s.legacyStatsPath()); !os.IsNotExist(statErr) {
		t.Errorf("legacy file should be removed after migration")
	}
	if _, statErr := os.Stat(s.dailyStatsPath("2026-02-09")); statErr != nil {
		t.Errorf("expected daily shard to exist after migration: %v", statErr)
	}
}

func TestMigrateLegacyNoopWithoutLegacyFile(t *testing.T) {
	s := newTestStorage(t)
	migrated, err := s.MigrateLegacy()
	if err != nil {
		t.Fatalf("MigrateLegacy: %v", err)
	}
	if migrated {
		t.Errorf("expected migrated=false with no legacy file present")
	}
}
