// Package storage implements the daily-sharded JSON persistence layer:
// bucket stats and compact-chunk analytics, each split into per-calendar-day
// shard files with atomic temp-then-rename writes and legacy monolithic-file
// migration.
package storage

// StatsRow is the on-disk shape of one bucket row.
type StatsRow struct {
	Date           string `json:"date"`
	AppName        string `json:"app_name"`
	WindowTitle    string `json:"window_title"`
	ActiveTypingMs uint64 `json:"active_typing_ms"`
	KeyCount       uint64 `json:"key_count"`
	SessionCount   uint64 `json:"session_count"`
}

// statsDocument is the structured daily-shard form, `{rows: [...]}`. Legacy
// files may instead be a bare `[rows]` array; parseStatsPayload accepts both.
type statsDocument struct {
	Rows []StatsRow `json:"rows"`
}

// ChunkDocument is the on-disk shape of one closed chunk within an analytics
// shard.
type ChunkDocument struct {
	V            int      `json:"v"`
	ChunkStartMs int64    `json:"chunk_start_ms"`
	AppRef       uint32   `json:"app_ref"`
	Events       []string `json:"events"`
}

// AnalyticsDocument is the on-disk shape of one analytics shard.
// ShortcutUsage is always persisted empty; it is rebuilt from Chunks after
// load by collector.State.LoadPersisted (or snapshot.RebuildShortcutUsage
// for read-only commands), not here.
type AnalyticsDocument struct {
	ShortcutUsage map[string]any          `json:"shortcut_usage"`
	AppDict       map[string]string       `json:"app_dict"`
	NextAppRef    uint32                  `json:"next_app_ref"`
	EventChunks   []ChunkDocument         `json:"event_chunks"`
}

// Analytics is the in-memory, typed form of a loaded/merged analytics
// dataset, keyed by uint32 app_ref rather than AnalyticsDocument's
// JSON-object string keys.
type Analytics struct {
	AppDict    map[uint32]string
	NextAppRef uint32
	Chunks     []ChunkDocument
}

// DetailStorage is the persistence collaborator, the one storage seam kept
// polymorphic. Any implementation must be safe to call concurrently from
// the tick thread.
type DetailStorage interface {
	LoadStats() ([]StatsRow, error)
	SaveStats(rows []StatsRow) error
	LoadInputAnalytics() (Analytics, error)
	SaveInputAnalytics(a Analytics) error
}
