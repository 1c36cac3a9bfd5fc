package collector

import (
	"sort"

	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/shortcut"
)

// BucketRow is one StatsKey/StatsValue pair, copied out from under the lock
// so callers (the snapshot and storage packages) never touch live state.
type BucketRow struct {
	Key   StatsKey
	Value StatsValue
}

// Buckets returns a point-in-time copy of every stats bucket. Order is
// unspecified; sorting is the snapshot package's job.
func (s *State) Buckets() []BucketRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]BucketRow, 0, len(s.buckets))
	for k, v := range s.buckets {
		rows = append(rows, BucketRow{Key: k, Value: *v})
	}
	return rows
}

// ShortcutRow is one shortcut id's usage, copied out from under the lock.
type ShortcutRow struct {
	ShortcutID string
	Count      uint64
	ByApp      map[string]uint64
}

// ShortcutUsageRows returns a point-in-time copy of shortcut usage.
func (s *State) ShortcutUsageRows() []ShortcutRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]ShortcutRow, 0, len(s.shortcutUsage))
	for id, usage := range s.shortcutUsage {
		byApp := make(map[string]uint64, len(usage.ByApp))
		for app, n := range usage.ByApp {
			byApp[app] = n
		}
		rows = append(rows, ShortcutRow{ShortcutID: id, Count: usage.Count, ByApp: byApp})
	}
	return rows
}

// AppDict returns a point-in-time copy of the full app_ref dictionary. It is
// not scoped; the storage package narrows it per shard to the refs that
// shard's chunks actually use.
func (s *State) AppDict() map[uint32]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint32]string, len(s.appDict))
	for ref, app := range s.appDict {
		out[ref] = app
	}
	return out
}

// NextAppRef returns the next app_ref that would be allocated.
func (s *State) NextAppRef() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAppRef
}

// ClosedChunks returns the closed-chunk ring, force-flushing the open chunk
// first so in-flight events are included in the snapshot.
func (s *State) ClosedChunks() []chunk.Closed {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoder.Flush()
	return s.encoder.Closed()
}

// ChunksView is a lock-consistent copy of everything a range query needs:
// the closed ring, the still-open chunk, the app dictionary, and the
// admission rules in force. Unlike ClosedChunks it does not force-flush the
// open chunk, so querying never perturbs rotation.
type ChunksView struct {
	Closed  []chunk.Closed
	Open    *chunk.Open
	AppDict map[uint32]string
	Rules   shortcut.Rules
}

// Chunks returns a point-in-time ChunksView.
func (s *State) Chunks() ChunksView {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := ChunksView{
		Closed:  append([]chunk.Closed(nil), s.encoder.Closed()...),
		AppDict: make(map[uint32]string, len(s.appDict)),
		Rules:   s.rules.Clone(),
	}
	for ref, app := range s.appDict {
		view.AppDict[ref] = app
	}
	if open := s.encoder.Open(); open != nil {
		cp := chunk.Open{
			ChunkStartMs: open.ChunkStartMs,
			AppRef:       open.AppRef,
			Events:       append([]string(nil), open.Events...),
		}
		view.Open = &cp
	}
	return view
}

// Rules returns a deep copy of the admission-filter ruleset in force.
func (s *State) Rules() shortcut.Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.Clone()
}

// Status is the point-in-time bundle of every control-surface flag, copied
// out under the lock for the UI to poll alongside the row snapshots.
type Status struct {
	Paused                       bool
	AutoPaused                   bool
	AutoPauseReason              AutoPauseReason
	IgnoreKeyCombos              bool
	MenuBarDisplayMode           MenuBarDisplayMode
	OnePasswordSuggestionPending bool
	KeyboardActive               bool
	LastError                    string
	ExcludedBundleIDs            []string
}

// Status returns the current control-surface flags and the normalized
// exclusion list.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	excluded := make([]string, 0, len(s.excludedBundles))
	for id := range s.excludedBundles {
		excluded = append(excluded, id)
	}
	sort.Strings(excluded)
	return Status{
		Paused:                       s.paused,
		AutoPaused:                   s.autoPaused,
		AutoPauseReason:              s.autoPauseReason,
		IgnoreKeyCombos:              s.ignoreKeyCombos,
		MenuBarDisplayMode:           s.menuBarDisplayMode,
		OnePasswordSuggestionPending: s.onePasswordSuggestionPending,
		KeyboardActive:               s.keyboardActive,
		LastError:                    s.lastError,
		ExcludedBundleIDs:            excluded,
	}
}

// FlushExpiredChunks closes the open chunk if its age has reached the
// rotation window, called by the supervisor's tick loop to bound drift
// between the last observed key event and the next persistence cycle.
func (s *State) FlushExpiredChunks(nowMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoder.FlushExpired(nowMs)
}

// LoadPersisted restores buckets, the app dictionary, and closed chunks from
// a prior save, then rebuilds shortcut usage from the restored chunks (usage
// itself is never persisted directly; see storage.LoadInputAnalytics).
func (s *State) LoadPersisted(buckets []BucketRow, appDict map[uint32]string, nextAppRef uint32, closed []chunk.Closed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[StatsKey]*StatsValue, len(buckets))
	for _, row := range buckets {
		v := row.Value
		s.buckets[row.Key] = &v
	}

	s.appDict = make(map[uint32]string, len(appDict))
	s.appRefByApp = make(map[string]uint32, len(appDict))
	for ref, app := range appDict {
		s.appDict[ref] = app
		s.appRefByApp[app] = ref
	}
	s.nextAppRef = nextAppRef
	if s.nextAppRef == 0 {
		s.nextAppRef = 1
	}

	s.encoder.SetClosed(closed)
	s.rebuildShortcutUsageLocked()
}

// rebuildShortcutUsageLocked recomputes shortcut usage from the closed chunk
// ring, the same derivation snapshot.RebuildShortcutUsage performs on raw
// persisted chunks, kept here too so a freshly loaded State is immediately
// consistent without a separate rebuild call. Must be called with mu held.
func (s *State) rebuildShortcutUsageLocked() {
	s.shortcutUsage = make(map[string]*ShortcutUsage)
	for _, c := range s.encoder.Closed() {
		appID := s.appDict[c.AppRef]
		for _, raw := range c.Events {
			_, typ, key, mods, err := chunk.Decode(raw)
			if err != nil || typ != chunk.EventTypeDown {
				continue
			}
			shortcutID := shortcut.Normalize(mods, key)
			if !shortcut.Admit(s.rules, mods, shortcutID) {
				continue
			}
			usage, ok := s.shortcutUsage[shortcutID]
			if !ok {
				usage = &ShortcutUsage{ByApp: make(map[string]uint64)}
				s.shortcutUsage[shortcutID] = usage
			}
			usage.Count++
			usage.ByApp[appID]++
		}
	}
}
