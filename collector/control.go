package collector

import (
	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/shortcut"
)

// Pause sets the user-initiated pause flag. Pausing resets pressed/active
// state so a key held across the pause boundary cannot keep earning time.
func (s *State) Pause(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	if paused {
		s.pressedKeys = make(map[string]struct{})
		s.activeStatsKey = nil
	}
}

// IsPaused reports the user-initiated pause flag.
func (s *State) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetIgnoreKeyCombos toggles whether key-combo KeyDowns are dropped.
func (s *State) SetIgnoreKeyCombos(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignoreKeyCombos = ignore
}

// SetMenuBarDisplayMode sets the tray display preference. Unknown values
// are silently ignored.
func (s *State) SetMenuBarDisplayMode(mode MenuBarDisplayMode) {
	switch mode {
	case DisplayIconOnly, DisplayTextOnly, DisplayIconText:
	default:
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuBarDisplayMode = mode
}

// SetShortcutRules replaces the admission-filter ruleset wholesale.
func (s *State) SetShortcutRules(rules shortcut.Rules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules.Clone()
}

// SetExcludedBundleIDs replaces the exclusion list wholesale, normalizing
// and deduplicating every entry.
func (s *State) SetExcludedBundleIDs(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excludedBundles = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.addExcludedLocked(id)
	}
}

// AddExcludedBundleID adds one app id to the exclusion list.
func (s *State) AddExcludedBundleID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addExcludedLocked(id)
}

// RemoveExcludedBundleID removes one app id from the exclusion list.
func (s *State) RemoveExcludedBundleID(id string) {
	normalized := capture.NormalizeBundleID(id)
	if normalized == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.excludedBundles, normalized)
}

func (s *State) addExcludedLocked(id string) {
	normalized := capture.NormalizeBundleID(id)
	if normalized == "" {
		return
	}
	s.excludedBundles[normalized] = struct{}{}
}

// ExcludedBundleIDs returns a snapshot of the normalized exclusion list in
// no particular order (Status returns the same list sorted).
func (s *State) ExcludedBundleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.excludedBundles))
	for id := range s.excludedBundles {
		out = append(out, id)
	}
	return out
}

// SetOnePasswordSuggestionPending sets the advisory UI flag tracked by the
// control surface on behalf of the (out-of-scope) UI layer.
func (s *State) SetOnePasswordSuggestionPending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onePasswordSuggestionPending = pending
}

// ClearStats clears buckets, shortcut usage, and compact chunks. Persisting
// the now-empty state is the supervisor's responsibility; state mutation
// and storage I/O stay separate.
func (s *State) ClearStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[StatsKey]*StatsValue)
	s.shortcutUsage = make(map[string]*ShortcutUsage)
	s.encoder = chunk.NewEncoder()
	s.pressedKeys = make(map[string]struct{})
	s.activeStatsKey = nil
}

// SetLastError records the most recent listener error for the UI to poll.
func (s *State) SetLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// SetKeyboardActive records whether the listener is currently running.
func (s *State) SetKeyboardActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyboardActive = active
}
