package collector

import (
	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/event"
	"github.com/corvid-labs/typingstats/metrics"
	"github.com/corvid-labs/typingstats/shortcut"
)

// ApplyEvent is the single dispatch entry point for the state machine: one
// mutex-guarded function that routes by variant and never panics on event
// data.
func (s *State) ApplyEvent(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case event.KindKeyDown:
		s.applyKeyDown(e)
	case event.KindKeyUp:
		s.applyKeyUp(e)
	case event.KindTick:
		s.applyTick(e)
	}
}

// applyKeyDown handles a KeyDown. Must be called with mu held.
func (s *State) applyKeyDown(e event.Event) {
	s.computeAutoPause(e.Context)

	switch {
	case s.paused:
		s.metrics.IncKeyDownDropped(metrics.DropPaused)
		return
	case s.autoPaused:
		s.metrics.IncKeyDownDropped(metrics.DropAutoPaused)
		return
	case s.ignoreKeyCombos && e.IsKeyCombo:
		s.metrics.IncKeyDownDropped(metrics.DropIgnoreCombo)
		return
	}
	if _, pressed := s.pressedKeys[e.PhysicalKeyID]; pressed {
		s.metrics.IncKeyDownDropped(metrics.DropAutoRepeat)
		return
	}
	s.pressedKeys[e.PhysicalKeyID] = struct{}{}

	appID := e.Context.AppID()
	appRef := s.resolveAppRef(appID)
	s.encoder.Append(appRef, s.clock.NowMs(), chunk.EventTypeDown, e.ShortcutKey, e.Modifiers)

	shortcutID := shortcut.Normalize(e.Modifiers, e.ShortcutKey)
	if shortcut.Admit(s.rules, e.Modifiers, shortcutID) {
		usage, ok := s.shortcutUsage[shortcutID]
		if !ok {
			usage = &ShortcutUsage{ByApp: make(map[string]uint64)}
			s.shortcutUsage[shortcutID] = usage
		}
		usage.Count++
		usage.ByApp[appID]++
		s.metrics.IncShortcutAdmitted()
	} else {
		s.metrics.IncShortcutRejected()
	}

	key := StatsKey{Date: s.clock.CurrentMinute(), AppName: appID, WindowTitle: e.Context.WindowTitle}
	value, ok := s.buckets[key]
	if !ok {
		value = &StatsValue{}
		s.buckets[key] = value
	}

	delta := e.At.Sub(s.lastTypingInstant)
	value.KeyCount++
	if s.lastTypingInstant.IsZero() || delta > s.sessionGap {
		value.SessionCount++
	}

	s.lastTypingInstant = e.At
	k := key
	s.activeStatsKey = &k
	s.metrics.IncKeyDownCounted()
}

// applyKeyUp handles a KeyUp. Key-ups always clean state; they are never
// gated by pause. Must be called with mu held.
func (s *State) applyKeyUp(e event.Event) {
	appID := e.Context.AppID()
	appRef := s.resolveAppRef(appID)
	s.encoder.Append(appRef, s.clock.NowMs(), chunk.EventTypeUp, e.ShortcutKey, e.Modifiers)

	delete(s.pressedKeys, e.PhysicalKeyID)
	if len(s.pressedKeys) == 0 {
		s.activeStatsKey = nil
	}
	s.metrics.IncKeyUp()
}

// applyTick handles a Tick. Must be called with mu held.
func (s *State) applyTick(e event.Event) {
	s.computeAutoPause(e.Context)
	s.metrics.IncTick()

	if s.paused || s.autoPaused {
		s.pressedKeys = make(map[string]struct{})
		s.activeStatsKey = nil
		return
	}

	if len(s.pressedKeys) > 0 && s.activeStatsKey != nil {
		value, ok := s.buckets[*s.activeStatsKey]
		if ok {
			value.ActiveTypingMs += uint64(e.Elapsed.Milliseconds())
			s.lastTypingInstant = e.At
		}
	}
}
