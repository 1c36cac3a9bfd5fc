// Package collector implements the in-memory typing-telemetry state
// machine: key-repeat suppression, session boundaries, auto-pause, exact
// time accounting, shortcut admission, and compact event logging. All of
// it lives in a single mutex-guarded struct with one dispatch entry point,
// ApplyEvent, so runtime and tests exercise identical semantics.
package collector

import (
	"sync"
	"time"

	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/clock"
	"github.com/corvid-labs/typingstats/metrics"
	"github.com/corvid-labs/typingstats/shortcut"
)

// StatsKey identifies one minute-bucketed typing-intensity row.
type StatsKey struct {
	Date        string // local minute bucket, "YYYY-MM-DD HH:MM"
	AppName     string // app id (preferred) or display name
	WindowTitle string
}

// StatsValue is the mutable accumulator for one StatsKey. Fields are
// monotonically increasing; they never decrease.
type StatsValue struct {
	ActiveTypingMs uint64
	KeyCount       uint64
	SessionCount   uint64
}

// ShortcutUsage is the per-shortcut-id aggregate: total count plus a
// per-application breakdown.
type ShortcutUsage struct {
	Count uint64
	ByApp map[string]uint64
}

// AutoPauseReason enumerates why auto-pause is currently engaged.
type AutoPauseReason string

const (
	// AutoPauseNone means auto-pause is not engaged.
	AutoPauseNone AutoPauseReason = ""
	// AutoPauseSecureInput means the platform reported secure input active.
	// Takes priority over AutoPauseBlacklist when both apply.
	AutoPauseSecureInput AutoPauseReason = "secure_input"
	// AutoPauseBlacklist means the foreground app is on the exclusion list.
	AutoPauseBlacklist AutoPauseReason = "blacklist"
)

// MenuBarDisplayMode is the operator-facing display preference for the
// menu-bar/tray surface (rendering itself is out of scope; this is just the
// stored preference value).
type MenuBarDisplayMode string

// Display mode values accepted by the control surface.
const (
	DisplayIconOnly MenuBarDisplayMode = "icon_only"
	DisplayTextOnly MenuBarDisplayMode = "text_only"
	DisplayIconText MenuBarDisplayMode = "icon_text"
)

// State is the collector's full mutable state, guarded by its own mutex.
// No field is ever read or written without holding mu; exported methods
// acquire it internally so callers never see a half-updated snapshot.
type State struct {
	mu sync.Mutex

	clock      clock.Clock
	sessionGap time.Duration

	paused          bool
	ignoreKeyCombos bool
	autoPaused      bool
	autoPauseReason AutoPauseReason

	excludedBundles map[string]struct{}
	rules           shortcut.Rules

	pressedKeys       map[string]struct{}
	activeStatsKey    *StatsKey
	lastTypingInstant clock.Instant

	buckets       map[StatsKey]*StatsValue
	shortcutUsage map[string]*ShortcutUsage

	appDict     map[uint32]string
	appRefByApp map[string]uint32
	nextAppRef  uint32

	encoder *chunk.Encoder

	menuBarDisplayMode           MenuBarDisplayMode
	onePasswordSuggestionPending bool

	keyboardActive bool
	lastError      string

	// metrics is optional; every call site is nil-receiver safe.
	metrics *metrics.Collector
}

// New creates an empty collector State. sessionGap must be >= 1s; New does
// not clamp it. The supervisor passes a value that config.Load has already
// clamped to that floor.
func New(clk clock.Clock, sessionGap time.Duration) *State {
	return &State{
		clock:              clk,
		sessionGap:         sessionGap,
		excludedBundles:    make(map[string]struct{}),
		rules:              shortcut.DefaultRules(),
		pressedKeys:        make(map[string]struct{}),
		buckets:            make(map[StatsKey]*StatsValue),
		shortcutUsage:      make(map[string]*ShortcutUsage),
		appDict:            make(map[uint32]string),
		appRefByApp:        make(map[string]uint32),
		nextAppRef:         1,
		encoder:            chunk.NewEncoder(),
		menuBarDisplayMode: DisplayIconText,
		keyboardActive:     true,
	}
}

// SetMetrics attaches a metrics collector. Passing nil detaches it; all
// recording sites tolerate a nil collector.
func (s *State) SetMetrics(m *metrics.Collector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// resolveAppRef returns the app_ref for appID, lazily registering a new
// dictionary entry. Must be called with mu held.
func (s *State) resolveAppRef(appID string) uint32 {
	if ref, ok := s.appRefByApp[appID]; ok {
		return ref
	}
	ref := s.nextAppRef
	s.nextAppRef++
	s.appRefByApp[appID] = ref
	s.appDict[ref] = appID
	return ref
}

// computeAutoPause recomputes auto-pause state from a capture context.
// Secure input takes priority over the blacklist.
// Must be called with mu held.
func (s *State) computeAutoPause(ctx capture.Context) {
	if ctx.SecureInput {
		s.autoPaused = true
		s.autoPauseReason = AutoPauseSecureInput
		return
	}
	if _, excluded := s.excludedBundles[ctx.BundleID]; excluded {
		s.autoPaused = true
		s.autoPauseReason = AutoPauseBlacklist
		return
	}
	s.autoPaused = false
	s.autoPauseReason = AutoPauseNone
}
