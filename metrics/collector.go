// Package metrics provides daemon-lifetime counters for the collector and
// supervisor. The Collector accumulates under its own mutex, independent of
// the collector state lock, so incrementing from the hot event path never
// extends that lock's critical section. It is a leaf package with no
// internal dependencies. All increment methods are nil-receiver safe, so
// components constructed without metrics skip recording for free.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters. Returned by
// Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Event pipeline
	KeyDownsCounted int64
	KeyDownsDropped int64
	DroppedByReason map[string]int64
	KeyUps          int64
	Ticks           int64

	// Shortcut admission
	ShortcutsAdmitted int64
	ShortcutsRejected int64

	// Persistence
	FlushSuccess int64
	FlushFailure int64

	// Listener lifecycle
	ListenerFailures int64
	ListenerPanics   int64

	// Dimensions (informational, set at construction)
	ProcessInstanceID string
}

// Drop reasons recorded by IncKeyDownDropped.
const (
	DropPaused      = "paused"
	DropAutoPaused  = "auto_paused"
	DropIgnoreCombo = "ignore_combo"
	DropAutoRepeat  = "auto_repeat"
)

// Collector accumulates counters for one daemon process lifetime.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	keyDownsCounted int64
	keyDownsDropped int64
	droppedByReason map[string]int64
	keyUps          int64
	ticks           int64

	shortcutsAdmitted int64
	shortcutsRejected int64

	flushSuccess int64
	flushFailure int64

	listenerFailures int64
	listenerPanics   int64

	processInstanceID string
}

// NewCollector creates a Collector tagged with the owning process's
// instance id.
func NewCollector(processInstanceID string) *Collector {
	return &Collector{
		droppedByReason:   make(map[string]int64),
		processInstanceID: processInstanceID,
	}
}

// IncKeyDownCounted records a KeyDown that passed every gate and mutated
// the bucket table.
func (c *Collector) IncKeyDownCounted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.keyDownsCounted++
	c.mu.Unlock()
}

// IncKeyDownDropped records a KeyDown dropped by a gate, keyed by reason.
func (c *Collector) IncKeyDownDropped(reason string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.keyDownsDropped++
	c.droppedByReason[reason]++
	c.mu.Unlock()
}

// IncKeyUp records a KeyUp application.
func (c *Collector) IncKeyUp() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.keyUps++
	c.mu.Unlock()
}

// IncTick records a Tick application.
func (c *Collector) IncTick() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ticks++
	c.mu.Unlock()
}

// IncShortcutAdmitted records a shortcut id accepted by the admission filter.
func (c *Collector) IncShortcutAdmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.shortcutsAdmitted++
	c.mu.Unlock()
}

// IncShortcutRejected records a shortcut id rejected by the admission filter.
func (c *Collector) IncShortcutRejected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.shortcutsRejected++
	c.mu.Unlock()
}

// IncFlushSuccess records a complete persistence cycle (stats, analytics,
// and CSV mirror all written). Per-cycle, not per-file.
func (c *Collector) IncFlushSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.flushSuccess++
	c.mu.Unlock()
}

// IncFlushFailure records a persistence cycle that reported an error on at
// least one dataset. The next flush cycle retries.
func (c *Collector) IncFlushFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.flushFailure++
	c.mu.Unlock()
}

// IncListenerFailure records a terminal platform-listener error.
func (c *Collector) IncListenerFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.listenerFailures++
	c.mu.Unlock()
}

// IncListenerPanic records a recovered panic in the listener task.
func (c *Collector) IncListenerPanic() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.listenerPanics++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{DroppedByReason: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := make(map[string]int64, len(c.droppedByReason))
	for k, v := range c.droppedByReason {
		dropped[k] = v
	}
	return Snapshot{
		KeyDownsCounted:   c.keyDownsCounted,
		KeyDownsDropped:   c.keyDownsDropped,
		DroppedByReason:   dropped,
		KeyUps:            c.keyUps,
		Ticks:             c.ticks,
		ShortcutsAdmitted: c.shortcutsAdmitted,
		ShortcutsRejected: c.shortcutsRejected,
		FlushSuccess:      c.flushSuccess,
		FlushFailure:      c.flushFailure,
		ListenerFailures:  c.listenerFailures,
		ListenerPanics:    c.listenerPanics,
		ProcessInstanceID: c.processInstanceID,
	}
}
