// Package event defines the normalized collector event model: the tagged
// variant {KeyDown, KeyUp, Tick} that the capture pipeline feeds into the
// state machine.
package event

import (
	"time"

	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/clock"
	"github.com/corvid-labs/typingstats/modifier"
)

// Kind discriminates the event variant.
type Kind int

const (
	// KindKeyDown is a non-modifier key press.
	KindKeyDown Kind = iota
	// KindKeyUp is a non-modifier key release.
	KindKeyUp
	// KindTick is a periodic scheduler wakeup carrying elapsed time.
	KindTick
)

func (k Kind) String() string {
	switch k {
	case KindKeyDown:
		return "key_down"
	case KindKeyUp:
		return "key_up"
	case KindTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Event is the single dispatchable type the listener and tick producers
// feed into the collector's apply function. Only the fields relevant to
// Kind are populated; see the per-field doc comments.
type Event struct {
	Kind Kind

	// PhysicalKeyID uniquely identifies a physical key for repeat
	// suppression. Set for KeyDown/KeyUp only.
	PhysicalKeyID string
	// ShortcutKey is the canonical lowercase key symbol. Set for
	// KeyDown/KeyUp only.
	ShortcutKey string
	// Modifiers is the modifier snapshot captured at the moment of the
	// event. Set for KeyDown/KeyUp only.
	Modifiers modifier.Snapshot
	// IsKeyCombo is true iff at least one modifier was held before this
	// KeyDown. Set for KeyDown only.
	IsKeyCombo bool

	// Elapsed is the monotonic duration since the previous tick. Set for
	// Tick only.
	Elapsed time.Duration

	// Context is the capture context snapshot at the moment of this event,
	// set for all variants.
	Context capture.Context
	// At is the monotonic instant at which this event was observed, set for
	// all variants.
	At clock.Instant
}

// NewKeyDown constructs a KeyDown event.
func NewKeyDown(physicalKeyID, shortcutKey string, mods modifier.Snapshot, isCombo bool, ctx capture.Context, at clock.Instant) Event {
	return Event{
		Kind:          KindKeyDown,
		PhysicalKeyID: physicalKeyID,
		ShortcutKey:   shortcutKey,
		Modifiers:     mods,
		IsKeyCombo:    isCombo,
		Context:       ctx,
		At:            at,
	}
}

// NewKeyUp constructs a KeyUp event.
func NewKeyUp(physicalKeyID, shortcutKey string, mods modifier.Snapshot, ctx capture.Context, at clock.Instant) Event {
	return Event{
		Kind:          KindKeyUp,
		PhysicalKeyID: physicalKeyID,
		ShortcutKey:   shortcutKey,
		Modifiers:     mods,
		Context:       ctx,
		At:            at,
	}
}

// NewTick constructs a Tick event.
func NewTick(elapsed time.Duration, ctx capture.Context, at clock.Instant) Event {
	return Event{
		Kind:    KindTick,
		Elapsed: elapsed,
		Context: ctx,
		At:      at,
	}
}
