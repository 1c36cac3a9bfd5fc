// Package chunk implements the compact input-event chunk encoder: open/
// closed chunk rotation and the bounded ring of closed chunks, an
// in-memory, size- and age-bounded log.
package chunk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvid-labs/typingstats/modifier"
)

// Rotation policy constants.
const (
	// WindowMs is the maximum age of an open chunk before rotation.
	WindowMs = 5_000
	// MaxEvents is the maximum event count of an open chunk before rotation.
	MaxEvents = 500
	// MaxStored is the ring-buffer cap on closed chunks; overflow drops the
	// oldest entries.
	MaxStored = 20_000
	// SchemaVersion is the closed-chunk schema version persisted as "v".
	SchemaVersion = 1
)

// EventType discriminates a compact event's t field.
type EventType byte

const (
	// EventTypeDown is a KeyDown compact event.
	EventTypeDown EventType = 'd'
	// EventTypeUp is a KeyUp compact event.
	EventTypeUp EventType = 'u'
)

// Closed is an immutable, rotated-out chunk of compact events sharing one
// app and one 5-second wall-clock window.
type Closed struct {
	V            int      `json:"v"`
	ChunkStartMs int64    `json:"chunk_start_ms"`
	AppRef       uint32   `json:"app_ref"`
	Events       []string `json:"events"`
}

// Open is the single in-progress chunk accumulating events before rotation.
type Open struct {
	ChunkStartMs int64
	AppRef       uint32
	Events       []string
}

// Encode formats a compact event string "dt,t,k,m".
func Encode(dt int64, t EventType, key string, mods modifier.Snapshot) string {
	if dt < 0 {
		dt = 0
	}
	return fmt.Sprintf("%d,%c,%s,%d", dt, byte(t), key, mods.Bitmask())
}

// ParseError reports a malformed compact event string.
type ParseError struct {
	Raw string
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed compact event %q: %s", e.Raw, e.Msg)
}

// Decode parses a compact event string back into its fields. A malformed
// string yields a *ParseError; callers performing bulk rebuilds should skip
// entries that fail to parse rather than aborting the scan.
func Decode(raw string) (dt int64, t EventType, key string, mods modifier.Snapshot, err error) {
	parts := strings.SplitN(raw, ",", 4)
	if len(parts) != 4 {
		return 0, 0, "", modifier.Snapshot{}, &ParseError{Raw: raw, Msg: "expected 4 comma-separated fields"}
	}
	dt, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, "", modifier.Snapshot{}, &ParseError{Raw: raw, Msg: "invalid dt"}
	}
	if len(parts[1]) != 1 {
		return 0, 0, "", modifier.Snapshot{}, &ParseError{Raw: raw, Msg: "invalid event type"}
	}
	t = EventType(parts[1][0])
	key = parts[2]
	maskVal, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil {
		return 0, 0, "", modifier.Snapshot{}, &ParseError{Raw: raw, Msg: "invalid modifier mask"}
	}
	mods = modifier.FromBitmask(uint8(maskVal))
	return dt, t, key, mods, nil
}
