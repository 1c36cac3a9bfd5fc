package chunk

import "github.com/corvid-labs/typingstats/modifier"

// Encoder owns the single open chunk and the bounded ring of closed chunks.
// It is not safe for concurrent use; callers (the collector state machine)
// must hold their own lock around every call.
type Encoder struct {
	open   *Open
	closed []Closed
}

// NewEncoder creates an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Append appends one compact event, rotating the open chunk first if the
// rotation policy (app change, age, or event count) demands it. nowMs is
// the current UTC wall-clock time in milliseconds.
func (e *Encoder) Append(appRef uint32, nowMs int64, t EventType, key string, mods modifier.Snapshot) {
	e.rotateIfNeeded(appRef, nowMs)
	dt := nowMs - e.open.ChunkStartMs
	e.open.Events = append(e.open.Events, Encode(dt, t, key, mods))
}

// FlushExpired closes the open chunk if its age has reached WindowMs, even
// without a new event arriving. Called by the tick loop to reduce drift
// before periodic persistence.
func (e *Encoder) FlushExpired(nowMs int64) {
	if e.open == nil {
		return
	}
	if nowMs-e.open.ChunkStartMs < WindowMs {
		return
	}
	e.closeOpen()
}

// Flush force-closes the open chunk regardless of age, used when building a
// persistence snapshot so in-flight events aren't lost.
func (e *Encoder) Flush() {
	if e.open != nil {
		e.closeOpen()
	}
}

// Closed returns the current closed-chunk ring, oldest first.
func (e *Encoder) Closed() []Closed {
	return e.closed
}

// SetClosed replaces the closed-chunk ring, used when loading persisted
// analytics shards. Entries beyond MaxStored are dropped from the front.
func (e *Encoder) SetClosed(chunks []Closed) {
	if len(chunks) > MaxStored {
		chunks = chunks[len(chunks)-MaxStored:]
	}
	e.closed = chunks
}

// Open returns the current open chunk, or nil if none exists.
func (e *Encoder) Open() *Open {
	return e.open
}

func (e *Encoder) rotateIfNeeded(appRef uint32, nowMs int64) {
	if e.open == nil {
		e.startNew(appRef, nowMs)
		return
	}
	needsRotation := e.open.AppRef != appRef ||
		nowMs-e.open.ChunkStartMs >= WindowMs ||
		len(e.open.Events) >= MaxEvents
	if needsRotation {
		e.closeOpen()
		e.startNew(appRef, nowMs)
	}
}

func (e *Encoder) startNew(appRef uint32, nowMs int64) {
	e.open = &Open{ChunkStartMs: nowMs, AppRef: appRef}
}

func (e *Encoder) closeOpen() {
	if e.open == nil || len(e.open.Events) == 0 {
		e.open = nil
		return
	}
	e.pushClosed(Closed{
		V:            SchemaVersion,
		ChunkStartMs: e.open.ChunkStartMs,
		AppRef:       e.open.AppRef,
		Events:       e.open.Events,
	})
	e.open = nil
}

func (e *Encoder) pushClosed(c Closed) {
	e.closed = append(e.closed, c)
	if len(e.closed) > MaxStored {
		overflow := len(e.closed) - MaxStored
		e.closed = e.closed[overflow:]
	}
}
