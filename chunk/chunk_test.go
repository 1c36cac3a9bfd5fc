package chunk

import (
	"testing"

	"github.com/corvid-labs/typingstats/modifier"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	mods := modifier.Snapshot{Cmd: true, Shift: true}
	raw := Encode(123, EventTypeDown, "z", mods)
	if raw != "123,d,z,12" {
		t.Fatalf("Encode = %q, want 123,d,z,12", raw)
	}
	dt, typ, key, gotMods, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if dt != 123 || typ != EventTypeDown || key != "z" || gotMods != mods {
		t.Errorf("Decode = (%d, %c, %q, %+v), want (123, d, z, %+v)", dt, typ, key, gotMods, mods)
	}
}

func TestEncodeClampsNegativeDt(t *testing.T) {
	raw := Encode(-5, EventTypeUp, "a", modifier.Snapshot{})
	dt, _, _, _, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if dt != 0 {
		t.Errorf("dt = %d, want clamped to 0", dt)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{"", "1,2", "x,d,z,1", "1,d,z,x"}
	for _, raw := range cases {
		if _, _, _, _, err := Decode(raw); err == nil {
			t.Errorf("Decode(%q) should error", raw)
		}
	}
}

func TestRotationOnAppChange(t *testing.T) {
	e := NewEncoder()
	e.Append(1, 1000, EventTypeDown, "a", modifier.Snapshot{})
	e.Append(2, 1001, EventTypeDown, "b", modifier.Snapshot{})

	closed := e.Closed()
	if len(closed) != 1 {
		t.Fatalf("len(Closed()) = %d, want 1 after app change", len(closed))
	}
	if closed[0].AppRef != 1 || len(closed[0].Events) != 1 {
		t.Errorf("closed chunk = %+v, want one event for app 1", closed[0])
	}
	if e.Open().AppRef != 2 {
		t.Errorf("open chunk app = %d, want 2", e.Open().AppRef)
	}
}

func TestRotationOnAge(t *testing.T) {
	e := NewEncoder()
	e.Append(1, 0, EventTypeDown, "a", modifier.Snapshot{})
	e.Append(1, WindowMs, EventTypeDown, "b", modifier.Snapshot{})

	if len(e.Closed()) != 1 {
		t.Fatalf("len(Closed()) = %d, want 1 after age rotation", len(e.Closed()))
	}
	if e.Open().ChunkStartMs != WindowMs {
		t.Errorf("open chunk start = %d, want %d", e.Open().ChunkStartMs, WindowMs)
	}
}

func TestRotationOnEventCount(t *testing.T) {
	e := NewEncoder()
	for i := 0; i < MaxEvents; i++ {
		e.Append(1, int64(i), EventTypeDown, "a", modifier.Snapshot{})
	}
	if len(e.Closed()) != 0 {
		t.Fatalf("len(Closed()) = %d, want 0 before hitting the cap", len(e.Closed()))
	}
	e.Append(1, int64(MaxEvents), EventTypeDown, "a", modifier.Snapshot{})
	if len(e.Closed()) != 1 {
		t.Fatalf("len(Closed()) = %d, want 1 once the cap is exceeded", len(e.Closed()))
	}
	if len(e.Closed()[0].Events) != MaxEvents {
		t.Errorf("closed chunk event count = %d, want %d", len(e.Closed()[0].Events), MaxEvents)
	}
}

func TestRingOverflowDropsOldest(t *testing.T) {
	e := NewEncoder()
	for i := 0; i < MaxStored+5; i++ {
		e.Append(uint32(i), int64(i)*WindowMs, EventTypeDown, "a", modifier.Snapshot{})
	}
	e.Flush()
	if len(e.Closed()) != MaxStored {
		t.Fatalf("len(Closed()) = %d, want capped at %d", len(e.Closed()), MaxStored)
	}
	if e.Closed()[0].AppRef != 5 {
		t.Errorf("oldest surviving chunk appRef = %d, want 5 (first 5 dropped)", e.Closed()[0].AppRef)
	}
}

func TestFlushExpired(t *testing.T) {
	e := NewEncoder()
	e.Append(1, 0, EventTypeDown, "a", modifier.Snapshot{})
	e.FlushExpired(WindowMs - 1)
	if e.Open() == nil {
		t.Fatalf("open chunk should survive below the age threshold")
	}
	e.FlushExpired(WindowMs)
	if e.Open() != nil {
		t.Errorf("open chunk should close once age reaches WindowMs")
	}
	if len(e.Closed()) != 1 {
		t.Errorf("len(Closed()) = %d, want 1 after expiry flush", len(e.Closed()))
	}
}

func TestFlushOnEmptyOpenIsNoop(t *testing.T) {
	e := NewEncoder()
	e.Flush()
	if e.Open() != nil || len(e.Closed()) != 0 {
		t.Errorf("flushing an empty encoder should be a no-op")
	}
}
