package event

import (
	"testing"
	"time"

	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/clock"
	"github.com/corvid-labs/typingstats/modifier"
)

func TestConstructorsSetKind(t *testing.T) {
	c := clock.NewFake("2026-02-09 10:00", "2026-02-09")
	ctx := capture.Default()

	kd := NewKeyDown("k:a", "a", modifier.Snapshot{}, false, ctx, c.Now())
	if kd.Kind != KindKeyDown {
		t.Errorf("Kind = %v, want KindKeyDown", kd.Kind)
	}

	ku := NewKeyUp("k:a", "a", modifier.Snapshot{}, ctx, c.Now())
	if ku.Kind != KindKeyUp {
		t.Errorf("Kind = %v, want KindKeyUp", ku.Kind)
	}

	tk := NewTick(500*time.Millisecond, ctx, c.Now())
	if tk.Kind != KindTick {
		t.Errorf("Kind = %v, want KindTick", tk.Kind)
	}
	if tk.Elapsed != 500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 500ms", tk.Elapsed)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindKeyDown: "key_down",
		KindKeyUp:   "key_up",
		KindTick:    "tick",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", k, got, want)
		}
	}
}
