// Package modifier defines the normalized 5-bit modifier snapshot shared by
// the shortcut normalizer, the compact event encoder, and the admission
// filter. It is a value type with no dependencies on any other package.
package modifier

// Bit positions for the compact bitmask, fixed by the on-disk compact event
// format ("dt,t,k,m"): bit0 ctrl, bit1 opt, bit2 shift, bit3 cmd, bit4 fn.
const (
	bitCtrl  = 1 << 0
	bitOpt   = 1 << 1
	bitShift = 1 << 2
	bitCmd   = 1 << 3
	bitFn    = 1 << 4
)

// Snapshot is the normalized modifier state captured at the moment of a
// non-modifier key event.
type Snapshot struct {
	Ctrl  bool
	Opt   bool
	Shift bool
	Cmd   bool
	Fn    bool
}

// Bitmask returns the compact bitmask view of the snapshot.
func (s Snapshot) Bitmask() uint8 {
	var m uint8
	if s.Ctrl {
		m |= bitCtrl
	}
	if s.Opt {
		m |= bitOpt
	}
	if s.Shift {
		m |= bitShift
	}
	if s.Cmd {
		m |= bitCmd
	}
	if s.Fn {
		m |= bitFn
	}
	return m
}

// FromBitmask rebuilds a Snapshot from a compact bitmask, as read back from
// a persisted compact event string.
func FromBitmask(mask uint8) Snapshot {
	return Snapshot{
		Ctrl:  mask&bitCtrl != 0,
		Opt:   mask&bitOpt != 0,
		Shift: mask&bitShift != 0,
		Cmd:   mask&bitCmd != 0,
		Fn:    mask&bitFn != 0,
	}
}

// Count returns the number of modifiers held.
func (s Snapshot) Count() uint8 {
	var n uint8
	for _, held := range []bool{s.Ctrl, s.Opt, s.Shift, s.Cmd, s.Fn} {
		if held {
			n++
		}
	}
	return n
}

// HasShortcutModifier reports whether ctrl or cmd is held, the modifiers
// that conventionally anchor a keyboard shortcut.
func (s Snapshot) HasShortcutModifier() bool {
	return s.Ctrl || s.Cmd
}

// IsAltOnly reports whether opt is the sole modifier held.
func (s Snapshot) IsAltOnly() bool {
	return s.Opt && !s.Ctrl && !s.Shift && !s.Cmd && !s.Fn
}

// Any reports whether at least one modifier is held.
func (s Snapshot) Any() bool {
	return s.Ctrl || s.Opt || s.Shift || s.Cmd || s.Fn
}
