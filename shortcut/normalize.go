// Package shortcut implements the canonical shortcut-id normalizer and the
// rule-based admission filter: a small mutable ruleset plus a
// priority-ordered evaluator function.
package shortcut

import (
	"strings"

	"github.com/corvid-labs/typingstats/modifier"
)

// Normalize builds the canonical shortcut id: present modifiers joined by
// "_" in fixed order ctrl, opt, shift, cmd, followed by the key symbol.
// The function is total and deterministic.
func Normalize(mods modifier.Snapshot, key string) string {
	parts := make([]string, 0, 5)
	if mods.Ctrl {
		parts = append(parts, "ctrl")
	}
	if mods.Opt {
		parts = append(parts, "opt")
	}
	if mods.Shift {
		parts = append(parts, "shift")
	}
	if mods.Cmd {
		parts = append(parts, "cmd")
	}
	parts = append(parts, key)
	return strings.Join(parts, "_")
}
