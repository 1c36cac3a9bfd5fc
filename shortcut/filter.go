package shortcut

import "github.com/corvid-labs/typingstats/modifier"

// Admit evaluates the admission filter in priority order: blocklist,
// then allowlist, then the baseline modifier rules.
func Admit(rules Rules, mods modifier.Snapshot, shortcutID string) bool {
	if _, blocked := rules.Blocklist[shortcutID]; blocked {
		return false
	}
	if len(rules.Allowlist) > 0 {
		_, allowed := rules.Allowlist[shortcutID]
		return allowed
	}
	if mods.Count() < rules.MinModifiers {
		return false
	}
	if rules.RequireCmdOrCtrl && !mods.HasShortcutModifier() {
		return false
	}
	if !rules.AllowAltOnly && mods.IsAltOnly() {
		return false
	}
	return true
}
