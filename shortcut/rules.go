package shortcut

// Rules holds the mutable admission-filter configuration, set only via the
// public control surface.
type Rules struct {
	// RequireCmdOrCtrl, when true, rejects shortcuts that hold neither
	// ctrl nor cmd (baseline rule only; ignored once blocklist/allowlist
	// decide the outcome).
	RequireCmdOrCtrl bool
	// AllowAltOnly, when false, rejects a shortcut whose sole modifier is
	// opt.
	AllowAltOnly bool
	// MinModifiers is the minimum modifier count required by the baseline
	// rule. Must be >= 1.
	MinModifiers uint8
	// Allowlist, when non-empty, makes admission exact-match only: any
	// shortcut id not in this set is rejected, overriding MinModifiers etc.
	Allowlist map[string]struct{}
	// Blocklist always rejects a matching shortcut id, taking priority
	// over everything else.
	Blocklist map[string]struct{}
}

// DefaultRules returns the baseline ruleset: require ctrl/cmd, minimum one
// modifier, alt-only shortcuts rejected, no lists.
func DefaultRules() Rules {
	return Rules{
		RequireCmdOrCtrl: true,
		AllowAltOnly:     false,
		MinModifiers:     1,
		Allowlist:        map[string]struct{}{},
		Blocklist:        map[string]struct{}{},
	}
}

// Clone returns a deep copy so callers can safely hand Rules across the
// control-surface lock boundary.
func (r Rules) Clone() Rules {
	allow := make(map[string]struct{}, len(r.Allowlist))
	for k := range r.Allowlist {
		allow[k] = struct{}{}
	}
	block := make(map[string]struct{}, len(r.Blocklist))
	for k := range r.Blocklist {
		block[k] = struct{}{}
	}
	r.Allowlist = allow
	r.Blocklist = block
	return r
}
