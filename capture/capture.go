// Package capture defines the capture-context collaborator boundary: the
// platform-specific resolver of frontmost application and window identity.
// The platform bridge itself lives outside this module; this package owns
// only the contract and a safe default.
package capture

import "strings"

// Context is a snapshot of the foreground application and window at the
// moment of a key event or tick.
type Context struct {
	// AppName is the display name of the foreground application.
	AppName string
	// WindowTitle is the title of the foreground window.
	WindowTitle string
	// BundleID is the platform application identifier, normalized to
	// lowercase. Empty when unavailable.
	BundleID string
	// SecureInput reports whether the platform's secure-input mode is
	// active (e.g. a password field has focus), which forces auto-pause.
	SecureInput bool
}

// AppID returns the identifier used to key stats and shortcut breakdowns:
// the bundle id when present, otherwise the display name.
func (c Context) AppID() string {
	if c.BundleID != "" {
		return c.BundleID
	}
	return c.AppName
}

// Default returns the context used when the platform call fails.
func Default() Context {
	return Context{AppName: "Unknown", WindowTitle: "", BundleID: "", SecureInput: false}
}

// NormalizeBundleID trims and lowercases a bundle identifier, the same
// normalization applied to the exclusion list so membership checks are
// case- and whitespace-insensitive.
func NormalizeBundleID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Provider resolves the current capture context. The supervisor calls it
// synchronously on its tick goroutine at every tick, so implementations
// must be non-blocking in the common case.
type Provider interface {
	// CaptureContext returns the current foreground application/window
	// snapshot. Implementations must never panic; on platform failure they
	// should return Default(), false.
	CaptureContext() (Context, bool)
}

// ProviderFunc adapts a plain function to a Provider.
type ProviderFunc func() (Context, bool)

// CaptureContext implements Provider.
func (f ProviderFunc) CaptureContext() (Context, bool) {
	return f()
}

// NewSafeProvider wraps a Provider so that any reported failure (ok=false)
// or panic surfaces as the documented default context instead of a zero
// value or a propagated panic.
func NewSafeProvider(p Provider) Provider {
	return safeProvider{inner: p}
}

type safeProvider struct {
	inner Provider
}

func (s safeProvider) CaptureContext() (ctx Context, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ctx, ok = Default(), false
		}
	}()
	c, capOK := s.inner.CaptureContext()
	if !capOK {
		return Default(), false
	}
	c.BundleID = NormalizeBundleID(c.BundleID)
	return c, true
}
