package idle

import "time"

// Provider reads the current user-input idle duration from the platform.
type Provider interface {
	IdleDuration() (time.Duration, error)
}

// SystemProvider returns the platform provider, or an error on platforms
// without an input-idle source.
func SystemProvider() (Provider, error) {
	return newSystemProvider()
}
