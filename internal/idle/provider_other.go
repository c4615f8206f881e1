//go:build !windows

package idle

import (
	"runtime"

	"unjam/internal/services"
)

func newSystemProvider() (Provider, error) {
	return nil, services.Wrap(services.ErrUnavailable, "idle", "system provider", "no input-idle source on "+runtime.GOOS, nil)
}
