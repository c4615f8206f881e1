//go:build windows

package idle

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"unjam/internal/services"
)

var (
	moduser32            = windows.NewLazySystemDLL("user32.dll")
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procGetLastInputInfo = moduser32.NewProc("GetLastInputInfo")
	procGetTickCount64   = modkernel32.NewProc("GetTickCount64")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type systemProvider struct{}

func newSystemProvider() (Provider, error) {
	if err := procGetLastInputInfo.Find(); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "idle", "locate GetLastInputInfo", "", err)
	}
	return systemProvider{}, nil
}

func (systemProvider) IdleDuration() (time.Duration, error) {
	info := lastInputInfo{}
	info.cbSize = uint32(unsafe.Sizeof(info))
	ret, _, callErr := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, services.Wrap(services.ErrUnavailable, "idle", "read last input", "GetLastInputInfo failed", callErr)
	}
	ticks, _, callErr := procGetTickCount64.Call()
	if ticks == 0 {
		return 0, services.Wrap(services.ErrUnavailable, "idle", "read tick count", "GetTickCount64 failed", callErr)
	}
	// GetLastInputInfo reports a 32-bit tick, so compare in 32-bit space to
	// survive the ~49 day wraparound.
	elapsed := uint32(ticks) - info.dwTime
	return time.Duration(elapsed) * time.Millisecond, nil
}
