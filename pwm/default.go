package pwm

import (
	"sync"

	"libpwm/sysctl"
)

var openTunablesFn = sysctl.Open

var (
	defaultMu  sync.Mutex
	defaultMgr *Manager
)

// Init is reserved for future setup and always succeeds.
func Init() error {
	return nil
}

// Open claims pin on the process-wide Manager, which is built on first use
// over the platform's kernel tunables and DefaultPins.
func Open(pin int) (Handle, error) {
	defaultMu.Lock()
	if defaultMgr == nil {
		t, err := openTunablesFn()
		if err != nil {
			defaultMu.Unlock()
			return -1, pinErr("open", pin, SysctlWriteFailure, err)
		}
		m, err := New(Config{Tunables: t})
		if err != nil {
			defaultMu.Unlock()
			return -1, err
		}
		defaultMgr = m
	}
	m := defaultMgr
	defaultMu.Unlock()
	return m.Open(pin)
}

// Write sets the duty cycle of a handle returned by Open.
func Write(h Handle, duty float64) error {
	m := currentDefault()
	if m == nil {
		return handleErr("write", h, BadHandle, nil)
	}
	return m.Write(h, duty)
}

// Read returns the duty cycle of a handle returned by Open.
func Read(h Handle) (float64, error) {
	m := currentDefault()
	if m == nil {
		return 0, handleErr("read", h, BadHandle, nil)
	}
	return m.Read(h)
}

// Release frees a handle returned by Open.
func Release(h Handle) error {
	m := currentDefault()
	if m == nil {
		return handleErr("release", h, BadHandle, nil)
	}
	return m.Release(h)
}

func currentDefault() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultMgr
}
