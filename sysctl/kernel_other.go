//go:build !freebsd

package sysctl

import (
	"fmt"
	"runtime"
)

// Open returns the platform's kernel tunables. Only FreeBSD has a sysctl MIB
// carrying PWM nodes; elsewhere use Tree or GPIOLines.
func Open() (Tunables, error) {
	return nil, fmt.Errorf("%w: kernel tunables on %s", ErrUnsupported, runtime.GOOS)
}
