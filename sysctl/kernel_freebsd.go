//go:build freebsd

package sysctl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel is the FreeBSD sysctl MIB.
type Kernel struct{}

// Open returns the platform's kernel tunables.
func Open() (Tunables, error) {
	return Kernel{}, nil
}

func (k Kernel) WriteNamed(name string, value []byte) error {
	n, err := k.Resolve(name)
	if err != nil {
		return err
	}
	return k.WriteResolved(n, value)
}

func (k Kernel) ReadNamed(name string, size int) ([]byte, error) {
	n, err := k.Resolve(name)
	if err != nil {
		return nil, err
	}
	return k.ReadResolved(n, size)
}

// Resolve asks the kernel for the numeric OID through the name2oid node {0, 3}.
func (Kernel) Resolve(name string) (Node, error) {
	if name == "" {
		return Node{}, fmt.Errorf("sysctl: resolve: empty name")
	}
	buf := make([]byte, unix.CTL_MAXNAME*4)
	n, err := rawSysctl([]int32{0, 3}, buf, []byte(name))
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return Node{}, fmt.Errorf("sysctl: resolve %s: %w: %w", name, ErrNoSuchNode, err)
		}
		return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, err)
	}
	oid := make([]int32, n/4)
	for i := range oid {
		oid[i] = int32(binary.NativeEndian.Uint32(buf[i*4:]))
	}
	return Node{name: name, oid: oid}, nil
}

func (Kernel) ReadResolved(n Node, size int) ([]byte, error) {
	if len(n.oid) == 0 {
		return nil, fmt.Errorf("sysctl: read %s: unresolved node", n.name)
	}
	buf := make([]byte, size)
	got, err := rawSysctl(n.oid, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("sysctl: read %s: %w", n.name, err)
	}
	return buf[:got], nil
}

func (Kernel) WriteResolved(n Node, value []byte) error {
	if len(n.oid) == 0 {
		return fmt.Errorf("sysctl: write %s: unresolved node", n.name)
	}
	if _, err := rawSysctl(n.oid, nil, value); err != nil {
		return fmt.Errorf("sysctl: write %s: %w", n.name, err)
	}
	return nil
}

// rawSysctl calls __sysctl(2). old receives the current value when non-empty,
// value replaces it when non-empty. It returns the number of bytes stored in old.
func rawSysctl(mib []int32, old, value []byte) (int, error) {
	var (
		oldp    unsafe.Pointer
		oldlen  uintptr
		oldlenp unsafe.Pointer
		newp    unsafe.Pointer
	)
	if len(old) > 0 {
		oldp = unsafe.Pointer(&old[0])
		oldlen = uintptr(len(old))
		oldlenp = unsafe.Pointer(&oldlen)
	}
	if len(value) > 0 {
		newp = unsafe.Pointer(&value[0])
	}
	_, _, errno := unix.Syscall6(
		unix.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		uintptr(oldp),
		uintptr(oldlenp),
		uintptr(newp),
		uintptr(len(value)),
	)
	if errno != 0 {
		return 0, errno
	}
	return int(oldlen), nil
}
