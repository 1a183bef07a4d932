// Package sysctl gives access to named kernel tunables: small integer
// control nodes that can be read and written by name, or resolved once into a
// numeric form for repeated access.
//
// The Kernel backend talks to FreeBSD's sysctl(3) MIB. Tree, GPIOLines and
// Memory expose the same contract on top of a pseudo-file directory, GPIO
// character devices and process memory respectively.
package sysctl

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrNoSuchNode is returned (wrapped) when a node name is unknown to the backend.
	ErrNoSuchNode = errors.New("sysctl: no such node")
	// ErrShortRead is returned when a node holds fewer bytes than the caller decodes.
	ErrShortRead = errors.New("sysctl: short read")
	// ErrReadOnly is returned when writing a node that only supports reads.
	ErrReadOnly = errors.New("sysctl: node is read-only")
	// ErrUnsupported is returned by backends that are not available on this platform.
	ErrUnsupported = errors.New("sysctl: unsupported on this platform")
	// ErrOutOfRange is returned when a node's value does not fit the requested size.
	ErrOutOfRange = errors.New("sysctl: value out of range")
	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("sysctl: tunables are closed")
)

// Tunables is the kernel tunable facility.
//
// Values are raw bytes in the kernel's layout; use the codec helpers in this
// package to move integers in and out. Reads return at most size bytes.
type Tunables interface {
	WriteNamed(name string, value []byte) error
	ReadNamed(name string, size int) ([]byte, error)
	Resolve(name string) (Node, error)
	ReadResolved(n Node, size int) ([]byte, error)
	WriteResolved(n Node, value []byte) error
}

// Node is a resolved control node. It is only meaningful to the backend that
// produced it.
type Node struct {
	name string
	oid  []int32
}

// Name returns the dotted name the node was resolved from.
func (n Node) Name() string { return n.name }

// Len returns the number of OID components.
func (n Node) Len() int { return len(n.oid) }

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool { return n.name == "" && len(n.oid) == 0 }

func (n Node) String() string {
	if len(n.oid) == 0 {
		return n.name
	}
	return fmt.Sprintf("%s%v", n.name, n.oid)
}

// WriteInt32 writes a signed 32-bit integer to the named node.
func WriteInt32(t Tunables, name string, v int32) error {
	return t.WriteNamed(name, encodeUint32(uint32(v)))
}

// ReadUint32 reads an unsigned 32-bit integer from the named node.
func ReadUint32(t Tunables, name string) (uint32, error) {
	b, err := t.ReadNamed(name, 4)
	if err != nil {
		return 0, err
	}
	return decodeUint32(b)
}

// WriteResolvedUint32 writes an unsigned 32-bit integer through a resolved node.
func WriteResolvedUint32(t Tunables, n Node, v uint32) error {
	return t.WriteResolved(n, encodeUint32(v))
}

// ReadResolvedUint32 reads an unsigned 32-bit integer through a resolved node.
func ReadResolvedUint32(t Tunables, n Node) (uint32, error) {
	b, err := t.ReadResolved(n, 4)
	if err != nil {
		return 0, err
	}
	return decodeUint32(b)
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, v)
	return b
}

func decodeUint32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: got %d bytes, want 4", ErrShortRead, len(b))
	}
	return binary.NativeEndian.Uint32(b), nil
}
