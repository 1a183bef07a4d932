package sysctl

import (
	"fmt"
	"sync"
)

// Memory is an in-process Tunables. Nodes must be created with Set or
// SetUint32 before they can be read, written or resolved.
//
// Safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	values map[string][]byte
	oids   map[string]int32
	writes map[string]int

	failWrite   map[string]error
	failRead    map[string]error
	failResolve map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		values:      make(map[string][]byte),
		oids:        make(map[string]int32),
		writes:      make(map[string]int),
		failWrite:   make(map[string]error),
		failRead:    make(map[string]error),
		failResolve: make(map[string]error),
	}
}

// Set creates or replaces a node's raw value.
func (m *Memory) Set(name string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(name, value)
}

// SetUint32 creates or replaces a node holding a 32-bit integer.
func (m *Memory) SetUint32(name string, v uint32) {
	m.Set(name, encodeUint32(v))
}

// Uint32 returns the node's current value decoded as a 32-bit integer.
func (m *Memory) Uint32(name string) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.values[name]
	if !ok {
		return 0, false
	}
	v, err := decodeUint32(b)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Writes returns how many successful writes the node has received.
func (m *Memory) Writes(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[name]
}

// FailWrite makes subsequent writes to name fail with err. A nil err clears it.
func (m *Memory) FailWrite(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	setFailure(m.failWrite, name, err)
}

// FailRead makes subsequent reads of name fail with err. A nil err clears it.
func (m *Memory) FailRead(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	setFailure(m.failRead, name, err)
}

// FailResolve makes subsequent resolutions of name fail with err. A nil err clears it.
func (m *Memory) FailResolve(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	setFailure(m.failResolve, name, err)
}

func setFailure(set map[string]error, name string, err error) {
	if err == nil {
		delete(set, name)
		return
	}
	set[name] = err
}

func (m *Memory) setLocked(name string, value []byte) {
	if _, ok := m.oids[name]; !ok {
		m.oids[name] = int32(len(m.oids) + 1)
	}
	m.values[name] = append([]byte(nil), value...)
}

func (m *Memory) WriteNamed(name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite[name]; err != nil {
		return fmt.Errorf("sysctl: write %s: %w", name, err)
	}
	if _, ok := m.values[name]; !ok {
		return fmt.Errorf("sysctl: write %s: %w", name, ErrNoSuchNode)
	}
	m.setLocked(name, value)
	m.writes[name]++
	return nil
}

func (m *Memory) ReadNamed(name string, size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failRead[name]; err != nil {
		return nil, fmt.Errorf("sysctl: read %s: %w", name, err)
	}
	v, ok := m.values[name]
	if !ok {
		return nil, fmt.Errorf("sysctl: read %s: %w", name, ErrNoSuchNode)
	}
	if size < len(v) {
		v = v[:size]
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Resolve(name string) (Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failResolve[name]; err != nil {
		return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, err)
	}
	oid, ok := m.oids[name]
	if !ok {
		return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, ErrNoSuchNode)
	}
	return Node{name: name, oid: []int32{oid}}, nil
}

func (m *Memory) ReadResolved(n Node, size int) ([]byte, error) {
	return m.ReadNamed(n.name, size)
}

func (m *Memory) WriteResolved(n Node, value []byte) error {
	return m.WriteNamed(n.name, value)
}
