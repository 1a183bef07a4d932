package sysctl

import (
	"errors"
	"testing"
)

func TestMemory_ReadWriteNamed(t *testing.T) {
	m := NewMemory()
	m.SetUint32("dev.pwm.0.period", 1000)

	v, err := ReadUint32(m, "dev.pwm.0.period")
	if err != nil {
		t.Fatalf("ReadUint32: %v", err)
	}
	if v != 1000 {
		t.Fatalf("period=%d want 1000", v)
	}

	if err := WriteInt32(m, "dev.pwm.0.period", 250); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if got, _ := m.Uint32("dev.pwm.0.period"); got != 250 {
		t.Fatalf("period=%d want 250", got)
	}
	if n := m.Writes("dev.pwm.0.period"); n != 1 {
		t.Fatalf("writes=%d want 1", n)
	}
}

func TestMemory_UnknownNode(t *testing.T) {
	m := NewMemory()
	if _, err := m.ReadNamed("dev.pwm.9.ratio", 4); !errors.Is(err, ErrNoSuchNode) {
		t.Fatalf("ReadNamed err=%v want ErrNoSuchNode", err)
	}
	if err := m.WriteNamed("dev.pwm.9.ratio", encodeUint32(1)); !errors.Is(err, ErrNoSuchNode) {
		t.Fatalf("WriteNamed err=%v want ErrNoSuchNode", err)
	}
	if _, err := m.Resolve("dev.pwm.9.ratio"); !errors.Is(err, ErrNoSuchNode) {
		t.Fatalf("Resolve err=%v want ErrNoSuchNode", err)
	}
}

func TestMemory_ResolvedAccess(t *testing.T) {
	m := NewMemory()
	m.SetUint32("dev.pwm.0.mode", 0)
	m.SetUint32("dev.pwm.0.ratio", 7)

	n, err := m.Resolve("dev.pwm.0.ratio")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if n.Name() != "dev.pwm.0.ratio" || n.Len() != 1 {
		t.Fatalf("node=%v", n)
	}
	if err := WriteResolvedUint32(m, n, 42); err != nil {
		t.Fatalf("WriteResolvedUint32: %v", err)
	}
	v, err := ReadResolvedUint32(m, n)
	if err != nil {
		t.Fatalf("ReadResolvedUint32: %v", err)
	}
	if v != 42 {
		t.Fatalf("ratio=%d want 42", v)
	}
	if got, _ := m.Uint32("dev.pwm.0.mode"); got != 0 {
		t.Fatalf("mode changed to %d", got)
	}
}

func TestMemory_FailureInjection(t *testing.T) {
	m := NewMemory()
	m.SetUint32("x", 1)
	boom := errors.New("boom")

	m.FailWrite("x", boom)
	if err := m.WriteNamed("x", encodeUint32(2)); !errors.Is(err, boom) {
		t.Fatalf("WriteNamed err=%v want boom", err)
	}
	m.FailRead("x", boom)
	if _, err := m.ReadNamed("x", 4); !errors.Is(err, boom) {
		t.Fatalf("ReadNamed err=%v want boom", err)
	}
	m.FailResolve("x", boom)
	if _, err := m.Resolve("x"); !errors.Is(err, boom) {
		t.Fatalf("Resolve err=%v want boom", err)
	}

	m.FailWrite("x", nil)
	m.FailRead("x", nil)
	m.FailResolve("x", nil)
	if err := m.WriteNamed("x", encodeUint32(2)); err != nil {
		t.Fatalf("WriteNamed after clear: %v", err)
	}
	if got, _ := m.Uint32("x"); got != 2 {
		t.Fatalf("x=%d want 2", got)
	}
	if n := m.Writes("x"); n != 1 {
		t.Fatalf("writes=%d want 1 (failed writes must not count)", n)
	}
}

func TestReadUint32_ShortValue(t *testing.T) {
	m := NewMemory()
	m.Set("short", []byte{1, 2})
	if _, err := ReadUint32(m, "short"); !errors.Is(err, ErrShortRead) {
		t.Fatalf("err=%v want ErrShortRead", err)
	}
}
