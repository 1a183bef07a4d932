//go:build linux

package sysctl

import (
	"errors"
	"testing"

	"github.com/warthog618/go-gpiosim"
)

func newSimLines(t *testing.T) (*GPIOLines, *gpiosim.Chip) {
	t.Helper()
	s, err := gpiosim.NewSim(
		gpiosim.WithName("libpwm_test"),
		gpiosim.WithBank(gpiosim.NewBank("pwm", 8,
			gpiosim.WithNamedLine(2, "GPIO18"),
		)),
	)
	if err != nil {
		t.Skipf("gpio-sim unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := &s.Chips[0]

	g, err := OpenGPIOLines(c.DevPath(), []GPIOChannel{{
		Line:   "GPIO18",
		Mode:   "dev.pwm.0.mode",
		Period: "dev.pwm.0.period",
		Ratio:  "dev.pwm.0.ratio",
	}})
	if err != nil {
		t.Fatalf("OpenGPIOLines: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g, c
}

func TestGPIOLines_OnOff(t *testing.T) {
	g, c := newSimLines(t)

	if err := WriteInt32(g, "dev.pwm.0.mode", 1); err != nil {
		t.Fatalf("mode write: %v", err)
	}
	period, err := ReadUint32(g, "dev.pwm.0.period")
	if err != nil {
		t.Fatalf("period read: %v", err)
	}
	if period != GPIOPeriod {
		t.Fatalf("period=%d want %d", period, GPIOPeriod)
	}
	n, err := g.Resolve("dev.pwm.0.ratio")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := WriteResolvedUint32(g, n, 40); err != nil {
		t.Fatalf("ratio write: %v", err)
	}
	if v, err := c.Level(2); err != nil || v != 1 {
		t.Fatalf("level=%d err=%v want 1", v, err)
	}
	if v, _ := ReadResolvedUint32(g, n); v != 40 {
		t.Fatalf("ratio=%d want 40", v)
	}
	if err := WriteResolvedUint32(g, n, 0); err != nil {
		t.Fatalf("ratio write: %v", err)
	}
	if v, err := c.Level(2); err != nil || v != 0 {
		t.Fatalf("level=%d err=%v want 0", v, err)
	}
}

func TestGPIOLines_Errors(t *testing.T) {
	g, _ := newSimLines(t)

	if err := WriteInt32(g, "dev.pwm.0.ratio", 1); err == nil {
		t.Fatalf("ratio write before mode succeeded")
	}
	if err := WriteInt32(g, "dev.pwm.0.period", 5); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("period write err=%v want ErrReadOnly", err)
	}
	if _, err := g.Resolve("dev.pwm.7.ratio"); !errors.Is(err, ErrNoSuchNode) {
		t.Fatalf("Resolve err=%v want ErrNoSuchNode", err)
	}
}

func TestOpenGPIOLines_UnknownLine(t *testing.T) {
	_, c := newSimLines(t)
	if _, err := OpenGPIOLines(c.DevPath(), []GPIOChannel{{Line: "GPIO99"}}); err == nil {
		t.Fatalf("expected error for unknown line")
	}
}

func TestGPIOLines_UseAfterClose(t *testing.T) {
	g, _ := newSimLines(t)
	n, err := g.Resolve("dev.pwm.0.ratio")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := WriteInt32(g, "dev.pwm.0.mode", 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("mode write err=%v want ErrClosed", err)
	}
	if _, err := ReadUint32(g, "dev.pwm.0.period"); !errors.Is(err, ErrClosed) {
		t.Fatalf("period read err=%v want ErrClosed", err)
	}
	if _, err := g.Resolve("dev.pwm.0.ratio"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Resolve err=%v want ErrClosed", err)
	}
	if err := WriteResolvedUint32(g, n, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("ratio write err=%v want ErrClosed", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestGPIOLines_WithoutChipDoesNotPanic(t *testing.T) {
	g := &GPIOLines{chans: []*gpioChannel{{GPIOChannel: GPIOChannel{
		Line: "GPIO18", Mode: "m", Period: "p", Ratio: "r",
	}}}}
	if err := WriteInt32(g, "m", 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("mode write err=%v want ErrClosed", err)
	}
}
