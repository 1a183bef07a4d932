package periphpin

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"libpwm/pwm"
	"libpwm/sysctl"
)

func newPin(t *testing.T) (*Pin, *sysctl.Memory) {
	t.Helper()
	mem := sysctl.NewMemory()
	for _, pc := range pwm.DefaultPins {
		mem.SetUint32(pc.Mode, 0)
		mem.SetUint32(pc.Period, 1000)
		mem.SetUint32(pc.Ratio, 0)
	}
	m, err := pwm.New(pwm.Config{Tunables: mem})
	if err != nil {
		t.Fatalf("pwm.New: %v", err)
	}
	p, err := Open(m, 18)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return p, mem
}

func ratio(t *testing.T, mem *sysctl.Memory) uint32 {
	t.Helper()
	v, _ := mem.Uint32("dev.pwm.0.ratio")
	return v
}

func TestPin_Identity(t *testing.T) {
	p, _ := newPin(t)
	if p.Name() != "PWM18" || p.String() != "PWM18" || p.Number() != 18 {
		t.Fatalf("identity=%s/%d", p.Name(), p.Number())
	}
	if p.Function() != "PWM" {
		t.Fatalf("function=%q", p.Function())
	}
}

func TestPin_PWM(t *testing.T) {
	p, mem := newPin(t)
	if err := p.PWM(gpio.DutyHalf, 0); err != nil {
		t.Fatalf("PWM: %v", err)
	}
	if got := ratio(t, mem); got != 500 {
		t.Fatalf("ratio=%d want 500", got)
	}
	d, err := p.Duty()
	if err != nil {
		t.Fatalf("Duty: %v", err)
	}
	if d != gpio.DutyHalf {
		t.Fatalf("duty=%s want %s", d, gpio.DutyHalf)
	}
	if err := p.PWM(gpio.DutyMax, 0); err != nil {
		t.Fatalf("PWM(max): %v", err)
	}
	if got := ratio(t, mem); got != 1000 {
		t.Fatalf("ratio=%d want 1000", got)
	}
}

func TestPin_PWMRejectsFrequencyAndRange(t *testing.T) {
	p, mem := newPin(t)
	if err := p.PWM(gpio.DutyHalf, 50*physic.Hertz); !errors.Is(err, pwm.InvalidArgument) {
		t.Fatalf("err=%v want InvalidArgument", err)
	}
	if err := p.PWM(gpio.DutyMax+1, 0); !errors.Is(err, pwm.InvalidArgument) {
		t.Fatalf("err=%v want InvalidArgument", err)
	}
	if err := p.PWM(-1, 0); !errors.Is(err, pwm.InvalidArgument) {
		t.Fatalf("err=%v want InvalidArgument", err)
	}
	if got := ratio(t, mem); got != 0 {
		t.Fatalf("ratio=%d want 0", got)
	}
}

func TestPin_Out(t *testing.T) {
	p, mem := newPin(t)
	if err := p.Out(gpio.High); err != nil {
		t.Fatalf("Out(High): %v", err)
	}
	if got := ratio(t, mem); got != 1000 {
		t.Fatalf("ratio=%d want 1000", got)
	}
	if err := p.Out(gpio.Low); err != nil {
		t.Fatalf("Out(Low): %v", err)
	}
	if got := ratio(t, mem); got != 0 {
		t.Fatalf("ratio=%d want 0", got)
	}
}

func TestPin_Halt(t *testing.T) {
	p, mem := newPin(t)
	_ = p.Out(gpio.High)
	if err := p.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if got := ratio(t, mem); got != 0 {
		t.Fatalf("ratio after halt=%d want 0", got)
	}
	if p.Function() != "Halted" {
		t.Fatalf("function=%q", p.Function())
	}
	if err := p.Out(gpio.High); !errors.Is(err, pwm.BadHandle) {
		t.Fatalf("Out after halt err=%v", err)
	}
	if _, err := p.Duty(); !errors.Is(err, pwm.BadHandle) {
		t.Fatalf("Duty after halt err=%v", err)
	}
	if err := p.Halt(); err != nil {
		t.Fatalf("second Halt: %v", err)
	}
}

func TestOpen_Busy(t *testing.T) {
	p, _ := newPin(t)
	if _, err := Open(p.m, 18); !errors.Is(err, pwm.Busy) {
		t.Fatalf("err=%v want Busy", err)
	}
}
