// Package periphpin exposes a claimed PWM channel as a periph.io gpio.PinOut,
// so drivers written against periph (servos, LEDs, fans) can drive it.
package periphpin

import (
	"fmt"
	"math"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"libpwm/pwm"
)

// Pin is a pwm channel seen through periph's gpio.PinOut. The channel's
// frequency is set by the kernel period and cannot be changed here.
type Pin struct {
	m   *pwm.Manager
	pin int
	h   pwm.Handle

	mu     sync.Mutex
	halted bool
}

var _ gpio.PinOut = (*Pin)(nil)

// Open claims pin on m.
func Open(m *pwm.Manager, pin int) (*Pin, error) {
	h, err := m.Open(pin)
	if err != nil {
		return nil, err
	}
	return &Pin{m: m, pin: pin, h: h}, nil
}

func (p *Pin) String() string { return p.Name() }

func (p *Pin) Name() string { return fmt.Sprintf("PWM%d", p.pin) }

func (p *Pin) Number() int { return p.pin }

// Function returns "PWM" while the channel is claimed and "Halted" after Halt.
func (p *Pin) Function() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return "Halted"
	}
	return "PWM"
}

// Halt zeroes the output and releases the channel. Further calls fail.
func (p *Pin) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return nil
	}
	p.halted = true
	return p.m.Release(p.h)
}

// Out drives the channel fully on (High) or off (Low).
func (p *Pin) Out(l gpio.Level) error {
	if l == gpio.High {
		return p.write(1)
	}
	return p.write(0)
}

// PWM sets the duty cycle. f must be 0.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	if f != 0 {
		return fmt.Errorf("periphpin: %s: frequency %s not supported, the channel period is fixed: %w", p, f, pwm.InvalidArgument)
	}
	return p.write(float64(duty) / float64(gpio.DutyMax))
}

// Duty reads back the current duty cycle.
func (p *Pin) Duty() (gpio.Duty, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return 0, fmt.Errorf("periphpin: %s: %w", p.Name(), pwm.BadHandle)
	}
	d, err := p.m.Read(p.h)
	if err != nil {
		return 0, err
	}
	return gpio.Duty(math.Round(d * float64(gpio.DutyMax))), nil
}

func (p *Pin) write(duty float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return fmt.Errorf("periphpin: %s: %w", p.Name(), pwm.BadHandle)
	}
	return p.m.Write(p.h, duty)
}
