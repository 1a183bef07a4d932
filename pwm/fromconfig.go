package pwm

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"libpwm/config"
	"libpwm/sysctl"
)

// NewFromConfig opens the backend selected by cfg and builds a Manager over
// it. Closing the Manager closes the backend.
func NewFromConfig(cfg config.Config, logger *zap.Logger) (*Manager, error) {
	pins := DefaultPins
	if len(cfg.Pins) > 0 {
		pins = make(Registry, 0, len(cfg.Pins))
		for _, p := range cfg.Pins {
			pins = append(pins, PinConfig{Pin: p.Pin, Channel: p.Channel, Mode: p.Mode, Period: p.Period, Ratio: p.Ratio})
		}
	}

	t, err := openBackend(cfg, pins)
	if err != nil {
		return nil, err
	}
	m, err := New(Config{Tunables: t, Pins: pins, Channels: cfg.Channels, Logger: logger})
	if err != nil {
		if c, ok := t.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return m, nil
}

func openBackend(cfg config.Config, pins Registry) (sysctl.Tunables, error) {
	switch cfg.Backend {
	case config.BackendTree:
		return sysctl.NewTree(cfg.TreeRoot), nil
	case config.BackendGPIO:
		chans := make([]sysctl.GPIOChannel, 0, len(pins))
		for _, pc := range pins {
			chans = append(chans, sysctl.GPIOChannel{
				Line:   fmt.Sprintf("GPIO%d", pc.Pin),
				Mode:   pc.Mode,
				Period: pc.Period,
				Ratio:  pc.Ratio,
			})
		}
		g, err := sysctl.OpenGPIOLines(cfg.GPIOChip, chans)
		if err != nil {
			return nil, fmt.Errorf("pwm: gpio backend: %w", err)
		}
		return g, nil
	default:
		t, err := openTunablesFn()
		if err != nil {
			return nil, fmt.Errorf("pwm: sysctl backend: %w", err)
		}
		return t, nil
	}
}
