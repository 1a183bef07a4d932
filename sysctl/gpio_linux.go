//go:build linux

package sysctl

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// GPIOLines emulates PWM channels on plain GPIO lines through the Linux GPIO
// character device. It is meant for loads such as 2-wire fans switched by a
// transistor: duty 0 is off and anything else is on.
//
// Writing a non-zero mode requests the line as an output; writing zero
// releases it.
type GPIOLines struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	chans []*gpioChannel
}

type gpioChannel struct {
	GPIOChannel
	offset int
	line   *gpiocdev.Line
	ratio  uint32
}

// OpenGPIOLines opens chip (a name such as "gpiochip0" or a /dev path) and
// looks up every channel's line by name.
func OpenGPIOLines(chip string, channels []GPIOChannel) (*GPIOLines, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("sysctl: open gpio chip %s: %w", chip, err)
	}
	g := &GPIOLines{chip: c}
	for _, ch := range channels {
		offset, err := c.FindLine(ch.Line)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("sysctl: gpio line %q: %w", ch.Line, err)
		}
		g.chans = append(g.chans, &gpioChannel{GPIOChannel: ch, offset: offset})
	}
	return g, nil
}

func (g *GPIOLines) find(name string) (int, gpioNodeKind, bool) {
	for i, ch := range g.chans {
		switch name {
		case ch.Mode:
			return i, gpioMode, true
		case ch.Period:
			return i, gpioPeriod, true
		case ch.Ratio:
			return i, gpioRatio, true
		}
	}
	return 0, 0, false
}

func (g *GPIOLines) WriteNamed(name string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chip == nil {
		return fmt.Errorf("sysctl: write %s: %w", name, ErrClosed)
	}
	i, kind, ok := g.find(name)
	if !ok {
		return fmt.Errorf("sysctl: write %s: %w", name, ErrNoSuchNode)
	}
	return g.writeLocked(name, i, kind, value)
}

func (g *GPIOLines) ReadNamed(name string, size int) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chip == nil {
		return nil, fmt.Errorf("sysctl: read %s: %w", name, ErrClosed)
	}
	i, kind, ok := g.find(name)
	if !ok {
		return nil, fmt.Errorf("sysctl: read %s: %w", name, ErrNoSuchNode)
	}
	return g.readLocked(i, kind, size), nil
}

func (g *GPIOLines) Resolve(name string) (Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chip == nil {
		return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, ErrClosed)
	}
	i, kind, ok := g.find(name)
	if !ok {
		return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, ErrNoSuchNode)
	}
	return Node{name: name, oid: []int32{int32(i), int32(kind)}}, nil
}

func (g *GPIOLines) ReadResolved(n Node, size int) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, kind, err := g.lookup(n)
	if err != nil {
		return nil, fmt.Errorf("sysctl: read %s: %w", n.name, err)
	}
	return g.readLocked(i, kind, size), nil
}

func (g *GPIOLines) WriteResolved(n Node, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, kind, err := g.lookup(n)
	if err != nil {
		return fmt.Errorf("sysctl: write %s: %w", n.name, err)
	}
	return g.writeLocked(n.name, i, kind, value)
}

func (g *GPIOLines) lookup(n Node) (int, gpioNodeKind, error) {
	if g.chip == nil {
		return 0, 0, ErrClosed
	}
	if len(n.oid) != 2 || n.oid[0] < 0 || int(n.oid[0]) >= len(g.chans) {
		return 0, 0, ErrNoSuchNode
	}
	return int(n.oid[0]), gpioNodeKind(n.oid[1]), nil
}

func (g *GPIOLines) readLocked(i int, kind gpioNodeKind, size int) []byte {
	ch := g.chans[i]
	var v uint32
	switch kind {
	case gpioMode:
		if ch.line != nil {
			v = 1
		}
	case gpioPeriod:
		v = GPIOPeriod
	case gpioRatio:
		v = ch.ratio
	}
	b := encodeUint32(v)
	if size < len(b) {
		b = b[:size]
	}
	return b
}

func (g *GPIOLines) writeLocked(name string, i int, kind gpioNodeKind, value []byte) error {
	v, err := decodeUint32(value)
	if err != nil {
		return fmt.Errorf("sysctl: write %s: %w", name, err)
	}
	ch := g.chans[i]
	switch kind {
	case gpioMode:
		if v == 0 {
			return g.releaseLocked(ch)
		}
		if ch.line != nil {
			return nil
		}
		line, err := g.chip.RequestLine(ch.offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(GPIOConsumer))
		if err != nil {
			return fmt.Errorf("sysctl: write %s: request line %s: %w", name, ch.Line, err)
		}
		ch.line = line
		ch.ratio = 0
		return nil
	case gpioPeriod:
		return fmt.Errorf("sysctl: write %s: %w", name, ErrReadOnly)
	default:
		if ch.line == nil {
			return fmt.Errorf("sysctl: write %s: line %s not requested", name, ch.Line)
		}
		level := 0
		if v > 0 {
			level = 1
		}
		if err := ch.line.SetValue(level); err != nil {
			return fmt.Errorf("sysctl: write %s: %w", name, err)
		}
		ch.ratio = v
		return nil
	}
}

func (g *GPIOLines) releaseLocked(ch *gpioChannel) error {
	if ch.line == nil {
		return nil
	}
	// Leave the load switched off.
	_ = ch.line.SetValue(0)
	err := ch.line.Close()
	ch.line = nil
	ch.ratio = 0
	return err
}

// Close releases every requested line and the chip.
func (g *GPIOLines) Close() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var err error
	for _, ch := range g.chans {
		err = multierr.Append(err, g.releaseLocked(ch))
	}
	if g.chip != nil {
		err = multierr.Append(err, g.chip.Close())
		g.chip = nil
	}
	return err
}
