// Package pwm exposes hardware PWM channels as handles with a duty cycle in
// [0, 1].
//
// A Manager owns one slot per physical channel. Open claims the slot for a
// logical pin, switches the channel into PWM mode, caches its period and
// zeroes its output. Write and Read convert between a duty cycle and the
// kernel's integer ratio using the cached period.
package pwm

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"libpwm/sysctl"
)

// ErrClosed is wrapped by errors from a Manager that has been closed.
var ErrClosed = errors.New("pwm: manager is closed")

// ModePWM is the value written to a channel's mode node to select PWM output.
const ModePWM = 1

// Handle identifies a claimed channel. It is the channel's slot index.
type Handle int

// Config configures a Manager. Pins defaults to DefaultPins, Channels to
// DefaultChannels and Logger to a no-op logger.
type Config struct {
	Tunables sysctl.Tunables
	Pins     Registry
	Channels int
	Logger   *zap.Logger
}

// ChannelSnapshot describes one slot.
type ChannelSnapshot struct {
	Channel int    `json:"channel"`
	InUse   bool   `json:"in_use"`
	Pin     int    `json:"pin,omitempty"`
	Period  uint32 `json:"period,omitempty"`
	Ratio   string `json:"ratio_node,omitempty"`
}

type slot struct {
	inUse  bool
	pin    int
	period uint32
	ratio  sysctl.Node
}

// Manager is safe for concurrent use.
type Manager struct {
	t    sysctl.Tunables
	pins Registry
	log  *zap.SugaredLogger

	mu     sync.Mutex
	slots  []slot
	closed bool
}

func New(cfg Config) (*Manager, error) {
	if cfg.Tunables == nil {
		return nil, fmt.Errorf("pwm: tunables are required")
	}
	if cfg.Pins == nil {
		cfg.Pins = DefaultPins
	}
	if cfg.Channels == 0 {
		cfg.Channels = DefaultChannels
	}
	if cfg.Channels < 0 {
		return nil, fmt.Errorf("pwm: channels must be > 0")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	for _, pc := range cfg.Pins {
		if pc.Channel < 0 || pc.Channel >= cfg.Channels {
			return nil, fmt.Errorf("pwm: pin %d: channel %d out of range [0, %d)", pc.Pin, pc.Channel, cfg.Channels)
		}
	}
	return &Manager{
		t:     cfg.Tunables,
		pins:  append(Registry(nil), cfg.Pins...),
		log:   cfg.Logger.Sugar().Named("pwm"),
		slots: make([]slot, cfg.Channels),
	}, nil
}

// Open claims the channel wired to pin and initializes it to 0% duty.
//
// If any step fails the slot stays free, including a failure of the final
// zero-duty write.
func (m *Manager) Open(pin int) (Handle, error) {
	pc, ok := m.pins.Resolve(pin)
	if !ok {
		return -1, pinErr("open", pin, NotAPwmPin, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return -1, pinErr("open", pin, SysctlWriteFailure, ErrClosed)
	}
	s := &m.slots[pc.Channel]
	if s.inUse {
		return -1, pinErr("open", pin, Busy, nil)
	}
	if err := sysctl.WriteInt32(m.t, pc.Mode, ModePWM); err != nil {
		return -1, pinErr("open", pin, SysctlWriteFailure, err)
	}
	period, err := sysctl.ReadUint32(m.t, pc.Period)
	if err != nil {
		return -1, pinErr("open", pin, SysctlReadFailure, err)
	}
	ratio, err := m.t.Resolve(pc.Ratio)
	if err != nil {
		return -1, pinErr("open", pin, SysctlReadFailure, err)
	}

	*s = slot{inUse: true, pin: pin, period: period, ratio: ratio}
	h := Handle(pc.Channel)
	if err := m.writeLocked(h, 0); err != nil {
		*s = slot{}
		code, _ := CodeOf(err)
		return -1, pinErr("open", pin, code, causeOf(err))
	}

	m.log.Debugw("channel claimed", "pin", pin, "channel", pc.Channel, "period", period)
	return h, nil
}

// Write sets the duty cycle of h. duty must be within [0, 1]; values outside
// that range are rejected and leave the channel untouched.
func (m *Manager) Write(h Handle, duty float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(h, duty)
}

func (m *Manager) writeLocked(h Handle, duty float64) error {
	s, err := m.slotLocked("write", h)
	if err != nil {
		return err
	}
	if !validDuty(duty) {
		return handleErr("write", h, InvalidArgument, fmt.Errorf("duty %v outside [0, 1]", duty))
	}
	if err := sysctl.WriteResolvedUint32(m.t, s.ratio, ratioFor(s.period, duty)); err != nil {
		return handleErr("write", h, SysctlWriteFailure, err)
	}
	return nil
}

// Read returns the current duty cycle of h, derived from the channel's ratio
// and the period cached at Open.
func (m *Manager) Read(h Handle) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.slotLocked("read", h)
	if err != nil {
		return 0, err
	}
	raw, err := sysctl.ReadResolvedUint32(m.t, s.ratio)
	if err != nil {
		return 0, handleErr("read", h, SysctlReadFailure, err)
	}
	duty, ok := dutyFor(raw, s.period)
	if !ok {
		return 0, handleErr("read", h, ZeroPeriod, nil)
	}
	return duty, nil
}

// Period returns the period cached for h at Open.
func (m *Manager) Period(h Handle) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.slotLocked("period", h)
	if err != nil {
		return 0, err
	}
	return s.period, nil
}

// Release drives h to 0% duty and frees its slot. The slot is freed even when
// the zero write fails; that failure is returned.
func (m *Manager) Release(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked(h)
}

func (m *Manager) releaseLocked(h Handle) error {
	s, err := m.slotLocked("release", h)
	if err != nil {
		return err
	}
	pin := s.pin
	werr := m.writeLocked(h, 0)
	*s = slot{}
	m.log.Debugw("channel released", "pin", pin, "channel", int(h))
	if werr != nil {
		code, _ := CodeOf(werr)
		return handleErr("release", h, code, causeOf(werr))
	}
	return nil
}

// Close releases every claimed channel and closes the tunables if they hold
// resources of their own. Later calls on m fail with ErrClosed; closing twice
// is a no-op.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	var err error
	for i := range m.slots {
		if m.slots[i].inUse {
			err = multierr.Append(err, m.releaseLocked(Handle(i)))
		}
	}
	if c, ok := m.t.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	m.closed = true
	return err
}

// Snapshot reports the state of every slot.
func (m *Manager) Snapshot() []ChannelSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChannelSnapshot, len(m.slots))
	for i, s := range m.slots {
		out[i] = ChannelSnapshot{Channel: i, InUse: s.inUse}
		if s.inUse {
			out[i].Pin = s.pin
			out[i].Period = s.period
			out[i].Ratio = s.ratio.Name()
		}
	}
	return out
}

func (m *Manager) slotLocked(op string, h Handle) (*slot, error) {
	if m.closed {
		return nil, handleErr(op, h, BadHandle, ErrClosed)
	}
	if h < 0 || int(h) >= len(m.slots) || !m.slots[h].inUse {
		return nil, handleErr(op, h, BadHandle, nil)
	}
	return &m.slots[h], nil
}

// causeOf returns the collaborator error wrapped by a *Error, or err itself.
func causeOf(err error) error {
	if pe, ok := err.(*Error); ok && pe.Err != nil {
		return pe.Err
	}
	return err
}
