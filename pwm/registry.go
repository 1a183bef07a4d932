package pwm

// PinConfig maps a logical (BCM GPIO) pin to its channel slot and the names
// of the channel's mode, period and ratio nodes. Channel is also the handle
// value Open returns for the pin.
type PinConfig struct {
	Pin     int    `json:"pin"`
	Channel int    `json:"channel"`
	Mode    string `json:"mode"`
	Period  string `json:"period"`
	Ratio   string `json:"ratio"`
}

// Registry is an ordered pin table. Logical pins are expected to be unique;
// when they are not, the first entry wins.
type Registry []PinConfig

// Resolve returns the configuration for pin.
func (r Registry) Resolve(pin int) (PinConfig, bool) {
	for _, pc := range r {
		if pc.Pin == pin {
			return pc, true
		}
	}
	return PinConfig{}, false
}

// DefaultChannels is the number of channel slots on a Raspberry Pi.
const DefaultChannels = 4

// DefaultPins is the Raspberry Pi pin table under FreeBSD's bcm283x_pwm driver.
// Each of the two controllers carries two outputs; the second uses the
// "2"-suffixed nodes.
var DefaultPins = Registry{
	{Pin: 18, Channel: 0, Mode: "dev.pwm.0.mode", Period: "dev.pwm.0.period", Ratio: "dev.pwm.0.ratio"},    // header pin 12
	{Pin: 13, Channel: 2, Mode: "dev.pwm.1.mode", Period: "dev.pwm.1.period", Ratio: "dev.pwm.1.ratio"},    // header pin 33
	{Pin: 12, Channel: 1, Mode: "dev.pwm.0.mode2", Period: "dev.pwm.0.period2", Ratio: "dev.pwm.0.ratio2"}, // header pin 32
	{Pin: 19, Channel: 3, Mode: "dev.pwm.1.mode2", Period: "dev.pwm.1.period2", Ratio: "dev.pwm.1.ratio2"}, // header pin 35
}
