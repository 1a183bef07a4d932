package sysctl

// GPIOPeriod is the period reported by GPIOLines channels. Any ratio above
// zero drives the line high.
const GPIOPeriod = 100

// GPIOConsumer is the consumer label attached to requested GPIO lines.
const GPIOConsumer = "libpwm"

// GPIOChannel binds a named GPIO line to the mode, period and ratio nodes of
// an emulated on/off channel.
type GPIOChannel struct {
	// Line is the line name on the chip, e.g. "GPIO18".
	Line   string
	Mode   string
	Period string
	Ratio  string
}

type gpioNodeKind int32

const (
	gpioMode gpioNodeKind = iota
	gpioPeriod
	gpioRatio
)
