//go:build !linux

package sysctl

// GPIOLines is only available on Linux.
type GPIOLines struct{}

func OpenGPIOLines(chip string, channels []GPIOChannel) (*GPIOLines, error) {
	return nil, ErrUnsupported
}

func (*GPIOLines) WriteNamed(name string, value []byte) error { return ErrUnsupported }
func (*GPIOLines) ReadNamed(name string, size int) ([]byte, error) { return nil, ErrUnsupported }
func (*GPIOLines) Resolve(name string) (Node, error) { return Node{}, ErrUnsupported }
func (*GPIOLines) ReadResolved(n Node, size int) ([]byte, error) { return nil, ErrUnsupported }
func (*GPIOLines) WriteResolved(n Node, value []byte) error { return ErrUnsupported }
func (*GPIOLines) Close() error { return nil }
