//go:build !linux

package gpio

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns ErrNotSupported on non-Linux platforms.
func NewRealPins(cfg Config) (*RealPins, error) {
	return nil, ErrNotSupported
}

func (p *RealPins) ReadDoor() (bool, error)   { return false, ErrNotSupported }
func (p *RealPins) ReadButton() (bool, error) { return false, ErrNotSupported }
func (p *RealPins) SetRelay(on bool) error    { return ErrNotSupported }
func (p *RealPins) SetLED(level uint8) error  { return ErrNotSupported }

// Close is a no-op on non-Linux platforms.
func (p *RealPins) Close() error {
	return nil
}
