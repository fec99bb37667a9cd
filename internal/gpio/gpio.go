// Package gpio provides the controller's physical I/O with hardware abstraction.
// The real implementations use the Linux GPIO character device (gpiocdev) or
// periph.io. The fake implementation allows testing without hardware.
package gpio

import "errors"

// Pins is the controller's view of the board.
type Pins interface {
	// ReadDoor returns the raw reed switch level (true = HIGH).
	ReadDoor() (bool, error)

	// ReadButton returns true while the push button is pressed.
	// The button is active-low with a pull-up; the inversion happens here.
	ReadButton() (bool, error)

	// SetRelay energizes (true) or releases (false) the door opener relay.
	SetRelay(on bool) error

	// SetLED sets the status LED brightness, 0-255. Implementations without
	// PWM switch the LED on at LEDThreshold and above.
	SetLED(level uint8) error

	// Close releases the relay and GPIO resources.
	Close() error
}

// ErrNotSupported is returned by the real implementations on platforms
// without GPIO support.
var ErrNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Default pin definitions (BCM numbering).
const (
	DefaultPinRelay  = 17
	DefaultPinDoor   = 27
	DefaultPinButton = 22
	DefaultPinLED    = 18
)

// DefaultChip is the GPIO character device used by RealPins.
const DefaultChip = "gpiochip0"

// LEDThreshold is the brightness at which a digital LED is switched on.
const LEDThreshold = 128

// Config selects the pins used by the real implementations.
type Config struct {
	Chip   string
	Relay  int
	Door   int
	Button int
	LED    int
}

// DefaultConfig returns the standard wiring.
func DefaultConfig() Config {
	return Config{
		Chip:   DefaultChip,
		Relay:  DefaultPinRelay,
		Door:   DefaultPinDoor,
		Button: DefaultPinButton,
		LED:    DefaultPinLED,
	}
}

func levelBit(level uint8) int {
	if level >= LEDThreshold {
		return 1
	}
	return 0
}

func boolBit(on bool) int {
	if on {
		return 1
	}
	return 0
}
