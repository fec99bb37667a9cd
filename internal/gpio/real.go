//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives the board through the Linux GPIO character device.
// The LED is digital here: on at LEDThreshold and above.
type RealPins struct {
	chip   *gpiocdev.Chip
	relay  *gpiocdev.Line
	door   *gpiocdev.Line
	button *gpiocdev.Line
	led    *gpiocdev.Line

	ledBit int
}

// NewRealPins requests the configured lines. The relay and LED start low.
func NewRealPins(cfg Config) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}
	p := &RealPins{chip: chip}

	// Reed switch and button close to ground.
	if p.door, err = chip.RequestLine(cfg.Door, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		p.Close()
		return nil, fmt.Errorf("request door pin %d: %w", cfg.Door, err)
	}
	if p.button, err = chip.RequestLine(cfg.Button, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		p.Close()
		return nil, fmt.Errorf("request button pin %d: %w", cfg.Button, err)
	}
	if p.relay, err = chip.RequestLine(cfg.Relay, gpiocdev.AsOutput(0)); err != nil {
		p.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", cfg.Relay, err)
	}
	if p.led, err = chip.RequestLine(cfg.LED, gpiocdev.AsOutput(0)); err != nil {
		p.Close()
		return nil, fmt.Errorf("request led pin %d: %w", cfg.LED, err)
	}
	return p, nil
}

// ReadDoor returns the raw reed switch level.
func (p *RealPins) ReadDoor() (bool, error) {
	v, err := p.door.Value()
	if err != nil {
		return false, fmt.Errorf("read door pin: %w", err)
	}
	return v == 1, nil
}

// ReadButton returns true while the button pulls the line low.
func (p *RealPins) ReadButton() (bool, error) {
	v, err := p.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 0, nil
}

// SetRelay drives the relay line.
func (p *RealPins) SetRelay(on bool) error {
	if err := p.relay.SetValue(boolBit(on)); err != nil {
		return fmt.Errorf("set relay pin: %w", err)
	}
	return nil
}

// SetLED switches the LED. The line is only written when the bit changes,
// since the loop calls this every tick.
func (p *RealPins) SetLED(level uint8) error {
	bit := levelBit(level)
	if bit == p.ledBit {
		return nil
	}
	if err := p.led.SetValue(bit); err != nil {
		return fmt.Errorf("set led pin: %w", err)
	}
	p.ledBit = bit
	return nil
}

// Close drives the relay low, then returns every line to input with
// pull-down (the Pi boot default) and releases the chip.
func (p *RealPins) Close() error {
	var errs []error

	if p.relay != nil {
		if err := p.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release relay: %w", err))
		}
	}
	lines := []struct {
		name string
		line *gpiocdev.Line
	}{
		{"relay", p.relay},
		{"led", p.led},
		{"door", p.door},
		{"button", p.button},
	}
	for _, l := range lines {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
