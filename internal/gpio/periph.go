package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PWMFrequency is the LED PWM carrier.
const PWMFrequency = physic.KiloHertz

// PeriphPins drives the board through periph.io. The LED is dimmed with PWM
// when the pin supports it and falls back to on/off otherwise.
type PeriphPins struct {
	relay  pgpio.PinIO
	door   pgpio.PinIO
	button pgpio.PinIO
	led    pgpio.PinIO

	pwm    bool
	ledSet bool
	level  uint8
}

// NewPeriphPins initialises the periph host drivers and configures the pins.
// cfg.Chip is ignored; pins are looked up by BCM name.
func NewPeriphPins(cfg Config) (*PeriphPins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	p := &PeriphPins{pwm: true}
	var err error
	if p.relay, err = lookup(cfg.Relay); err != nil {
		return nil, err
	}
	if p.door, err = lookup(cfg.Door); err != nil {
		return nil, err
	}
	if p.button, err = lookup(cfg.Button); err != nil {
		return nil, err
	}
	if p.led, err = lookup(cfg.LED); err != nil {
		return nil, err
	}

	if err := p.relay.Out(pgpio.Low); err != nil {
		return nil, fmt.Errorf("configure relay pin %d: %w", cfg.Relay, err)
	}
	if err := p.door.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure door pin %d: %w", cfg.Door, err)
	}
	if err := p.button.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure button pin %d: %w", cfg.Button, err)
	}
	if err := p.led.Out(pgpio.Low); err != nil {
		return nil, fmt.Errorf("configure led pin %d: %w", cfg.LED, err)
	}
	return p, nil
}

func lookup(bcm int) (pgpio.PinIO, error) {
	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", bcm))
	if pin == nil {
		return nil, fmt.Errorf("gpio: no pin GPIO%d", bcm)
	}
	return pin, nil
}

// ReadDoor returns the raw reed switch level.
func (p *PeriphPins) ReadDoor() (bool, error) {
	return p.door.Read() == pgpio.High, nil
}

// ReadButton returns true while the button pulls the line low.
func (p *PeriphPins) ReadButton() (bool, error) {
	return p.button.Read() == pgpio.Low, nil
}

// SetRelay drives the relay pin.
func (p *PeriphPins) SetRelay(on bool) error {
	if err := p.relay.Out(pgpio.Level(on)); err != nil {
		return fmt.Errorf("set relay pin: %w", err)
	}
	return nil
}

// SetLED sets the LED brightness. Unchanged levels are not rewritten.
func (p *PeriphPins) SetLED(level uint8) error {
	if p.ledSet && level == p.level {
		return nil
	}
	if p.pwm {
		if err := p.led.PWM(dutyFor(level), PWMFrequency); err == nil {
			p.ledSet, p.level = true, level
			return nil
		}
		// Not a PWM capable pin: stay digital from now on.
		p.pwm = false
	}
	if err := p.led.Out(pgpio.Level(levelBit(level) == 1)); err != nil {
		return fmt.Errorf("set led pin: %w", err)
	}
	p.ledSet, p.level = true, level
	return nil
}

// dutyFor maps 0-255 onto the periph duty range.
func dutyFor(level uint8) pgpio.Duty {
	return pgpio.Duty(int64(pgpio.DutyMax) * int64(level) / 255)
}

// Close drives the relay and LED low and halts the pins.
func (p *PeriphPins) Close() error {
	var errs []error
	if err := p.relay.Out(pgpio.Low); err != nil {
		errs = append(errs, fmt.Errorf("release relay: %w", err))
	}
	if err := p.led.Out(pgpio.Low); err != nil {
		errs = append(errs, fmt.Errorf("release led: %w", err))
	}
	for _, pin := range []pgpio.PinIO{p.relay, p.led, p.door, p.button} {
		if err := pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", pin, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
