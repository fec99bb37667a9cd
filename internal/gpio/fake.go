package gpio

import (
	"errors"
	"sync"
)

// FakePins is a test double that returns scripted input levels and records
// output writes. It is safe for concurrent use.
type FakePins struct {
	mu sync.Mutex

	// Door and Button contain scripted samples. Each read consumes the next
	// sample; once exhausted the last sample repeats.
	Door   []bool
	Button []bool

	doorIdx   int
	buttonIdx int

	// Relay and LED record every write, in order.
	Relay []bool
	LED   []uint8

	// ReadError, if set, is returned by ReadDoor and ReadButton.
	ReadError error
	// WriteError, if set, is returned by SetRelay and SetLED.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePins creates FakePins with the given door and button scripts.
func NewFakePins(door, button []bool) *FakePins {
	return &FakePins{Door: door, Button: button}
}

// ReadDoor returns the next scripted door level.
func (f *FakePins) ReadDoor() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return next(f.Door, &f.doorIdx, f.ReadError)
}

// ReadButton returns the next scripted button level.
func (f *FakePins) ReadButton() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return next(f.Button, &f.buttonIdx, f.ReadError)
}

func next(samples []bool, idx *int, readErr error) (bool, error) {
	if readErr != nil {
		return false, readErr
	}
	if len(samples) == 0 {
		return false, errors.New("no samples configured")
	}
	v := samples[*idx]
	if *idx < len(samples)-1 {
		*idx++
	}
	return v, nil
}

// SetRelay records the relay level.
func (f *FakePins) SetRelay(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Relay = append(f.Relay, on)
	return nil
}

// SetLED records the LED level.
func (f *FakePins) SetLED(level uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.LED = append(f.LED, level)
	return nil
}

// RelayOn reports the last relay level written.
func (f *FakePins) RelayOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Relay) > 0 && f.Relay[len(f.Relay)-1]
}

// RelayWrites returns a copy of the recorded relay levels.
func (f *FakePins) RelayWrites() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.Relay...)
}

// Close drives the relay low and marks the pins as closed.
func (f *FakePins) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Relay = append(f.Relay, false)
	f.Closed = true
	return nil
}

// Reset rewinds the scripts and clears recorded writes.
func (f *FakePins) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doorIdx = 0
	f.buttonIdx = 0
	f.Relay = nil
	f.LED = nil
	f.Closed = false
}
