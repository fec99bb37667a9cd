package gpio

import (
	"errors"
	"testing"

	pgpio "periph.io/x/conn/v3/gpio"
)

func TestFakePinsRead(t *testing.T) {
	f := NewFakePins([]bool{true, false, true}, []bool{false, true})

	wantDoor := []bool{true, false, true, true}
	for i, want := range wantDoor {
		got, err := f.ReadDoor()
		if err != nil {
			t.Fatalf("door sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("door sample %d: got %v, want %v", i, got, want)
		}
	}

	wantButton := []bool{false, true, true}
	for i, want := range wantButton {
		got, err := f.ReadButton()
		if err != nil {
			t.Fatalf("button sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("button sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestFakePinsNoSamples(t *testing.T) {
	f := NewFakePins(nil, nil)
	if _, err := f.ReadDoor(); err == nil {
		t.Error("expected error with no door samples")
	}
	if _, err := f.ReadButton(); err == nil {
		t.Error("expected error with no button samples")
	}
}

func TestFakePinsErrors(t *testing.T) {
	f := NewFakePins([]bool{true}, []bool{false})
	f.ReadError = errors.New("simulated read error")
	f.WriteError = errors.New("simulated write error")

	if _, err := f.ReadDoor(); err == nil || err.Error() != "simulated read error" {
		t.Errorf("ReadDoor: unexpected error %v", err)
	}
	if err := f.SetRelay(true); err == nil {
		t.Error("SetRelay: expected error")
	}
	if err := f.SetLED(255); err == nil {
		t.Error("SetLED: expected error")
	}
	if len(f.Relay) != 0 || len(f.LED) != 0 {
		t.Error("failed writes must not be recorded")
	}
}

func TestFakePinsRecordsWrites(t *testing.T) {
	f := NewFakePins(nil, nil)
	f.SetRelay(true)
	f.SetRelay(false)
	f.SetLED(10)

	if got := f.RelayWrites(); len(got) != 2 || !got[0] || got[1] {
		t.Errorf("relay writes: got %v", got)
	}
	if f.RelayOn() {
		t.Error("expected relay off after last write")
	}
	if len(f.LED) != 1 || f.LED[0] != 10 {
		t.Errorf("led writes: got %v", f.LED)
	}
}

func TestFakePinsCloseReleasesRelay(t *testing.T) {
	f := NewFakePins(nil, nil)
	f.SetRelay(true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.RelayOn() {
		t.Error("relay should be driven low on close")
	}
}

func TestFakePinsReset(t *testing.T) {
	f := NewFakePins([]bool{true, false}, []bool{true})
	f.ReadDoor()
	f.SetRelay(true)

	f.Reset()

	if got, _ := f.ReadDoor(); !got {
		t.Error("after reset: expected first door sample again")
	}
	if len(f.RelayWrites()) != 0 {
		t.Error("after reset: expected no recorded writes")
	}
}

func TestLevelBit(t *testing.T) {
	tests := []struct {
		level uint8
		want  int
	}{
		{0, 0},
		{50, 0},
		{127, 0},
		{128, 1},
		{255, 1},
	}
	for _, tt := range tests {
		if got := levelBit(tt.level); got != tt.want {
			t.Errorf("levelBit(%d): got %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestDutyFor(t *testing.T) {
	if dutyFor(0) != 0 {
		t.Errorf("dutyFor(0): got %v, want 0", dutyFor(0))
	}
	if dutyFor(255) != pgpio.DutyMax {
		t.Errorf("dutyFor(255): got %v, want max", dutyFor(255))
	}
	if d := dutyFor(128); d <= dutyFor(127) {
		t.Errorf("duty not increasing: %v <= %v", d, dutyFor(127))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Relay != 17 || cfg.Door != 27 || cfg.Button != 22 || cfg.LED != 18 {
		t.Errorf("unexpected default pins: %+v", cfg)
	}
	if cfg.Chip != "gpiochip0" {
		t.Errorf("unexpected chip %q", cfg.Chip)
	}
}

// Compile-time checks that the implementations satisfy Pins.
var (
	_ Pins = (*FakePins)(nil)
	_ Pins = (*RealPins)(nil)
	_ Pins = (*PeriphPins)(nil)
)
