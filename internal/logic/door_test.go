package logic

import (
	"testing"
	"time"
)

const (
	high = true
	low  = false
)

// feed runs samples through d at step intervals starting at start and returns
// the confirmed transitions.
func feed(d *DoorDebouncer, start time.Time, step time.Duration, samples ...bool) []DoorTransition {
	var out []DoorTransition
	for i, raw := range samples {
		if tr := d.Update(raw, start.Add(time.Duration(i)*step)); tr != nil {
			out = append(out, *tr)
		}
	}
	return out
}

func TestNewDoorDebouncerUnknown(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)
	if d.State() != DoorUnknown {
		t.Errorf("expected UNKNOWN, got %s", d.State())
	}
}

func TestDoorInitialConfirmation(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)

	// Within the window nothing is confirmed
	if tr := d.Update(high, at(30)); tr != nil {
		t.Fatalf("unexpected transition at 30ms: %+v", tr)
	}
	if tr := d.Update(high, at(50)); tr != nil {
		t.Fatalf("window is exclusive, unexpected transition at 50ms: %+v", tr)
	}

	tr := d.Update(high, at(60))
	if tr == nil {
		t.Fatal("expected transition after debounce window")
	}
	if tr.State != DoorClosed {
		t.Errorf("expected CLOSED, got %s", tr.State)
	}
	if tr.Color != ColorClosed {
		t.Errorf("expected amber, got %s", tr.Color)
	}
	if tr.Event.Name != EventDoor || tr.Event.Payload != PayloadDoorClosed {
		t.Errorf("unexpected event %s", tr.Event)
	}
	if !tr.Event.Timestamp.Equal(at(60)) {
		t.Errorf("unexpected timestamp %v", tr.Event.Timestamp)
	}
	if d.State() != DoorClosed {
		t.Errorf("expected CLOSED, got %s", d.State())
	}
}

func TestDoorLowMeansOpen(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, low, t0)
	trs := feed(d, t0, 10*time.Millisecond, low, low, low, low, low, low, low, low)
	if len(trs) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(trs))
	}
	if trs[0].State != DoorOpen || trs[0].Color != ColorOpen || trs[0].Event.Payload != PayloadDoorOpen {
		t.Errorf("unexpected transition %+v", trs[0])
	}
}

func TestDoorStableProducesOneTransition(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)
	samples := make([]bool, 200)
	for i := range samples {
		samples[i] = high
	}
	trs := feed(d, t0, 10*time.Millisecond, samples...)
	if len(trs) != 1 {
		t.Errorf("expected exactly 1 transition for a stable input, got %d", len(trs))
	}
}

func TestDoorBounceWithinWindowIgnored(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)
	feed(d, t0, 10*time.Millisecond, high, high, high, high, high, high, high, high)
	if d.State() != DoorClosed {
		t.Fatalf("setup: expected CLOSED, got %s", d.State())
	}

	// Raw flips low and back high within 50ms
	start := at(100)
	trs := feed(d, start, 10*time.Millisecond, low, low, high, high, high, high, high, high, high, high)
	if len(trs) != 0 {
		t.Errorf("expected no transition for a bounce, got %d", len(trs))
	}
	if d.State() != DoorClosed {
		t.Errorf("expected CLOSED after bounce, got %s", d.State())
	}
}

func TestDoorTransitionAfterStableChange(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)
	feed(d, t0, 10*time.Millisecond, high, high, high, high, high, high, high, high)

	start := at(100)
	samples := []bool{low, low, low, low, low, low, low, low, low, low}
	var got []DoorTransition
	var confirmedAt int
	for i, raw := range samples {
		if tr := d.Update(raw, start.Add(time.Duration(i)*10*time.Millisecond)); tr != nil {
			got = append(got, *tr)
			confirmedAt = i
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 transition, got %d", len(got))
	}
	if got[0].State != DoorOpen {
		t.Errorf("expected OPEN, got %s", got[0].State)
	}
	// Change seen at i=0 (100ms); window passes strictly after 150ms.
	if confirmedAt != 6 {
		t.Errorf("expected confirmation at sample 6 (160ms), got sample %d", confirmedAt)
	}
}

func TestDoorNoisyInputNeverConfirms(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)
	raw := high
	for i := 0; i < 100; i++ {
		raw = !raw
		if tr := d.Update(raw, at(i*20)); tr != nil {
			t.Fatalf("noisy input confirmed a transition at %dms: %+v", i*20, tr)
		}
	}
	if d.State() != DoorUnknown {
		t.Errorf("expected UNKNOWN, got %s", d.State())
	}
}

func TestDoorChangeNotConfirmedOnSameTick(t *testing.T) {
	d := NewDoorDebouncer(DoorDebounce, high, t0)
	feed(d, t0, 10*time.Millisecond, high, high, high, high, high, high, high, high)

	// A long gap followed by a change restarts the window even though the
	// previous sample has been stable for much longer.
	if tr := d.Update(low, at(1000)); tr != nil {
		t.Fatalf("fresh sample must not be confirmed on the tick it changes: %+v", tr)
	}
	if d.State() != DoorClosed {
		t.Errorf("expected CLOSED, got %s", d.State())
	}
}
