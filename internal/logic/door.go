package logic

import "time"

// DoorDebouncer tracks the reed switch and detects debounced door transitions.
//
// The switch is wired to ground with a pull-up: a HIGH level means the magnet
// is away (door closed for this installation), LOW means contact (door open).
type DoorDebouncer struct {
	debounce   time.Duration
	lastRaw    bool
	lastChange time.Time
	state      DoorState
}

// DoorTransition is a confirmed change of the door state.
type DoorTransition struct {
	State DoorState
	Color Color
	Event Event
}

// NewDoorDebouncer creates a debouncer seeded with an initial raw reading.
// The door state stays Unknown until the level has been stable for longer
// than the debounce duration.
func NewDoorDebouncer(debounce time.Duration, initialRaw bool, now time.Time) *DoorDebouncer {
	return &DoorDebouncer{
		debounce:   debounce,
		lastRaw:    initialRaw,
		lastChange: now,
		state:      DoorUnknown,
	}
}

// State returns the confirmed door state.
func (d *DoorDebouncer) State() DoorState {
	return d.state
}

// Update takes a raw sample and returns the transition it confirmed, if any.
// Stability is judged on the previous sample, so a change is confirmed one
// tick after the debounce window has passed.
func (d *DoorDebouncer) Update(raw bool, now time.Time) *DoorTransition {
	if raw != d.lastRaw {
		d.lastChange = now
	}

	var tr *DoorTransition
	if now.Sub(d.lastChange) > d.debounce {
		if target := doorStateForLevel(d.lastRaw); target != d.state {
			d.state = target
			tr = transitionFor(target, now)
		}
	}

	d.lastRaw = raw
	return tr
}

func doorStateForLevel(high bool) DoorState {
	if high {
		return DoorClosed
	}
	return DoorOpen
}

func transitionFor(state DoorState, now time.Time) *DoorTransition {
	if state == DoorClosed {
		return &DoorTransition{
			State: DoorClosed,
			Color: ColorClosed,
			Event: Event{Timestamp: now, Name: EventDoor, Payload: PayloadDoorClosed},
		}
	}
	return &DoorTransition{
		State: DoorOpen,
		Color: ColorOpen,
		Event: Event{Timestamp: now, Name: EventDoor, Payload: PayloadDoorOpen},
	}
}
