package logic

import "time"

// Relay is the relay actuation state machine. It owns the relay output and
// its timers. The zero value is not usable; call NewRelay.
type Relay struct {
	state          RelayState
	lastTransition time.Time
}

// RelayOutput is what the relay drives for one tick.
type RelayOutput struct {
	// Energized is the level to write to the relay pin.
	Energized bool
	// Effect is the LED request of the current state. EffectNone when Idle,
	// leaving the LED to the status presenter.
	Effect Effect
}

// NewRelay creates a relay in the Idle state.
func NewRelay() *Relay {
	return &Relay{state: RelayIdle}
}

// State returns the current relay state.
func (r *Relay) State() RelayState {
	return r.state
}

// Request dispatches a trigger request. See RequestImmediate and RequestDelayed.
func (r *Relay) Request(req TriggerRequest, now time.Time) (bool, *Event) {
	switch req {
	case TriggerImmediate:
		return r.RequestImmediate(now)
	case TriggerDelayed:
		return r.RequestDelayed(now), nil
	default:
		return false, nil
	}
}

// RequestImmediate arms the relay to fire on the next tick. It returns true
// only when the relay was Idle. While a delayed fire is pending the request
// cancels it instead: the relay returns to Idle, false is returned, and the
// DELAY-CANCELED event is returned for publishing. In any other state the
// request is ignored.
func (r *Relay) RequestImmediate(now time.Time) (bool, *Event) {
	switch r.state {
	case RelayIdle:
		r.enter(RelayFiring, now)
		return true, nil
	case RelayPendingDelayedFire:
		r.enter(RelayIdle, now)
		return false, &Event{Timestamp: now, Name: EventAction, Payload: PayloadDelayCanceled}
	default:
		return false, nil
	}
}

// RequestDelayed schedules the relay to fire after DelayDuration. It returns
// true only when the relay was Idle.
func (r *Relay) RequestDelayed(now time.Time) bool {
	if r.state != RelayIdle {
		return false
	}
	r.enter(RelayPendingDelayedFire, now)
	return true
}

// Tick advances the timers and returns the relay level and LED effect for the
// resulting state. Transitions are applied before the output is computed, so
// the relay is energized exactly when the state is Firing.
func (r *Relay) Tick(now time.Time) RelayOutput {
	elapsed := now.Sub(r.lastTransition)

	switch r.state {
	case RelayIdle:
	case RelayFiring:
		if elapsed >= FireDuration {
			r.enter(RelayLocked, now)
		}
	case RelayLocked:
		if elapsed >= LockoutDuration {
			r.enter(RelayIdle, now)
		}
	case RelayPendingDelayedFire:
		if elapsed >= DelayDuration {
			r.enter(RelayFiring, now)
		}
	default:
		// Impossible state: recover to Idle with the relay off.
		r.enter(RelayIdle, now)
	}

	return r.output()
}

func (r *Relay) output() RelayOutput {
	switch r.state {
	case RelayFiring:
		return RelayOutput{Energized: true, Effect: EffectFiring}
	case RelayLocked:
		return RelayOutput{Effect: EffectLocked}
	case RelayPendingDelayedFire:
		return RelayOutput{Effect: EffectPending}
	default:
		return RelayOutput{}
	}
}

func (r *Relay) enter(state RelayState, now time.Time) {
	r.state = state
	r.lastTransition = now
}
