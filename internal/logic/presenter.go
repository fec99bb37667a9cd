package logic

// Present returns the ambient LED effect for the relay and door states.
// It returns EffectNone unless the relay is Idle, since the relay's own
// effect takes priority, and when the door state is still Unknown.
func Present(relay RelayState, door DoorState) Effect {
	if relay != RelayIdle {
		return Effect{}
	}
	switch door {
	case DoorClosed:
		return EffectClosed
	case DoorOpen:
		return EffectOpen
	default:
		return Effect{}
	}
}
