// Package logic contains the pure state machines of the garage controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Version is the controller version reported by get("version") and the
// version variable.
const Version = 12

// Timing constants for the relay and the door sensor.
const (
	FireDuration    = 1000 * time.Millisecond
	LockoutDuration = 3000 * time.Millisecond
	DelayDuration   = 15000 * time.Millisecond
	DoorDebounce    = 50 * time.Millisecond
)

// RelayState is the state of the relay actuation machine. The numeric values
// are exposed remotely through get("rlyState") and must not change.
type RelayState int

const (
	RelayIdle               RelayState = 0
	RelayFiring             RelayState = 1
	RelayLocked             RelayState = 2
	RelayPendingDelayedFire RelayState = 3
)

func (s RelayState) String() string {
	switch s {
	case RelayIdle:
		return "IDLE"
	case RelayFiring:
		return "FIRING"
	case RelayLocked:
		return "LOCKED"
	case RelayPendingDelayedFire:
		return "PENDING"
	default:
		return fmt.Sprintf("RelayState(%d)", int(s))
	}
}

// DoorState is the debounced state of the door reed switch.
type DoorState int

const (
	DoorUnknown DoorState = -1
	DoorClosed  DoorState = 0
	DoorOpen    DoorState = 1
)

func (s DoorState) String() string {
	switch s {
	case DoorClosed:
		return "CLOSED"
	case DoorOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// TriggerRequest is an actuation request handed to the relay.
type TriggerRequest int

const (
	TriggerImmediate TriggerRequest = iota
	TriggerDelayed
)

// ClickGesture is the click count reported by the button for one tick.
type ClickGesture int

const (
	ClickNone   ClickGesture = 0
	ClickSingle ClickGesture = 1
	ClickDouble ClickGesture = 2
)

// EffectKind names an LED effect.
type EffectKind string

const (
	EffectNone     EffectKind = ""
	EffectOn       EffectKind = "ON"
	EffectOff      EffectKind = "OFF"
	EffectBreath   EffectKind = "BREATH"
	EffectBlink    EffectKind = "BLINK"
	EffectDim      EffectKind = "DIM"
	EffectFadeUp   EffectKind = "FADE_UP"
	EffectFadeDown EffectKind = "FADE_DOWN"
)

// Effect is a request for the LED renderer. Param is the blink period in
// milliseconds, the breath/fade step rate, or the dim level depending on Kind.
type Effect struct {
	Kind  EffectKind
	Param int
}

// IsNone reports whether the effect is an empty request.
func (e Effect) IsNone() bool {
	return e.Kind == EffectNone
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectNone:
		return "NONE"
	case EffectOn, EffectOff:
		return string(e.Kind)
	default:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Param)
	}
}

// Effect constructors.
func On() Effect                { return Effect{Kind: EffectOn} }
func Off() Effect               { return Effect{Kind: EffectOff} }
func Breath(rate int) Effect    { return Effect{Kind: EffectBreath, Param: rate} }
func Blink(periodMs int) Effect { return Effect{Kind: EffectBlink, Param: periodMs} }
func Dim(level int) Effect      { return Effect{Kind: EffectDim, Param: level} }
func FadeUp(rate int) Effect    { return Effect{Kind: EffectFadeUp, Param: rate} }
func FadeDown(rate int) Effect  { return Effect{Kind: EffectFadeDown, Param: rate} }

// Effects requested by the relay and the presenter.
var (
	EffectFiring  = Blink(125)
	EffectLocked  = Dim(50)
	EffectPending = Blink(500)
	EffectClosed  = On()
	EffectOpen    = Breath(25)
)

// Color is an RGB triple for the tri-color door indicator.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Indicator colors per door state.
var (
	ColorClosed = Color{R: 255, G: 125, B: 0}
	ColorOpen   = Color{R: 0, G: 125, B: 255}
)

// Audit event names.
const (
	EventAction = "GARAGE-ACTION"
	EventDoor   = "GARAGE-DOOR"
)

// Audit event payloads.
const (
	PayloadRemoteActuation      = "REMOTE-ACTUATION"
	PayloadRemoteActuationDelay = "REMOTE-ACTUATION-DELAY"
	PayloadLocalActuation       = "LOCAL-ACTUATION"
	PayloadLocalActuationDelay  = "LOCAL-ACTUATION-DELAY"
	PayloadDelayCanceled        = "DELAY-CANCELED"
	PayloadDoorOpen             = "OPEN"
	PayloadDoorClosed           = "CLOSED"
)

// Event is a one-way audit notification.
type Event struct {
	Timestamp time.Time
	Name      string
	Payload   string
}

func (e Event) String() string {
	return e.Name + "/" + e.Payload
}

// EventCounts tracks the number of each audit event since startup.
type EventCounts struct {
	RemoteActuation      int
	RemoteActuationDelay int
	LocalActuation       int
	LocalActuationDelay  int
	DelayCanceled        int
	DoorOpen             int
	DoorClosed           int
}

// Add counts e. Unknown events are ignored.
func (c *EventCounts) Add(e Event) {
	switch e.Payload {
	case PayloadRemoteActuation:
		c.RemoteActuation++
	case PayloadRemoteActuationDelay:
		c.RemoteActuationDelay++
	case PayloadLocalActuation:
		c.LocalActuation++
	case PayloadLocalActuationDelay:
		c.LocalActuationDelay++
	case PayloadDelayCanceled:
		c.DelayCanceled++
	case PayloadDoorOpen:
		c.DoorOpen++
	case PayloadDoorClosed:
		c.DoorClosed++
	}
}
