// Package controller runs the garage door controller: it owns the relay
// state machine, the door debouncer, the button and the LED renderer, and
// advances them in a fixed order once per poll tick.
//
// A Controller is not safe for concurrent use. Remote calls reach it through
// the cloud mailbox, which the loop goroutine drains between ticks.
package controller

import (
	"io"
	"log"
	"time"

	"github.com/sweeney/garage-controller/internal/button"
	"github.com/sweeney/garage-controller/internal/gpio"
	"github.com/sweeney/garage-controller/internal/led"
	"github.com/sweeney/garage-controller/internal/logic"
)

// Sink receives audit events.
type Sink interface {
	Publish(e logic.Event)
}

// Options configures a Controller.
type Options struct {
	// Clock stamps remote requests. Defaults to time.Now.
	Clock func() time.Time
	// Debug receives verbose tracing. Defaults to discarding.
	Debug *log.Logger
}

// Controller coordinates the relay, door sensor, button and LED.
type Controller struct {
	pins  gpio.Pins
	sink  Sink
	clock func() time.Time
	debug *log.Logger

	relay  *logic.Relay
	door   *logic.DoorDebouncer
	button *button.Counter
	led    *led.Renderer

	color  logic.Color
	counts logic.EventCounts

	lastDoorRaw bool
	lastPressed bool
	relayOn     bool
	relaySet    bool

	failing map[string]bool
}

// New creates a controller. The door debouncer is seeded with the first
// successful door reading, taken now if the pin answers, and the LED shows
// the startup effect until the door state is confirmed.
func New(pins gpio.Pins, sink Sink, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Debug == nil {
		opts.Debug = log.New(io.Discard, "", 0)
	}
	now := opts.Clock()

	c := &Controller{
		pins:    pins,
		sink:    sink,
		clock:   opts.Clock,
		debug:   opts.Debug,
		relay:   logic.NewRelay(),
		button:  button.NewCounter(now),
		led:     led.NewRenderer(),
		failing: make(map[string]bool),
	}

	raw, err := pins.ReadDoor()
	if c.ioResult("read door", err) {
		c.seedDoor(raw, now)
	}
	c.led.Apply(led.StartupEffect, now)
	return c
}

// Tick advances the controller by one poll period. The order of the steps
// is fixed: presenter, button poll, LED update, relay tick, door update,
// gesture dispatch.
func (c *Controller) Tick(now time.Time) {
	// Status presenter: only speaks while the relay is idle.
	c.applyEffect(logic.Present(c.relay.State(), c.DoorState()), now)

	pressed, err := c.pins.ReadButton()
	if c.ioResult("read button", err) {
		c.lastPressed = pressed
	}
	clicks := c.button.Update(c.lastPressed, now)

	c.ioResult("set led", c.pins.SetLED(c.led.Update(now)))

	out := c.relay.Tick(now)
	c.driveRelay(out.Energized)
	c.applyEffect(out.Effect, now)

	raw, err := c.pins.ReadDoor()
	if c.ioResult("read door", err) {
		c.seedDoor(raw, now)
		c.lastDoorRaw = raw
	}
	// The door stays Unknown until the switch has been read at least once.
	if c.door != nil {
		if tr := c.door.Update(c.lastDoorRaw, now); tr != nil {
			c.color = tr.Color
			log.Printf("controller: door %s, indicator %s", tr.State, tr.Color)
			c.publish(tr.Event)
		}
	}

	switch logic.ClickGesture(clicks) {
	case logic.ClickSingle:
		c.publish(logic.Event{Timestamp: now, Name: logic.EventAction, Payload: logic.PayloadLocalActuation})
		c.trigger(logic.TriggerImmediate, now)
	case logic.ClickDouble:
		c.publish(logic.Event{Timestamp: now, Name: logic.EventAction, Payload: logic.PayloadLocalActuationDelay})
		c.trigger(logic.TriggerDelayed, now)
	case logic.ClickNone:
	default:
		c.debug.Printf("controller: ignoring %d clicks", clicks)
	}
}

// seedDoor creates the debouncer from the first successful door reading.
func (c *Controller) seedDoor(raw bool, now time.Time) {
	if c.door != nil {
		return
	}
	c.lastDoorRaw = raw
	c.door = logic.NewDoorDebouncer(logic.DoorDebounce, raw, now)
}

func (c *Controller) trigger(req logic.TriggerRequest, now time.Time) bool {
	before := c.relay.State()
	ok, ev := c.relay.Request(req, now)
	if ev != nil {
		c.publish(*ev)
	}
	if after := c.relay.State(); after != before {
		log.Printf("controller: relay %s -> %s", before, after)
	}
	return ok
}

func (c *Controller) applyEffect(e logic.Effect, now time.Time) {
	if c.led.Apply(e, now) {
		c.debug.Printf("controller: led effect %s", e)
	}
}

// driveRelay writes the relay pin when its level changes.
func (c *Controller) driveRelay(on bool) {
	if c.relaySet && on == c.relayOn {
		return
	}
	if c.ioResult("set relay", c.pins.SetRelay(on)) {
		c.relayOn, c.relaySet = on, true
	}
}

func (c *Controller) publish(e logic.Event) {
	c.counts.Add(e)
	c.debug.Printf("controller: event %s", e)
	if c.sink != nil {
		c.sink.Publish(e)
	}
}

// ioResult logs the first failure of op and its recovery, and reports
// whether op succeeded. Failures repeat every tick, so they are not logged
// each time.
func (c *Controller) ioResult(op string, err error) bool {
	if err != nil {
		if !c.failing[op] {
			log.Printf("controller: %s: %v", op, err)
			c.failing[op] = true
		}
		return false
	}
	if c.failing[op] {
		log.Printf("controller: %s recovered", op)
		delete(c.failing, op)
	}
	return true
}

// RelayState returns the relay state.
func (c *Controller) RelayState() logic.RelayState {
	return c.relay.State()
}

// DoorState returns the debounced door state.
func (c *Controller) DoorState() logic.DoorState {
	if c.door == nil {
		return logic.DoorUnknown
	}
	return c.door.State()
}

// Effect returns the active LED effect.
func (c *Controller) Effect() logic.Effect {
	return c.led.Current()
}

// LEDLevel returns the LED brightness written on the last tick.
func (c *Controller) LEDLevel() uint8 {
	return c.led.Level()
}

// LEDCycle returns the numeric tag of the active LED effect.
func (c *Controller) LEDCycle() int {
	return c.led.Cycle()
}

// Color returns the door indicator color. It is zero until the first
// confirmed door state.
func (c *Controller) Color() logic.Color {
	return c.color
}

// Counts returns the number of each audit event emitted since startup.
func (c *Controller) Counts() logic.EventCounts {
	return c.counts
}

// Close releases the relay and the pins.
func (c *Controller) Close() error {
	return c.pins.Close()
}
