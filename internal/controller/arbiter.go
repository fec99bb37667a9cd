package controller

import (
	"log"

	"github.com/sweeney/garage-controller/internal/cloud"
	"github.com/sweeney/garage-controller/internal/logic"
)

// Cloud function names.
const (
	FuncGet = "get"
	FuncSet = "set"
	FuncGo  = "go"
)

// Cloud variable names.
const (
	VarVersion   = "version"
	VarIntState  = "intState"
	VarDoorState = "doorState"
)

// Remote command results.
const (
	ResultUnknown = -1
	ResultLock    = -2
	ResultUnlock  = -3
)

// Register exposes the controller's functions and variables on reg.
func (c *Controller) Register(reg *cloud.Registry) {
	reg.RegisterFunction(FuncGet, c.Get)
	reg.RegisterFunction(FuncSet, c.Set)
	reg.RegisterFunction(FuncGo, c.Go)

	reg.RegisterVariable(VarVersion, func() int { return logic.Version })
	reg.RegisterVariable(VarIntState, func() int { return 0 })
	reg.RegisterVariable(VarDoorState, func() int { return int(c.DoorState()) })
}

// Go handles a remote actuation. "relay" fires the relay now (or cancels a
// pending delayed fire), "relay-delay" schedules a delayed fire. Both publish
// their audit event before the request and return 1 if the relay accepted
// it, 0 otherwise. Any other command returns -1 with no side effects.
func (c *Controller) Go(command string) int {
	var req logic.TriggerRequest
	var payload string
	switch command {
	case "relay":
		req, payload = logic.TriggerImmediate, logic.PayloadRemoteActuation
	case "relay-delay":
		req, payload = logic.TriggerDelayed, logic.PayloadRemoteActuationDelay
	default:
		log.Printf("controller: go(%q): unknown command", command)
		return ResultUnknown
	}

	now := c.clock()
	c.publish(logic.Event{Timestamp: now, Name: logic.EventAction, Payload: payload})
	if c.trigger(req, now) {
		return 1
	}
	return 0
}

// Set handles the lock commands. Locking is reserved: the results are
// fixed and the controller state is never changed.
func (c *Controller) Set(command string) int {
	switch command {
	case "lock":
		return ResultLock
	case "unlock":
		return ResultUnlock
	default:
		return ResultUnknown
	}
}

// Get returns "version", the relay state tag ("rlyState") or the LED cycle
// tag ("ledState"); -1 for anything else.
func (c *Controller) Get(command string) int {
	switch command {
	case "version":
		return logic.Version
	case "rlyState":
		return int(c.relay.State())
	case "ledState":
		return c.led.Cycle()
	default:
		return ResultUnknown
	}
}
