// Package status provides a thread-safe status tracker for the garage-controller daemon.
// It is written by the control loop and read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/garage-controller/internal/logic"
)

// DefaultRecentEvents is the number of audit events kept for display.
const DefaultRecentEvents = 20

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	TopicPrefix string
	HTTPAddr    string
	GPIO        string
}

// Device is the controller state published by the loop after each tick.
type Device struct {
	Relay     logic.RelayState
	Door      logic.DoorState
	Effect    logic.Effect
	LEDCycle  int
	LEDLevel  uint8
	Indicator logic.Color
	Counts    logic.EventCounts
	Variables map[string]int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Device
	Recent        []logic.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	snap      Snapshot
	maxRecent int
}

// NewTracker creates a Tracker with the given start time and config.
// The door starts Unknown.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Device:    Device{Door: logic.DoorUnknown},
			StartTime: startTime,
			Config:    cfg,
		},
		maxRecent: DefaultRecentEvents,
	}
}

// Update replaces the device state. Called from the loop after every tick.
func (t *Tracker) Update(d Device) {
	t.mu.Lock()
	t.snap.Device = d
	t.mu.Unlock()
}

// RecordEvent appends an audit event to the recent list, dropping the oldest.
func (t *Tracker) RecordEvent(e logic.Event) {
	t.mu.Lock()
	t.snap.Recent = append(t.snap.Recent, e)
	if n := len(t.snap.Recent) - t.maxRecent; n > 0 {
		t.snap.Recent = append([]logic.Event(nil), t.snap.Recent[n:]...)
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recent = append([]logic.Event(nil), t.snap.Recent...)
	if t.snap.Variables != nil {
		s.Variables = make(map[string]int, len(t.snap.Variables))
		for k, v := range t.snap.Variables {
			s.Variables[k] = v
		}
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
