// Package mqtt provides MQTT publishing and remote function calls with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/garage-controller/internal/logic"
)

// DefaultPrefix is the root of every topic.
const DefaultPrefix = "garage"

// Topics builds the topic names under a prefix.
//
//	<prefix>/events              JSON envelope of every audit event
//	<prefix>/events/<NAME>       raw payload, e.g. garage/events/GARAGE-DOOR -> OPEN
//	<prefix>/system              STARTUP, SHUTDOWN, HEARTBEAT, OFFLINE (will)
//	<prefix>/variables/<name>    retained integer variables
//	<prefix>/functions/<fn>      incoming calls, payload is the command
//	<prefix>/functions/<fn>/result
type Topics struct {
	prefix string
}

// NewTopics creates Topics for prefix. An empty prefix means DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string { return t.prefix }

// Events returns the topic carrying the JSON envelope of every audit event.
func (t Topics) Events() string { return t.prefix + "/events" }

// Event returns the raw-payload topic for an event name.
func (t Topics) Event(name string) string { return t.prefix + "/events/" + name }

// System returns the system lifecycle topic.
func (t Topics) System() string { return t.prefix + "/system" }

// Variable returns the retained topic for a variable.
func (t Topics) Variable(name string) string { return t.prefix + "/variables/" + name }

// Functions returns the subscription filter for incoming calls.
func (t Topics) Functions() string { return t.prefix + "/functions/+" }

// FunctionResult returns the topic results of fn are published on.
func (t Topics) FunctionResult(fn string) string { return t.prefix + "/functions/" + fn + "/result" }

// ParseFunction extracts the function name from an incoming call topic.
func (t Topics) ParseFunction(topic string) (string, bool) {
	fn, ok := strings.CutPrefix(topic, t.prefix+"/functions/")
	if !ok || fn == "" || strings.Contains(fn, "/") {
		return "", false
	}
	return fn, true
}

// Publisher publishes controller output to MQTT.
type Publisher interface {
	// Publish sends an audit event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishVariable sends the retained value of a variable.
	PublishVariable(name string, value int) error

	// PublishResult sends the result of a remote function call.
	PublishResult(result CallResult) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CallHandler receives remote function calls. It is called from the MQTT
// client's goroutine and must not block.
type CallHandler func(function, command string)

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// CallResult is the outcome of a remote function call.
type CallResult struct {
	Function string `json:"function"`
	Command  string `json:"command"`
	Result   int    `json:"result"`
	Error    string `json:"error,omitempty"`
}

// Payload represents the MQTT message payload structure for audit events.
type Payload struct {
	Garage EventPayload `json:"garage"`
}

// EventPayload contains the audit event details.
type EventPayload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Payload   string `json:"payload"`
}

// FormatPayload creates the JSON envelope for an audit event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Garage: EventPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Name:      event.Name,
			Payload:   event.Payload,
		},
	}
	return json.Marshal(payload)
}

// FormatResult creates the JSON payload for a call result.
func FormatResult(result CallResult) ([]byte, error) {
	return json.Marshal(result)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
