package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/garage-controller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Version       int            `json:"version"`
	Relay         StateJSON      `json:"relay"`
	Door          StateJSON      `json:"door"`
	LED           LEDJSON        `json:"led"`
	Indicator     string         `json:"indicator,omitempty"`
	Variables     map[string]int `json:"variables,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"event_counts"`
	Recent        []EventJSON    `json:"recent_events,omitempty"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// StateJSON is a named state with its numeric tag.
type StateJSON struct {
	State string `json:"state"`
	Tag   int    `json:"tag"`
}

// LEDJSON reports the status LED.
type LEDJSON struct {
	Effect string `json:"effect"`
	Cycle  int    `json:"cycle"`
	Level  uint8  `json:"level"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	RemoteActuation      int `json:"remote_actuation"`
	RemoteActuationDelay int `json:"remote_actuation_delay"`
	LocalActuation       int `json:"local_actuation"`
	LocalActuationDelay  int `json:"local_actuation_delay"`
	DelayCanceled        int `json:"delay_canceled"`
	DoorOpen             int `json:"door_open"`
	DoorClosed           int `json:"door_closed"`
}

// EventJSON is one audit event.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Payload   string `json:"payload"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	TopicPrefix string `json:"topic_prefix"`
	HTTPAddr    string `json:"http_addr"`
	GPIO        string `json:"gpio"`
}

// FormatEvent converts an audit event to its JSON form.
func FormatEvent(e logic.Event) EventJSON {
	return EventJSON{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Name:      e.Name,
		Payload:   e.Payload,
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Version:       logic.Version,
		Relay:         StateJSON{State: snap.Relay.String(), Tag: int(snap.Relay)},
		Door:          StateJSON{State: snap.Door.String(), Tag: int(snap.Door)},
		LED:           LEDJSON{Effect: snap.Effect.String(), Cycle: snap.LEDCycle, Level: snap.LEDLevel},
		Variables:     snap.Variables,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			RemoteActuation:      snap.Counts.RemoteActuation,
			RemoteActuationDelay: snap.Counts.RemoteActuationDelay,
			LocalActuation:       snap.Counts.LocalActuation,
			LocalActuationDelay:  snap.Counts.LocalActuationDelay,
			DelayCanceled:        snap.Counts.DelayCanceled,
			DoorOpen:             snap.Counts.DoorOpen,
			DoorClosed:           snap.Counts.DoorClosed,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			TopicPrefix: snap.Config.TopicPrefix,
			HTTPAddr:    snap.Config.HTTPAddr,
			GPIO:        snap.Config.GPIO,
		},
	}
	if snap.Door != logic.DoorUnknown {
		inner.Indicator = snap.Indicator.String()
	}
	for _, e := range snap.Recent {
		inner.Recent = append(inner.Recent, FormatEvent(e))
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Recent events are left out to keep the message small.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	inner.Recent = nil

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
