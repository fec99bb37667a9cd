package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/garage-controller/internal/logic"
	"github.com/sweeney/garage-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"doorClass": func(s logic.DoorState) string {
		switch s {
		case logic.DoorOpen:
			return "open"
		case logic.DoorClosed:
			return "closed"
		}
		return "unknown"
	},
	"rfc3339": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Garage Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.open { color: #007dff; font-weight: bold; }
.closed { color: #ff7d00; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.swatch { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 6px; vertical-align: middle; }
button { font-family: monospace; margin-right: 8px; }
</style>
</head>
<body>
<h1>Garage Controller</h1>

<h2>State</h2>
<table>
<tr><th>Door</th><td id="door-state" class="{{doorClass .Door}}">{{if ne .Door -1}}<span class="swatch" style="background: {{.Indicator.String}}"></span>{{end}}{{.Door}}</td></tr>
<tr><th>Relay</th><td id="relay-state">{{.Relay}}</td></tr>
<tr><th>LED</th><td id="led-state">{{.Effect}} (level {{.LEDLevel}})</td></tr>
</table>

<p>
<button onclick="call('go','relay')">Activate</button>
<button onclick="call('go','relay-delay')">Activate delayed</button>
<span id="call-result"></span>
</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic prefix</th><td>{{.Config.TopicPrefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Remote</th><td>{{.Counts.RemoteActuation}}</td></tr>
<tr><th>Remote delayed</th><td>{{.Counts.RemoteActuationDelay}}</td></tr>
<tr><th>Local</th><td>{{.Counts.LocalActuation}}</td></tr>
<tr><th>Local delayed</th><td>{{.Counts.LocalActuationDelay}}</td></tr>
<tr><th>Delay canceled</th><td>{{.Counts.DelayCanceled}}</td></tr>
<tr><th>Door opened</th><td>{{.Counts.DoorOpen}}</td></tr>
<tr><th>Door closed</th><td>{{.Counts.DoorClosed}}</td></tr>
</table>

{{if .Recent}}<h2>Recent Events</h2>
<table>
{{range .Recent}}<tr><th>{{rfc3339 .Timestamp}}</th><td>{{.Name}} {{.Payload}}</td></tr>
{{end}}</table>{{end}}

<h2>System</h2>
<table>
<tr><th>Version</th><td>{{.Version}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{rfc3339 .StartTime}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.GPIO}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/api/variables">variables</a></p>
<script>
function call(fn, cmd) {
  fetch("/api/" + fn + "/" + encodeURIComponent(cmd), { method: "POST" })
    .then(function(r) { return r.json(); })
    .then(function(body) {
      document.getElementById("call-result").textContent =
        body.error ? body.error : fn + "(" + cmd + ") = " + body.result;
    });
}

setInterval(function() {
  fetch("/index.json")
    .then(function(r) { return r.json(); })
    .then(function(body) {
      var s = body.status;
      var door = document.getElementById("door-state");
      door.textContent = s.door.state;
      door.className = s.door.state.toLowerCase();
      document.getElementById("relay-state").textContent = s.relay.state;
      document.getElementById("led-state").textContent = s.led.effect + " (level " + s.led.level + ")";
    })
    .catch(function() {});
}, 1000);
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Version int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Version:  logic.Version,
	}
	return indexTmpl.Execute(w, data)
}
