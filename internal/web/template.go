package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/power-sensor/internal/logic"
	"github.com/sweeney/power-sensor/internal/status"
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
	"human": logic.FormatDuration,
	"utc": func(t time.Time) string {
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>Power Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.powered { color: green; font-weight: bold; }
.unpowered { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Power Sensor</h1>

<h2>Line</h2>
<table>
<tr><th>State</th><td id="line-state" class="{{if .Line.Unpowered}}unpowered{{else}}powered{{end}}">{{.Line.State}}</td></tr>
<tr><th>Since</th><td>{{utc .Line.LastTransition}} ({{human .InState}})</td></tr>
<tr><th>Debounce</th><td>{{.Counters.Success}} ok / {{.Counters.Failure}} failed of {{.Config.Threshold}}</td></tr>
</table>

<h2>Probe</h2>
<table>
<tr><th>Target</th><td>{{.Config.Probe}} {{.Config.Target}}</td></tr>
{{with .LastProbe}}<tr><th>Last</th><td>{{if .Reachable}}reachable ({{.Latency}}){{else}}unreachable{{if .Message}}: {{.Message}}{{end}}{{end}}</td></tr>
<tr><th>At</th><td>{{utc .At}}</td></tr>{{else}}<tr><th>Last</th><td>no probe yet</td></tr>{{end}}
<tr><th>Interval</th><td>{{.Config.Interval}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{else}}<tr><th>MQTT</th><td>disabled</td></tr>{{end}}
<tr><th>Notifications</th><td>{{if .Config.NotifyEnabled}}telegram{{else}}disabled{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Power OFF</th><td>{{.Counts.Loss}}</td></tr>
<tr><th>Power ON</th><td>{{.Counts.Restoration}}</td></tr>
<tr><th>Failed probes</th><td>{{.Failures.Probe}}</td></tr>
<tr><th>Notify failures</th><td>{{.Failures.Notify}}</td></tr>
<tr><th>Persist failures</th><td>{{.Failures.Persist}}</td></tr>
<tr><th>MQTT failures</th><td>{{.Failures.MQTT}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{utc .StartTime}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() and InState() methods but the template needs fields.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		InState time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		InState:  snap.InState(),
	}
	return indexTmpl.Execute(w, data)
}
