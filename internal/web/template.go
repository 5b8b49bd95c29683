package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/binary-clock/internal/logic"
	"github.com/sweeney/binary-clock/internal/status"
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
	"phaseOrUnknown": func(p logic.Phase) string {
		if p == "" {
			return "UNKNOWN"
		}
		return string(p)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Binary Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.board td { text-align: center; width: 2em; border: none; }
.led { display: inline-block; width: 14px; height: 14px; border-radius: 50%; background: #ddd; }
.led.on { background: red; }
.active { color: green; font-weight: bold; }
.sleeping { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Binary Clock{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Display</h2>
<table class="board">
<tr><th>Hours</th>{{range .Hours}}<td><span id="d{{.Pos}}" class="led{{if .On}} on{{end}}" title="D{{.Pos}}"></span></td>{{end}}</tr>
<tr><th>Minutes</th>{{range .Minutes}}<td><span id="d{{.Pos}}" class="led{{if .On}} on{{end}}" title="D{{.Pos}}"></span></td>{{end}}</tr>
</table>

<h2>State</h2>
<table>
<tr><th>Time</th><td id="clock-time">{{printf "%02d:%02d:%02d" .Clock.Hours .Clock.Minutes .Clock.Seconds}}</td></tr>
<tr><th>Phase</th><td id="clock-phase" class="{{if eq .Clock.Phase "ACTIVE"}}active{{else}}sleeping{{end}}">{{phaseOrUnknown .Clock.Phase}}</td></tr>
<tr><th>Inactivity</th><td>{{.Clock.Inactivity}} / {{.Config.SleepAfter}}</td></tr>
<tr><th>Sequence</th><td>{{range $i, $p := .Patterns}}{{if $i}} {{end}}{{$p}}{{else}}idle{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Hours up</th><td>{{.Clock.Counts.HoursUp}}</td></tr>
<tr><th>Minutes up</th><td>{{.Clock.Counts.MinutesUp}}</td></tr>
<tr><th>Wakes</th><td>{{.Clock.Counts.Wakes}}</td></tr>
<tr><th>Sleeps</th><td>{{.Clock.Counts.Sleeps}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Power-on time</th><td>{{.Config.Start}} ({{.Config.Packing}})</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Hold</th><td>{{.Config.HoldUs}}us</td></tr>
<tr><th>Debounce</th><td>{{if .Config.DebounceInterval}}{{.Config.DebounceInterval}}{{else}}{{.Config.DebouncePasses}} passes{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Backend}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "home/binary-clock/events";
  var dot = document.getElementById("live-dot");
  var timeEl = document.getElementById("clock-time");
  var phaseEl = document.getElementById("clock-phase");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setBoard(t) {
    var parts = t.split(":");
    var word = (parseInt(parts[0], 10) << 6) ^ parseInt(parts[1], 10);
    for (var i = 0; i < 11; i++) {
      var el = document.getElementById("d" + i);
      if (el) {
        el.className = (word >> i) & 1 ? "led on" : "led";
      }
    }
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.clock) {
        timeEl.textContent = msg.clock.time;
        phaseEl.textContent = msg.clock.phase;
        phaseEl.className = msg.clock.phase === "ACTIVE" ? "active" : "sleeping";
        setBoard(msg.clock.time);
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

// led is one position on the board.
type led struct {
	Pos int
	On  bool
}

// board splits the lit positions into the hours row (D10..D6) and the
// minutes row (D5..D0), most significant first.
func board(seq logic.Sequence) (hours, minutes []led) {
	var on [logic.SequenceCap]bool
	for _, pos := range status.Lit(seq) {
		on[pos] = true
	}
	for pos := logic.SequenceCap - 1; pos >= 0; pos-- {
		l := led{Pos: pos, On: on[pos]}
		if pos >= 6 {
			hours = append(hours, l)
		} else {
			minutes = append(minutes, l)
		}
	}
	return hours, minutes
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	hours, minutes := board(snap.Clock.Sequence)

	var patterns []string
	for _, p := range snap.Clock.Sequence.Patterns() {
		patterns = append(patterns, fmt.Sprintf("0x%02X", p))
	}

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Hours    []led
		Minutes  []led
		Patterns []string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Hours:    hours,
		Minutes:  minutes,
		Patterns: patterns,
	}
	indexTmpl.Execute(w, data)
}
