// Package status provides a thread-safe status tracker for the binary-clock daemon.
// It is fed by the display loop and read by HTTP handlers and the MQTT publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/binary-clock/internal/logic"
)

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
	Start            string
	Packing          string
	TickMs           int64
	HoldUs           int64
	DebouncePasses   int
	DebounceInterval time.Duration
	SleepAfter       int
	HeartbeatMs      int64
	Backend          string
	Broker           string
	HTTPAddr         string
	WSBroker         string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Clock         logic.State
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
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Observe records the latest clock state. Called by the display loop after
// every tick and edge.
func (t *Tracker) Observe(st logic.State) {
	t.mu.Lock()
	t.snap.Clock = st
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
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

// Lit returns the display positions (D0..D10) shown by a sequence, in
// emission order.
func Lit(seq logic.Sequence) []int {
	var out []int
	for _, p := range seq.Patterns() {
		for i, pair := range logic.Table {
			if pair.Pattern == p {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
