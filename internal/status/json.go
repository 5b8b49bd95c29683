package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Time          string       `json:"time"`
	Phase         string       `json:"phase"`
	Inactivity    int          `json:"inactivity"`
	Debounce      int          `json:"debounce"`
	Sequence      []string     `json:"sequence"`
	Lit           []int        `json:"lit"`
	Refreshes     int          `json:"refreshes"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	HoursUp   int `json:"hours_up"`
	MinutesUp int `json:"minutes_up"`
	Wakes     int `json:"wakes"`
	Sleeps    int `json:"sleeps"`
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
	Start              string `json:"start"`
	Packing            string `json:"packing"`
	TickMs             int64  `json:"tick_ms"`
	HoldUs             int64  `json:"hold_us"`
	DebouncePasses     int    `json:"debounce_passes"`
	DebounceIntervalMs int64  `json:"debounce_interval_ms,omitempty"`
	SleepAfter         int    `json:"sleep_after"`
	HeartbeatMs        int64  `json:"heartbeat_ms"`
	Backend            string `json:"backend"`
	Broker             string `json:"broker"`
	HTTPAddr           string `json:"http_addr"`
	WSBroker           string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Clock
	phase := string(c.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	seq := make([]string, 0, c.Sequence.Len())
	for _, p := range c.Sequence.Patterns() {
		seq = append(seq, fmt.Sprintf("0x%02X", p))
	}
	lit := Lit(c.Sequence)
	if lit == nil {
		lit = []int{}
	}

	inner := StatusInner{
		Time:          fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds),
		Phase:         phase,
		Inactivity:    c.Inactivity,
		Debounce:      c.Debounce,
		Sequence:      seq,
		Lit:           lit,
		Refreshes:     c.Refreshes,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			HoursUp:   c.Counts.HoursUp,
			MinutesUp: c.Counts.MinutesUp,
			Wakes:     c.Counts.Wakes,
			Sleeps:    c.Counts.Sleeps,
		},
		Config: ConfigJSON{
			Start:              snap.Config.Start,
			Packing:            snap.Config.Packing,
			TickMs:             snap.Config.TickMs,
			HoldUs:             snap.Config.HoldUs,
			DebouncePasses:     snap.Config.DebouncePasses,
			DebounceIntervalMs: snap.Config.DebounceInterval.Milliseconds(),
			SleepAfter:         snap.Config.SleepAfter,
			HeartbeatMs:        snap.Config.HeartbeatMs,
			Backend:            snap.Config.Backend,
			Broker:             snap.Config.Broker,
			HTTPAddr:           snap.Config.HTTPAddr,
			WSBroker:           snap.Config.WSBroker,
		},
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
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
