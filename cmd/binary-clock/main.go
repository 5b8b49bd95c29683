// Command binary-clock drives the LED binary clock and publishes its events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/binary-clock/internal/config"
	"github.com/sweeney/binary-clock/internal/display"
	"github.com/sweeney/binary-clock/internal/gpio"
	"github.com/sweeney/binary-clock/internal/logger"
	"github.com/sweeney/binary-clock/internal/logic"
	"github.com/sweeney/binary-clock/internal/mqtt"
	"github.com/sweeney/binary-clock/internal/status"
	"github.com/sweeney/binary-clock/internal/tick"
	"github.com/sweeney/binary-clock/internal/web"
)

// heartbeatPoll is how often the heartbeat interval is checked.
const heartbeatPoll = time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (empty uses defaults and BINCLOCK_* env)")
	printConfig := flag.Bool("print-config", false, "Print the effective config as YAML and exit")
	printState := flag.Bool("print-state", false, "Print the button line levels and exit")
	logLevel := flag.String("log-level", "", "Override log.level (debug, info, warn, error)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: invalid config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	lg := logger.New(cfg.Log.Level)
	defer lg.Sync()

	if err := run(cfg, *printState, lg); err != nil {
		lg.Fatalw("fatal", "error", err)
	}
}

func run(cfg *config.Config, printState bool, lg *logger.Logger) error {
	pins := gpio.Pins{
		Display: cfg.GPIO.DisplayPins,
		Hours:   cfg.GPIO.HoursPin,
		Minutes: cfg.GPIO.MinutesPin,
		Wake:    cfg.GPIO.WakePin,
	}

	// Initialize buttons
	buttons, err := openButtons(cfg.GPIO, pins)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	// Print state mode
	if printState {
		lv, err := buttons.Levels()
		if err != nil {
			return fmt.Errorf("read buttons: %w", err)
		}
		fmt.Printf("HOURS: %s, MINUTES: %s, WAKE: %s\n",
			levelString(lv.Hours), levelString(lv.Minutes), levelString(lv.Wake))
		return nil
	}

	// Initialize display
	disp, err := openDisplay(cfg.GPIO, pins)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer disp.Close()

	// Initialize MQTT
	var publisher mqtt.Publisher = discardPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.Buffer, lg)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	ctrl := logic.NewController(cfg.Options())

	// Initialize status tracker (before STARTUP so snapshot is available)
	ws := resolveWSBroker(cfg.HTTP.WSBroker, cfg.MQTT.Broker, lg)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg, ws))
	tracker.Observe(ctrl.State())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		lg.Warnw("failed to publish startup event", "error", err)
	} else {
		lg.Infow("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				lg.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		lg.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan time.Time)
	go func() {
		if err := tick.Tick(ctx, cfg.Timing.Tick, ticks); err != nil && !errors.Is(err, context.Canceled) {
			lg.Errorw("tick source stopped", "error", err)
		}
	}()

	notify := make(chan logic.Event, 64)
	driver := display.New(ctrl, disp, ticks, buttons.Edges(), display.Options{
		Hold:     cfg.Timing.Hold,
		Notify:   notify,
		Observer: tracker,
		Logger:   lg,
	})
	driverDone := make(chan error, 1)
	go func() {
		driverDone <- driver.Run(ctx)
	}()

	lg.Infow("started",
		"start", cfg.Clock.Start,
		"tick", cfg.Timing.Tick,
		"hold", cfg.Timing.Hold,
		"sleep_after", cfg.Timing.SleepAfter,
		"gpio", cfg.GPIO.Backend,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.MQTT.Heartbeat)

	hb := time.NewTicker(heartbeatPoll)
	defer hb.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loopErr := runLoop(publisher, mqttStatus, tracker, cfg.MQTT.Heartbeat, time.Now, notify, hb.C, sigCh, driverDone, lg)

	// Stop the display loop; it blanks the matrix on the way out.
	cancel()
	select {
	case err := <-driverDone:
		if err != nil && loopErr == nil {
			loopErr = err
		}
	case <-time.After(time.Second):
		lg.Warnw("display loop did not stop in time")
	}
	return loopErr
}

func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, events <-chan logic.Event, hbTick <-chan time.Time, sig <-chan os.Signal, driverDone chan error, lg *logger.Logger) error {
	startTime := now()
	hb := logic.NewHeartbeat(startTime)

	for {
		select {
		case s := <-sig:
			lg.Infow("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			publishShutdown(publisher, mqttStatus, tracker, now(), signalName, lg)
			return nil

		case err := <-driverDone:
			// Put it back for run, which waits on it after the loop.
			driverDone <- err
			if err == nil {
				return nil
			}
			lg.Errorw("display loop failed", "error", err)
			publishShutdown(publisher, mqttStatus, tracker, now(), "DISPLAY_ERROR", lg)
			return fmt.Errorf("display loop: %w", err)

		case e := <-events:
			lg.Debugw("publishing event", "type", e.Type, "phase", e.Phase)
			if err := publisher.Publish(e); err != nil {
				lg.Warnw("publish error", "type", e.Type, "error", err)
				// Don't stop the clock on publish failure
			}

		case <-hbTick:
			t := now()
			if mqttStatus != nil && tracker != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			hbData := hb.Check(t, heartbeat)
			if hbData == nil {
				continue
			}
			lg.Infow("heartbeat", "uptime", hbData.Uptime)

			hbEvent := mqtt.SystemEvent{
				Timestamp: hbData.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				lg.Warnw("heartbeat publish error", "error", err)
			}
		}
	}
}

func publishShutdown(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, t time.Time, reason string, lg *logger.Logger) {
	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := publisher.PublishSystem(event); err != nil {
		lg.Warnw("failed to publish shutdown event", "error", err)
	} else {
		lg.Infow("published shutdown event", "reason", reason)
	}
}

func openButtons(cfg config.GPIOConfig, pins gpio.Pins) (gpio.Buttons, error) {
	switch cfg.Backend {
	case "periph":
		return gpio.NewPeriphButtons(pins)
	case "fake":
		return gpio.NewFakeButtons(), nil
	default:
		return gpio.NewChipButtons(cfg.Chip, pins, cfg.KernelDebounce)
	}
}

func openDisplay(cfg config.GPIOConfig, pins gpio.Pins) (gpio.Display, error) {
	switch cfg.Backend {
	case "periph":
		return gpio.NewPeriphDisplay(pins)
	case "fake":
		return gpio.NewDryRunDisplay(), nil
	default:
		return gpio.NewChipDisplay(cfg.Chip, pins)
	}
}

func statusConfig(cfg *config.Config, wsBroker string) status.Config {
	return status.Config{
		Start:            cfg.Clock.Start,
		Packing:          cfg.Clock.Packing,
		TickMs:           cfg.Timing.Tick.Milliseconds(),
		HoldUs:           cfg.Timing.Hold.Microseconds(),
		DebouncePasses:   cfg.Timing.DebouncePasses,
		DebounceInterval: cfg.Timing.DebounceInterval,
		SleepAfter:       cfg.Timing.SleepAfter,
		HeartbeatMs:      cfg.MQTT.Heartbeat.Milliseconds(),
		Backend:          cfg.GPIO.Backend,
		Broker:           cfg.MQTT.Broker,
		HTTPAddr:         cfg.HTTP.Addr,
		WSBroker:         wsBroker,
	}
}

// discardPublisher is used when no broker is configured.
type discardPublisher struct{}

func (discardPublisher) Publish(logic.Event) error            { return nil }
func (discardPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (discardPublisher) Close() error                         { return nil }

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// levelString names a button line level. The lines are active-low.
func levelString(high bool) string {
	if high {
		return "RELEASED"
	}
	return "PRESSED"
}

// resolveWSBroker converts the http.ws_broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string, lg *logger.Logger) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil {
		lg.Warnw("ws-broker: cannot parse mqtt.broker", "broker", broker, "error", err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
