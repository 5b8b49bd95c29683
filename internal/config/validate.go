package config

import (
	"fmt"

	"github.com/sweeney/binary-clock/internal/logger"
)

// DisplayLines is the width of a drive pattern.
const DisplayLines = 8

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if _, _, _, err := cfg.Clock.StartTime(); err != nil {
		return err
	}
	switch cfg.Clock.Packing {
	case "xor", "or":
	default:
		return fmt.Errorf("clock.packing must be xor or or, got %q", cfg.Clock.Packing)
	}

	t := cfg.Timing
	if t.Tick <= 0 {
		return fmt.Errorf("timing.tick must be positive, got %v", t.Tick)
	}
	if t.Hold < 0 {
		return fmt.Errorf("timing.hold must not be negative, got %v", t.Hold)
	}
	if t.DebouncePasses <= 0 {
		return fmt.Errorf("timing.debounce_passes must be positive, got %d", t.DebouncePasses)
	}
	if t.DebounceInterval < 0 {
		return fmt.Errorf("timing.debounce_interval must not be negative, got %v", t.DebounceInterval)
	}
	if t.SleepAfter <= 0 {
		return fmt.Errorf("timing.sleep_after must be positive, got %d", t.SleepAfter)
	}

	if err := validateGPIO(cfg.GPIO); err != nil {
		return err
	}

	if cfg.MQTT.Broker != "" && cfg.MQTT.Buffer <= 0 {
		return fmt.Errorf("mqtt.buffer must be positive, got %d", cfg.MQTT.Buffer)
	}
	if cfg.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt.heartbeat must not be negative, got %v", cfg.MQTT.Heartbeat)
	}

	if !logger.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

func validateGPIO(g GPIOConfig) error {
	switch g.Backend {
	case "gpiocdev", "periph", "fake":
	default:
		return fmt.Errorf("gpio.backend must be gpiocdev, periph or fake, got %q", g.Backend)
	}

	if len(g.DisplayPins) != DisplayLines {
		return fmt.Errorf("gpio.display_pins must list %d pins, got %d", DisplayLines, len(g.DisplayPins))
	}

	// key = pin, value = role
	owner := make(map[int]string)
	claim := func(pin int, role string) error {
		if prev, ok := owner[pin]; ok {
			return fmt.Errorf("gpio pin %d used by both %s and %s", pin, prev, role)
		}
		owner[pin] = role
		return nil
	}

	for _, b := range []struct {
		role string
		pin  int
	}{
		{"hours_pin", g.HoursPin},
		{"minutes_pin", g.MinutesPin},
		{"wake_pin", g.WakePin},
	} {
		if b.pin < 0 {
			return fmt.Errorf("gpio.%s must not be negative, got %d", b.role, b.pin)
		}
		if err := claim(b.pin, b.role); err != nil {
			return err
		}
	}

	for i, pin := range g.DisplayPins {
		if pin < 0 {
			continue
		}
		if err := claim(pin, fmt.Sprintf("display_pins[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}
