// Package config loads the daemon configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/binary-clock/internal/logic"
)

// EnvPrefix prefixes environment overrides, e.g. BINCLOCK_MQTT_BROKER.
const EnvPrefix = "BINCLOCK"

// Config is the complete daemon configuration.
type Config struct {
	Clock  ClockConfig  `mapstructure:"clock" yaml:"clock"`
	Timing TimingConfig `mapstructure:"timing" yaml:"timing"`
	GPIO   GPIOConfig   `mapstructure:"gpio" yaml:"gpio"`
	MQTT   MQTTConfig   `mapstructure:"mqtt" yaml:"mqtt"`
	HTTP   HTTPConfig   `mapstructure:"http" yaml:"http"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ---- CLOCK ----

type ClockConfig struct {
	Start   string `mapstructure:"start" yaml:"start"`     // power-on time, HH:MM:SS
	Packing string `mapstructure:"packing" yaml:"packing"` // xor | or
}

// ---- TIMING ----

type TimingConfig struct {
	Tick             time.Duration `mapstructure:"tick" yaml:"tick"`
	Hold             time.Duration `mapstructure:"hold" yaml:"hold"` // per multiplexing slot
	DebouncePasses   int           `mapstructure:"debounce_passes" yaml:"debounce_passes"`
	DebounceInterval time.Duration `mapstructure:"debounce_interval" yaml:"debounce_interval"` // 0 = count passes
	SleepAfter       int           `mapstructure:"sleep_after" yaml:"sleep_after"`             // ticks
}

// ---- GPIO ----

type GPIOConfig struct {
	Backend        string        `mapstructure:"backend" yaml:"backend"` // gpiocdev | periph | fake
	Chip           string        `mapstructure:"chip" yaml:"chip"`
	DisplayPins    []int         `mapstructure:"display_pins" yaml:"display_pins"` // bit i of a pattern drives DisplayPins[i]; -1 = not connected
	HoursPin       int           `mapstructure:"hours_pin" yaml:"hours_pin"`
	MinutesPin     int           `mapstructure:"minutes_pin" yaml:"minutes_pin"`
	WakePin        int           `mapstructure:"wake_pin" yaml:"wake_pin"`
	KernelDebounce time.Duration `mapstructure:"kernel_debounce" yaml:"kernel_debounce"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker    string        `mapstructure:"broker" yaml:"broker"` // empty disables publishing
	Heartbeat time.Duration `mapstructure:"heartbeat" yaml:"heartbeat"`
	Buffer    int           `mapstructure:"buffer" yaml:"buffer"` // messages held while disconnected
}

// ---- HTTP ----

type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`           // empty disables the status server
	WSBroker string `mapstructure:"ws_broker" yaml:"ws_broker"` // "=broker" derives from mqtt.broker, "off" disables
}

// ---- LOG ----

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clock.start", "03:16:00")
	v.SetDefault("clock.packing", "xor")

	v.SetDefault("timing.tick", time.Second)
	v.SetDefault("timing.hold", 500*time.Microsecond)
	v.SetDefault("timing.debounce_passes", logic.DebounceThreshold)
	v.SetDefault("timing.debounce_interval", time.Duration(0))
	v.SetDefault("timing.sleep_after", logic.SleepAfter)

	v.SetDefault("gpio.backend", "gpiocdev")
	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.display_pins", []int{-1, 17, 27, 22, 5, 6, 13, 19})
	v.SetDefault("gpio.hours_pin", 26)
	v.SetDefault("gpio.minutes_pin", 16)
	v.SetDefault("gpio.wake_pin", 20)
	v.SetDefault("gpio.kernel_debounce", time.Duration(0))

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.heartbeat", 15*time.Minute)
	v.SetDefault("mqtt.buffer", 100)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.ws_broker", "=broker")

	v.SetDefault("log.level", "info")
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies BINCLOCK_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults always decode.
		panic(err)
	}
	return cfg
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// StartTime parses Start.
func (c ClockConfig) StartTime() (int, int, int, error) {
	t, err := time.Parse("15:04:05", c.Start)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("clock.start %q: %w", c.Start, err)
	}
	return t.Hour(), t.Minute(), t.Second(), nil
}

// PackFunc returns the packing selected by Packing.
func (c ClockConfig) PackFunc() logic.PackFunc {
	if c.Packing == "or" {
		return logic.PackOR
	}
	return logic.PackXOR
}

// Options builds the controller options. Validate must have succeeded.
func (c *Config) Options() logic.Options {
	h, m, s, _ := c.Clock.StartTime()
	return logic.Options{
		Hours:             h,
		Minutes:           m,
		Seconds:           s,
		Pack:              c.Clock.PackFunc(),
		DebounceThreshold: c.Timing.DebouncePasses,
		DebounceInterval:  c.Timing.DebounceInterval,
		SleepAfter:        c.Timing.SleepAfter,
	}
}
