package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

// DefaultPath is used when no config file is given on the command line.
const DefaultPath = "/etc/readremind/config.toml"

// Nag clock modes.
const (
	NagClockEveryCheck = "every_check"
	NagClockHold       = "hold"
)

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Duration is a time.Duration written as a Go duration string ("90m", "24h").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type Thresholds struct {
	NoRead         Duration `toml:"no_read"`
	Read           Duration `toml:"read"`
	MinNagInterval Duration `toml:"min_nag_interval"`
	NagClock       string   `toml:"nag_clock"`
}

type SensorConfig struct {
	DistancePath string   `toml:"distance_path"`
	Scale        float64  `toml:"scale"`
	Settle       Duration `toml:"settle"`
}

type IndicatorConfig struct {
	PresenceLED string `toml:"presence_led"`
	RunningLED  string `toml:"running_led"`
}

type NotifyConfig struct {
	Timeout     Duration `toml:"timeout"`
	PushoverURL string   `toml:"pushover_url"`
	Desktop     bool     `toml:"desktop"`

	// Secrets never come from the TOML file.
	AppToken  string `toml:"-"`
	UserToken string `toml:"-"`
}

type StoreConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
	RedisKey  string `toml:"redis_key"`
}

type DBusConfig struct {
	// Bus selects where the status service is exported. Empty disables it.
	Bus string `toml:"bus"`
	// WatchSleep pauses sampling across system suspend via logind.
	WatchSleep bool `toml:"watch_sleep"`
}

type HTTPConfig struct {
	Listen string `toml:"listen"`
}

type Config struct {
	StatePath       string   `toml:"state_path"`
	PollInterval    Duration `toml:"poll_interval"`
	ProximityCM     float64  `toml:"proximity_cm"`
	DebounceSamples int      `toml:"debounce_samples"`

	Thresholds Thresholds      `toml:"thresholds"`
	Sensor     SensorConfig    `toml:"sensor"`
	Indicator  IndicatorConfig `toml:"indicator"`
	Notify     NotifyConfig    `toml:"notify"`
	Store      StoreConfig     `toml:"store"`
	DBus       DBusConfig      `toml:"dbus"`
	HTTP       HTTPConfig      `toml:"http"`
}

// SetDefault fills every unset field.
func (c *Config) SetDefault() {
	if c.StatePath == "" {
		c.StatePath = "bookstate.json"
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(time.Second)
	}
	if c.ProximityCM == 0 {
		c.ProximityCM = 20
	}
	if c.DebounceSamples == 0 {
		c.DebounceSamples = 1
	}

	policy := presence.DefaultPolicy()
	if c.Thresholds.NoRead == 0 {
		c.Thresholds.NoRead = Duration(policy.NoReadThreshold)
	}
	if c.Thresholds.Read == 0 {
		c.Thresholds.Read = Duration(policy.ReadThreshold)
	}
	if c.Thresholds.MinNagInterval == 0 {
		c.Thresholds.MinNagInterval = Duration(policy.MinNagInterval)
	}
	if c.Thresholds.NagClock == "" {
		c.Thresholds.NagClock = NagClockEveryCheck
	}

	if c.Sensor.DistancePath == "" {
		c.Sensor.DistancePath = "/sys/bus/iio/devices/iio:device0/in_distance_raw"
	}
	if c.Sensor.Scale == 0 {
		c.Sensor.Scale = 0.1
	}
	if c.Sensor.Settle == 0 {
		c.Sensor.Settle = Duration(2 * time.Second)
	}

	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = Duration(10 * time.Second)
	}
	if c.Notify.PushoverURL == "" {
		c.Notify.PushoverURL = "https://api.pushover.net/1/messages.json"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.Store.RedisKey == "" {
		c.Store.RedisKey = "readremind:state"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive"))
	}
	if c.ProximityCM <= 0 {
		errs = append(errs, fmt.Errorf("proximity_cm must be positive"))
	}
	if c.DebounceSamples < 1 {
		errs = append(errs, fmt.Errorf("debounce_samples must be at least 1"))
	}
	if c.Thresholds.NoRead <= 0 || c.Thresholds.Read <= 0 || c.Thresholds.MinNagInterval <= 0 {
		errs = append(errs, fmt.Errorf("thresholds must be positive"))
	}
	switch c.Thresholds.NagClock {
	case NagClockEveryCheck, NagClockHold:
	default:
		errs = append(errs, fmt.Errorf("unknown nag_clock %q", c.Thresholds.NagClock))
	}
	if c.Sensor.Scale <= 0 {
		errs = append(errs, fmt.Errorf("sensor scale must be positive"))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("notify timeout must be positive"))
	}
	switch c.Store.Backend {
	case BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	switch c.DBus.Bus {
	case "", "session", "system":
	default:
		errs = append(errs, fmt.Errorf("unknown dbus bus %q", c.DBus.Bus))
	}
	return errors.Join(errs...)
}

// Policy converts the thresholds for the presence machine.
func (c *Config) Policy() presence.Policy {
	return presence.Policy{
		NoReadThreshold: time.Duration(c.Thresholds.NoRead),
		ReadThreshold:   time.Duration(c.Thresholds.Read),
		MinNagInterval:  time.Duration(c.Thresholds.MinNagInterval),
		HoldNagClock:    c.Thresholds.NagClock == NagClockHold,
	}
}

// LoadConfigFromFile reads path. A missing file yields the defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LoadConfigFromBytes(nil)
		}
		return nil, err
	}
	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes decodes TOML, applies defaults, secrets from the
// environment, and validates.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.SetDefault()
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
