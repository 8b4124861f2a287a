package runtime

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wardenkit/warden/events"
	"github.com/wardenkit/warden/limits"
)

// Duration wraps time.Duration so TOML values like "30s" decode directly.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config configures a Runtime.
type Config struct {
	Admission AdmissionSection `toml:"admission"`
	Window    WindowSection    `toml:"window"`
	Events    EventsSection    `toml:"events"`
	Cleanup   CleanupSection   `toml:"cleanup"`
	Logging   LoggingSection   `toml:"logging"`
}

// AdmissionSection bounds concurrent work.
type AdmissionSection struct {
	MaxConcurrent  int      `toml:"max_concurrent"`
	AcquireTimeout Duration `toml:"acquire_timeout"`
}

// WindowSection bounds per-caller request rates. A zero MaxRequests
// disables the window limiter entirely.
type WindowSection struct {
	MaxRequests int      `toml:"max_requests"`
	Window      Duration `toml:"window"`
}

// EventsSection configures the event broker.
type EventsSection struct {
	CacheSize     int    `toml:"cache_size"`
	QueueCapacity int    `toml:"queue_capacity"`
	MinLevel      string `toml:"min_level"`
}

// CleanupSection configures periodic removal of old task records.
// A zero Interval disables the sweep.
type CleanupSection struct {
	MaxAge   Duration `toml:"max_age"`
	Interval Duration `toml:"interval"`
}

// LoggingSection configures the component logger.
type LoggingSection struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Admission: AdmissionSection{
			MaxConcurrent:  16,
			AcquireTimeout: Duration(5 * time.Second),
		},
		Window: WindowSection{
			MaxRequests: 0,
			Window:      Duration(time.Minute),
		},
		Events: EventsSection{
			CacheSize: 256,
			MinLevel:  "DEBUG",
		},
		Cleanup: CleanupSection{
			MaxAge:   Duration(time.Hour),
			Interval: 0,
		},
		Logging: LoggingSection{
			Level: "INFO",
		},
	}
}

// LoadConfig loads a configuration from a TOML file, applying defaults
// for unset sections.
func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(string(content))
}

// ParseConfig parses TOML content, applying defaults for unset sections.
func ParseConfig(content string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Admission.MaxConcurrent <= 0 {
		return fmt.Errorf("admission.max_concurrent must be positive")
	}
	if c.Window.MaxRequests > 0 && c.Window.Window <= 0 {
		return fmt.Errorf("window.window must be positive when max_requests is set")
	}
	if c.Events.CacheSize < 0 {
		return fmt.Errorf("events.cache_size cannot be negative")
	}
	if c.Events.MinLevel != "" {
		if _, ok := events.ParseLevel(c.Events.MinLevel); !ok {
			return fmt.Errorf("events.min_level: unknown level %q", c.Events.MinLevel)
		}
	}
	if c.Cleanup.Interval > 0 && c.Cleanup.MaxAge <= 0 {
		return fmt.Errorf("cleanup.max_age must be positive when interval is set")
	}
	return nil
}

// admissionConfig converts the section into the limiter's config type.
func (c *Config) admissionConfig() limits.AdmissionConfig {
	return limits.AdmissionConfig{
		MaxConcurrent:  c.Admission.MaxConcurrent,
		AcquireTimeout: c.Admission.AcquireTimeout.Std(),
	}
}

// windowConfig converts the section into the limiter's config type.
func (c *Config) windowConfig() limits.WindowConfig {
	return limits.WindowConfig{
		MaxRequests: c.Window.MaxRequests,
		Window:      c.Window.Window.Std(),
	}
}

// eventsConfig converts the section into the broker's config type.
func (c *Config) eventsConfig() events.Config {
	return events.Config{
		CacheSize:            c.Events.CacheSize,
		DefaultQueueCapacity: c.Events.QueueCapacity,
	}
}
