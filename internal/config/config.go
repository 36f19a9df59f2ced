// Package config assembles the run configuration from defaults, an optional
// YAML file, environment variables, and command-line flags, in that order of
// increasing precedence. The resulting Config is passed explicitly to each
// component; nothing in this repository reads configuration from globals.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvAPIKey is the environment variable holding the Soniox API key.
const EnvAPIKey = "SONIOX_API_KEY"

// DefaultContext is used when --context is not given.
const DefaultContext = "This is a casual conversation between people speaking " +
	"different languages. Pay attention to conversational nuances, cultural " +
	"references, and emotional tone."

// Duration is a time.Duration that decodes from a YAML string ("5s") or an
// integer count of nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		dur, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(dur)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Config holds everything a run needs.
type Config struct {
	// Credentials. Never read from YAML; env only.
	APIKey string `yaml:"-"`

	// Streaming service.
	Model       string   `yaml:"model"`
	MaxRetries  int      `yaml:"max_retries"`
	BackoffBase Duration `yaml:"backoff_base"`
	BackoffCap  Duration `yaml:"backoff_cap"`

	// Audio capture.
	SampleRate    int      `yaml:"sample_rate"`
	Channels      int      `yaml:"channels"`
	FrameDuration Duration `yaml:"frame_duration"`
	QueueSize     int      `yaml:"queue_size"`

	// Session persistence.
	OutputDir     string   `yaml:"output_dir"`
	FlushInterval Duration `yaml:"flush_interval"`

	// Logging.
	LogLevel string `yaml:"log_level"`

	// Per-run options, set from flags.
	Session         string   `yaml:"-"`
	Context         string   `yaml:"-"`
	DeviceIndex     int      `yaml:"-"` // -1 means platform default input
	SourceLanguages []string `yaml:"-"`
	TargetLanguage  string   `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:          "stt-rt-v3",
		MaxRetries:     5,
		BackoffBase:    Duration(time.Second),
		BackoffCap:     Duration(16 * time.Second),
		SampleRate:     16000,
		Channels:       1,
		FrameDuration:  Duration(200 * time.Millisecond),
		QueueSize:      32,
		OutputDir:      "output",
		FlushInterval:  Duration(5 * time.Second),
		LogLevel:       "info",
		Context:        DefaultContext,
		DeviceIndex:    -1,
		TargetLanguage: "en",
	}
}

// Load returns the default config overlaid with the YAML file at path, when
// path is non-empty. A missing file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv populates credentials from the environment, reading a .env file
// first when one exists. Whether a key is required depends on the command,
// so an empty key is not an error here.
func (c *Config) LoadEnv() {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()

	c.APIKey = os.Getenv(EnvAPIKey)
}

// Validate checks invariants that would otherwise surface as confusing
// failures deep inside the pipeline.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 {
		return fmt.Errorf("only mono capture is supported, got %d channels", c.Channels)
	}
	if c.FrameDuration <= 0 {
		return fmt.Errorf("frame_duration must be positive, got %s", c.FrameDuration)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval)
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("backoff_base must be positive, got %s", c.BackoffBase)
	}
	return nil
}

// FrameBytes returns the size in bytes of one capture frame
// (s16le samples, so two bytes per sample per channel).
func (c Config) FrameBytes() int {
	samples := int(c.FrameDuration.Std() * time.Duration(c.SampleRate) / time.Second)
	return samples * c.Channels * 2
}
