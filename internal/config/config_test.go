package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Model != "stt-rt-v3" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d", cfg.SampleRate)
	}
	if cfg.DeviceIndex != -1 {
		t.Errorf("DeviceIndex = %d, want -1 (default input)", cfg.DeviceIndex)
	}
	if cfg.Context != DefaultContext {
		t.Errorf("Context = %q, want the built-in recognition hint", cfg.Context)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsNonPositiveIntervals(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero flush_interval", func(c *Config) { c.FlushInterval = 0 }},
		{"negative flush_interval", func(c *Config) { c.FlushInterval = Duration(-time.Second) }},
		{"zero backoff_base", func(c *Config) { c.BackoffBase = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsZeroFlushInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mild.yaml")
	if err := os.WriteFile(path, []byte("flush_interval: 0s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for flush_interval 0s")
	}
}

func TestFrameBytes(t *testing.T) {
	cfg := Default()
	// 200ms at 16kHz mono s16le = 3200 samples = 6400 bytes.
	if got := cfg.FrameBytes(); got != 6400 {
		t.Errorf("FrameBytes = %d, want 6400", got)
	}

	cfg.FrameDuration = Duration(20 * time.Millisecond)
	if got := cfg.FrameBytes(); got != 640 {
		t.Errorf("FrameBytes = %d, want 640", got)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QueueSize != Default().QueueSize {
		t.Errorf("QueueSize = %d", cfg.QueueSize)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mild.yaml")
	data := "max_retries: 9\nflush_interval: 2s\noutput_dir: recordings\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRetries != 9 {
		t.Errorf("MaxRetries = %d, want 9", cfg.MaxRetries)
	}
	if cfg.FlushInterval.Std() != 2*time.Second {
		t.Errorf("FlushInterval = %s", cfg.FlushInterval)
	}
	if cfg.OutputDir != "recordings" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	// Untouched keys keep defaults.
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want default 16000", cfg.SampleRate)
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sample_rate: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for sample_rate 0")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "test-key-123")
	cfg := Default()
	cfg.LoadEnv()
	if cfg.APIKey != "test-key-123" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}

	t.Setenv(EnvAPIKey, "")
	cfg.LoadEnv()
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}
