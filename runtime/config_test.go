package runtime

import (
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	content := `
[admission]
max_concurrent = 8
acquire_timeout = "250ms"

[window]
max_requests = 100
window = "1m"

[events]
cache_size = 512
min_level = "WARN"

[cleanup]
max_age = "2h"
interval = "5m"

[logging]
level = "DEBUG"
`
	cfg, err := ParseConfig(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Admission.MaxConcurrent != 8 {
		t.Errorf("max_concurrent = %d", cfg.Admission.MaxConcurrent)
	}
	if cfg.Admission.AcquireTimeout.Std() != 250*time.Millisecond {
		t.Errorf("acquire_timeout = %v", cfg.Admission.AcquireTimeout.Std())
	}
	if cfg.Window.MaxRequests != 100 || cfg.Window.Window.Std() != time.Minute {
		t.Errorf("window section = %+v", cfg.Window)
	}
	if cfg.Events.CacheSize != 512 || cfg.Events.MinLevel != "WARN" {
		t.Errorf("events section = %+v", cfg.Events)
	}
	if cfg.Cleanup.MaxAge.Std() != 2*time.Hour || cfg.Cleanup.Interval.Std() != 5*time.Minute {
		t.Errorf("cleanup section = %+v", cfg.Cleanup)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("logging section = %+v", cfg.Logging)
	}
}

func TestParseConfig_DefaultsApply(t *testing.T) {
	cfg, err := ParseConfig("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def := DefaultConfig()
	if cfg.Admission.MaxConcurrent != def.Admission.MaxConcurrent {
		t.Errorf("expected default max_concurrent, got %d", cfg.Admission.MaxConcurrent)
	}
	if cfg.Events.CacheSize != def.Events.CacheSize {
		t.Errorf("expected default cache_size, got %d", cfg.Events.CacheSize)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "non-positive max_concurrent",
			content: `
[admission]
max_concurrent = 0
`,
		},
		{
			name: "window without duration",
			content: `
[window]
max_requests = 10
window = "0s"
`,
		},
		{
			name: "unknown min_level",
			content: `
[events]
min_level = "LOUD"
`,
		},
		{
			name: "cleanup interval without max_age",
			content: `
[cleanup]
interval = "1m"
max_age = "0s"
`,
		},
		{
			name:    "malformed toml",
			content: `admission = `,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig(tt.content); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseConfig_BadDuration(t *testing.T) {
	content := `
[admission]
max_concurrent = 4
acquire_timeout = "soon"
`
	if _, err := ParseConfig(content); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
