package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Scheduler.Interval <= 0 {
		t.Error("Scheduler.Interval should be positive")
	}
	if cfg.State.Backend != "memory" {
		t.Errorf("State.Backend = %q, want memory", cfg.State.Backend)
	}
	if cfg.Report.Kafka.Enabled || cfg.Report.ClickHouse.Enabled || cfg.Archive.Enabled {
		t.Error("optional sinks should be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for defaults", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
logging:
  level: debug
scheduler:
  interval: 2h
feed:
  url: https://feed.example.com/api/v1/get
graph:
  url: https://graph.example.com
state:
  backend: redis
  redis:
    addr: redis.example.com:6379
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIGGRAPH_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Scheduler.Interval != 2*time.Hour {
		t.Errorf("Scheduler.Interval = %v, want 2h", cfg.Scheduler.Interval)
	}
	if cfg.Feed.URL != "https://feed.example.com/api/v1/get" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.State.Redis.Addr != "redis.example.com:6379" {
		t.Errorf("State.Redis.Addr = %q", cfg.State.Redis.Addr)
	}
	// Untouched sections keep their defaults.
	if cfg.Taxonomy.URL == "" {
		t.Error("Taxonomy.URL default should survive partial config")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SIGGRAPH_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIGGRAPH_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("SIGGRAPH_LOG_LEVEL", "debug")
	t.Setenv("SIGGRAPH_FEED_API_KEY", "key-from-env")
	t.Setenv("SIGGRAPH_INTERVAL", "30m")
	t.Setenv("SIGGRAPH_KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Feed.APIKey != "key-from-env" {
		t.Errorf("Feed.APIKey = %q", cfg.Feed.APIKey)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("Scheduler.Interval = %v, want 30m", cfg.Scheduler.Interval)
	}
	if len(cfg.Report.Kafka.Brokers) != 2 || cfg.Report.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Report.Kafka.Brokers)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Feed.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for empty feed url")
	}

	cfg = DefaultConfig()
	cfg.State.Backend = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for unknown state backend")
	}

	cfg = DefaultConfig()
	cfg.Report.Kafka.Enabled = true
	cfg.Report.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for enabled kafka without brokers")
	}
}
