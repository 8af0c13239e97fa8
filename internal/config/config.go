// Package config handles configuration loading for SigGraph.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"siggraph/internal/archive"
	"siggraph/internal/feed"
	"siggraph/internal/graph"
	"siggraph/internal/importer"
	"siggraph/internal/report"
	"siggraph/internal/state"
	"siggraph/internal/taxonomy"
)

// Config holds the complete application configuration.
type Config struct {
	Logging   LoggingConfig          `yaml:"logging"`
	Scheduler SchedulerConfig        `yaml:"scheduler"`
	Feed      feed.Config            `yaml:"feed"`
	Taxonomy  taxonomy.FetcherConfig `yaml:"taxonomy"`
	Graph     graph.Config           `yaml:"graph"`
	Importer  importer.Config        `yaml:"importer"`
	State     StateConfig            `yaml:"state"`
	Report    ReportConfig           `yaml:"report"`
	Archive   archive.Config         `yaml:"archive"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig holds the run scheduling settings.
type SchedulerConfig struct {
	// Interval is the minimum time between two runs.
	Interval time.Duration `yaml:"interval"`

	// PollInterval is how often the scheduler re-checks whether a run
	// is due.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StateConfig holds the checkpoint store settings.
type StateConfig struct {
	// Backend selects the store implementation: "memory" or "redis".
	Backend string `yaml:"backend"`
	Redis   state.RedisConfig `yaml:"redis"`
}

// ReportConfig holds the post-run reporting settings.
type ReportConfig struct {
	Kafka      report.KafkaConfig      `yaml:"kafka"`
	ClickHouse report.ClickHouseConfig `yaml:"clickhouse"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scheduler: SchedulerConfig{
			Interval:     6 * time.Hour,
			PollInterval: time.Minute,
		},
		Feed:     feed.DefaultConfig(),
		Taxonomy: taxonomy.DefaultFetcherConfig(),
		Graph:    graph.DefaultConfig(),
		Importer: importer.DefaultConfig(),
		State: StateConfig{
			Backend: "memory",
			Redis:   state.DefaultRedisConfig(),
		},
		Report: ReportConfig{
			Kafka:      report.DefaultKafkaConfig(),
			ClickHouse: report.DefaultClickHouseConfig(),
		},
		Archive: archive.DefaultConfig(),
	}
}

// Load loads configuration from a file or returns defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := os.Getenv("SIGGRAPH_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("SIGGRAPH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if url := os.Getenv("SIGGRAPH_FEED_URL"); url != "" {
		c.Feed.URL = url
	}
	if key := os.Getenv("SIGGRAPH_FEED_API_KEY"); key != "" {
		c.Feed.APIKey = key
	}

	if url := os.Getenv("SIGGRAPH_TAXONOMY_URL"); url != "" {
		c.Taxonomy.URL = url
	}

	if url := os.Getenv("SIGGRAPH_GRAPH_URL"); url != "" {
		c.Graph.URL = url
	}
	if token := os.Getenv("SIGGRAPH_GRAPH_TOKEN"); token != "" {
		c.Graph.Token = token
	}

	if interval := os.Getenv("SIGGRAPH_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			c.Scheduler.Interval = d
		}
	}

	if backend := os.Getenv("SIGGRAPH_STATE_BACKEND"); backend != "" {
		c.State.Backend = backend
	}
	if addr := os.Getenv("SIGGRAPH_REDIS_ADDR"); addr != "" {
		c.State.Redis.Addr = addr
	}
	if pass := os.Getenv("SIGGRAPH_REDIS_PASSWORD"); pass != "" {
		c.State.Redis.Password = pass
	}

	if enabled := os.Getenv("SIGGRAPH_KAFKA_ENABLED"); enabled == "true" {
		c.Report.Kafka.Enabled = true
	}
	if brokers := os.Getenv("SIGGRAPH_KAFKA_BROKERS"); brokers != "" {
		c.Report.Kafka.Brokers = splitAndTrim(brokers, ",")
	}

	if enabled := os.Getenv("SIGGRAPH_CLICKHOUSE_ENABLED"); enabled == "true" {
		c.Report.ClickHouse.Enabled = true
	}
	if host := os.Getenv("CLICKHOUSE_HOST"); host != "" {
		c.Report.ClickHouse.Hosts = []string{host}
	}
	if pass := os.Getenv("CLICKHOUSE_PASSWORD"); pass != "" {
		c.Report.ClickHouse.Password = pass
	}

	if enabled := os.Getenv("SIGGRAPH_ARCHIVE_ENABLED"); enabled == "true" {
		c.Archive.Enabled = true
	}
	if bucket := os.Getenv("SIGGRAPH_ARCHIVE_BUCKET"); bucket != "" {
		c.Archive.Bucket = bucket
	}
}

// splitAndTrim splits a string by separator and trims whitespace from
// each part.
func splitAndTrim(s, sep string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	if c.Taxonomy.URL == "" {
		return fmt.Errorf("taxonomy url is required")
	}
	if c.Graph.URL == "" {
		return fmt.Errorf("graph url is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	if c.State.Backend != "memory" && c.State.Backend != "redis" {
		return fmt.Errorf("unknown state backend: %q", c.State.Backend)
	}
	if c.Report.Kafka.Enabled {
		if err := c.Report.Kafka.Validate(); err != nil {
			return err
		}
	}
	if c.Archive.Enabled {
		if err := c.Archive.Validate(); err != nil {
			return err
		}
	}
	return nil
}
