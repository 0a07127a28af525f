package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"stock-dashboard/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig reads the YAML file, loads .env when present, applies environment
// overrides and defaults, then validates.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides file values with environment variables. lookup is
// os.LookupEnv outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"PORT", &c.HTTPPort},
		{"WS_PORT", &c.WSPort},
		{"GRPC_PORT", &c.GrpcPort},
		{"QUOTE_TTL_SECONDS", &c.Cache.QuoteTTLSeconds},
		{"HISTORY_TTL_SECONDS", &c.Cache.HistoryTTLSeconds},
		{"REFRESH_INTERVAL_SECONDS", &c.DataSource.RefreshIntervalSeconds},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", e.name, v, err)
		}
		*e.dst = n
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("DB_TYPE"); ok && v != "" {
		c.Storage.DBType = v
	}
	if v, ok := lookup("DB_CONNECTION_STRING"); ok && v != "" {
		c.Storage.DBConnectionString = v
	}

	// per-source keys: source "yahoo" reads YAHOO_API_KEY
	for i := range c.DataSource.Sources {
		src := &c.DataSource.Sources[i]
		name := strings.ToUpper(strings.ReplaceAll(src.Name, "-", "_")) + "_API_KEY"
		if v, ok := lookup(name); ok && v != "" {
			src.APIKey = v
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills the values a minimal config file may leave out.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "stock-dashboard"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 3001
	}
	if c.WSPort == 0 {
		c.WSPort = 3002
	}
	if c.GrpcPort == 0 {
		c.GrpcPort = 50051
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}

	if c.Cache.QuoteTTLSeconds == 0 {
		c.Cache.QuoteTTLSeconds = 60
	}
	if c.Cache.HistoryTTLSeconds == 0 {
		c.Cache.HistoryTTLSeconds = 300
	}

	if c.Storage.DBType == "" {
		c.Storage.DBType = "none"
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = "data/archive.db"
	}

	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 10
	}
	if c.Network.ConcurrentRequests == 0 {
		c.Network.ConcurrentRequests = 4
	}

	if c.DataSource.RefreshIntervalSeconds == 0 {
		c.DataSource.RefreshIntervalSeconds = 30
	}
	if c.DataSource.UpstreamTimeoutSeconds == 0 {
		c.DataSource.UpstreamTimeoutSeconds = 5
	}
	if len(c.DataSource.Sources) == 0 {
		c.DataSource.Sources = []models.MSourceConfig{{Name: "yahoo", Type: "yahoo"}}
	}
	for i := range c.DataSource.Sources {
		if c.DataSource.Sources[i].Type == "" {
			c.DataSource.Sources[i].Type = "yahoo"
		}
	}

	if c.Analysis.SMAShort == 0 {
		c.Analysis.SMAShort = 20
	}
	if c.Analysis.SMALong == 0 {
		c.Analysis.SMALong = 50
	}
	if c.Analysis.RSIPeriod == 0 {
		c.Analysis.RSIPeriod = 14
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	for name, port := range map[string]int{"http_port": c.HTTPPort, "ws_port": c.WSPort, "grpc_port": c.GrpcPort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %d (must be between 1 and 65535)", name, port)
		}
	}
	if c.HTTPPort == c.WSPort || c.HTTPPort == c.GrpcPort || c.WSPort == c.GrpcPort {
		return fmt.Errorf("http_port, ws_port and grpc_port must differ")
	}

	if c.Cache.QuoteTTLSeconds <= 0 || c.Cache.HistoryTTLSeconds <= 0 {
		return fmt.Errorf("cache TTLs must be greater than 0")
	}
	if c.Cache.MaxEntries < 0 || c.Cache.SweepIntervalSeconds < 0 {
		return fmt.Errorf("cache max_entries and sweep_interval_seconds cannot be negative")
	}

	switch c.Storage.DBType {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}
	if c.Network.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}

	if c.DataSource.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refresh interval must be greater than 0")
	}
	if c.DataSource.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("upstream timeout must be greater than 0")
	}
	seen := make(map[string]bool)
	for i, src := range c.DataSource.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name '%s'", src.Name)
		}
		seen[src.Name] = true
		if src.Type != "yahoo" {
			return fmt.Errorf("source '%s' has unsupported type '%s'", src.Name, src.Type)
		}
	}

	if c.Analysis.SMAShort <= 0 || c.Analysis.SMALong <= 0 || c.Analysis.RSIPeriod <= 0 {
		return fmt.Errorf("analysis periods must be greater than 0")
	}

	return nil
}
