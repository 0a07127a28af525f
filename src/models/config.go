package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	HTTPPort   int               `yaml:"http_port"`
	WSPort     int               `yaml:"ws_port"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	LogLevel   string            `yaml:"log_level"`
	LogFile    MLogFileConfig    `yaml:"log_file"`
	Cache      MCacheConfig      `yaml:"cache"`
	History    MHistoryConfig    `yaml:"history"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Analysis   MAnalysisConfig   `yaml:"analysis"`
}

type MLogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type MCacheConfig struct {
	QuoteTTLSeconds      int `yaml:"quote_ttl_seconds"`
	HistoryTTLSeconds    int `yaml:"history_ttl_seconds"`
	MaxEntries           int `yaml:"max_entries"`            // 0 = unbounded
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"` // 0 = lazy eviction only
}

type MHistoryConfig struct {
	// LegacyPeriodFallback maps unknown period tokens to the 1-day window instead of rejecting them.
	LegacyPeriodFallback bool `yaml:"legacy_period_fallback"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // none, sqlite, postgres
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
	RequestsPerSecond  float64  `yaml:"requests_per_second"`
	Burst              int      `yaml:"burst"`
}

type MDataSourceConfig struct {
	RefreshIntervalSeconds int             `yaml:"refresh_interval_seconds"`
	UpstreamTimeoutSeconds int             `yaml:"upstream_timeout_seconds"`
	MarketHoursOnly        bool            `yaml:"market_hours_only"`
	Sources                []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // only "yahoo" today
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // Optional
}

// MAnalysisConfig holds indicator defaults; requests may override them.
type MAnalysisConfig struct {
	SMAShort  int `yaml:"sma_short"`
	SMALong   int `yaml:"sma_long"`
	RSIPeriod int `yaml:"rsi_period"`
}
