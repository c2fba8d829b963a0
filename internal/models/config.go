package models

// Config holds the application configuration
type Config struct {
	OwnerAddress string         `json:"owner_address" mapstructure:"owner_address" validate:"required"`
	LogLevel     string         `json:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Server       ServerConfig   `json:"server" mapstructure:"server"`
	Scan         ScanConfig     `json:"scan" mapstructure:"scan"`
	Cache        CacheConfig    `json:"cache" mapstructure:"cache"`
	Database     DatabaseConfig `json:"database" mapstructure:"database"`
	Watcher      WatcherConfig  `json:"watcher" mapstructure:"watcher"`
	Tracing      TracingConfig  `json:"tracing" mapstructure:"tracing"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            int `json:"port" mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeoutSec  int `json:"read_timeout_sec" mapstructure:"read_timeout_sec" validate:"min=0"`
	WriteTimeoutSec int `json:"write_timeout_sec" mapstructure:"write_timeout_sec" validate:"min=0"`
}

// ScanConfig holds LayerZero Scan endpoints
type ScanConfig struct {
	APIBaseURL     string `json:"api_base_url" mapstructure:"api_base_url" validate:"required,url"`
	TxPageBaseURL  string `json:"tx_page_base_url" mapstructure:"tx_page_base_url" validate:"required,url"`
	HTTPTimeoutSec int    `json:"http_timeout_sec" mapstructure:"http_timeout_sec" validate:"min=0"`
}

// CacheConfig controls the per-transaction extraction cache
type CacheConfig struct {
	Enabled    bool `json:"enabled" mapstructure:"enabled"`
	TTLMinutes int  `json:"ttl_minutes" mapstructure:"ttl_minutes" validate:"min=0"`
}

// DatabaseConfig holds the sighting store location
type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// WatcherConfig controls the background sighting watcher
type WatcherConfig struct {
	Enabled       bool `json:"enabled" mapstructure:"enabled"`
	IntervalSec   int  `json:"interval_sec" mapstructure:"interval_sec" validate:"min=0"`
	RetentionDays int  `json:"retention_days" mapstructure:"retention_days" validate:"min=0"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled      bool    `json:"enabled" mapstructure:"enabled"`
	UseStdout    bool    `json:"use_stdout" mapstructure:"use_stdout"`
	OTLPEndpoint string  `json:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	SampleRate   float64 `json:"sample_rate" mapstructure:"sample_rate" validate:"min=0,max=1"`
	Environment  string  `json:"environment" mapstructure:"environment"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
